package ws

const (
	UserCount       = "userCount"
	ClipboardUpdate = "clipboardUpdate"
	FileUpload      = "fileUpload"
	FileDelete      = "fileDelete"

	Joined     = "joined"
	JoinFailed = "error.join"
)
