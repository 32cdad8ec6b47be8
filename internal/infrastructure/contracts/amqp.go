package contracts

// AmqpMessage is the message structure for AMQP.
type AmqpMessage struct {
	Tag  string `json:"tag"`
	Data []byte `json:"data"`
}

// Routing keys - using consistent event patterns
const (
	EventClipboardUpdated = "clipboard.updated"
	EventClipboardDeleted = "clipboard.deleted"
	EventFileUploaded     = "file.uploaded"
	EventFileDeleted      = "file.deleted"
	EventRoomCreated      = "room.created"
	EventRoomDeleted      = "room.deleted"
)
