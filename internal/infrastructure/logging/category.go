package logging

type Category string
type SubCategory string
type ExtraKey string

const (
	General         Category = "General"
	Internal        Category = "Internal"
	ContentStore    Category = "ContentStore"
	RoomRegistry    Category = "RoomRegistry"
	Realtime        Category = "Realtime"
	RabbitMQ        Category = "RabbitMQ"
	Validation      Category = "Validation"
	RequestResponse Category = "RequestResponse"
)

const (
	// General
	Startup         SubCategory = "Startup"
	Shutdown        SubCategory = "Shutdown"
	RateLimiting    SubCategory = "RateLimiting"
	ExternalService SubCategory = "ExternalService"

	// Realtime
	Join      SubCategory = "Join"
	Leave     SubCategory = "Leave"
	Broadcast SubCategory = "Broadcast"

	// ContentStore
	Eviction SubCategory = "Eviction"
	Upload   SubCategory = "Upload"
)

const (
	AppName      ExtraKey = "AppName"
	LoggerName   ExtraKey = "Logger"
	ClientIp     ExtraKey = "ClientIp"
	Method       ExtraKey = "Method"
	StatusCode   ExtraKey = "StatusCode"
	BodySize     ExtraKey = "BodySize"
	Path         ExtraKey = "Path"
	Latency      ExtraKey = "Latency"
	RoomTag      ExtraKey = "RoomTag"
	FileID       ExtraKey = "FileId"
	ErrorMessage ExtraKey = "ErrorMessage"
)
