package keys

const (
	// notation dictionary for key formats:
	// c    = conversation
	// msgs = message list
	// name = display name
	// All keys are lowercase; segments are separated by ":"
	// <...> = variable segment (e.g. <conversation_id>)

	ConversationPrefix = "c:"
	MessagesKey        = "c:%s:msgs" // c:<conversation_id>:msgs
	NameKey            = "c:%s:name" // c:<conversation_id>:name

	// system keys
	SystemVersionKey = "system:version"
	SchemaVersion    = "1"
)
