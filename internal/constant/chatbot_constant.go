package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	DefaultSessionTitle = "Unnamed session"
	InitialGreeting     = "Hi, how can I help you ?"
)
