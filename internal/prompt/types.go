package prompt

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image_url"
)

// Part is one element of a multimodal user turn.
type Part struct {
	Type     PartType
	Text     string
	ImageURL string
}

// Message is one entry of the outbound sequence. Exactly one of Content or
// Parts is set: history and system entries use Content, the current user
// turn uses Parts.
type Message struct {
	Role    Role
	Content string
	Parts   []Part
}
