package session

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one stored message. Content is always plain text; image
// attachments live in the image list, never in history.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Image is a captured picture, usually a data URL such as
// "data:image/jpeg;base64,...".
type Image struct {
	Data       string    `json:"data"`
	CapturedAt time.Time `json:"captured_at"`
}

type Limits struct {
	MaxTurns  int
	MaxImages int
}

const (
	DefaultMaxTurns  = 10
	DefaultMaxImages = 5
)

func (l Limits) normalize() Limits {
	if l.MaxTurns <= 0 {
		l.MaxTurns = DefaultMaxTurns
	}
	if l.MaxImages <= 0 {
		l.MaxImages = DefaultMaxImages
	}
	return l
}

// MaxHistory is the history bound: one user and one assistant entry per turn.
func (l Limits) MaxHistory() int {
	return 2 * l.normalize().MaxTurns
}

func historyKey(id string) string {
	return "session:" + id + ":history"
}

func imagesKey(id string) string {
	return "session:" + id + ":images"
}

func descriptionsKey(id string) string {
	return "session:" + id + ":descriptions"
}
