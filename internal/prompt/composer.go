package prompt

import (
	"strconv"
	"strings"

	"github.com/eleven-am/sanpo-guide/internal/session"
)

const (
	DefaultHistoryWindow = 8
	DefaultRecapSize     = 3
)

const DefaultPreamble = `あなたは親しみやすい旅のガイドです。ユーザーと自然な会話をしてください。

会話のルール:
- フレンドリーで親しみやすい口調で話してください
- 「これ」「それ」などはユーザーが見ている/見せた画像の内容を指します
- 画像がある場合は、具体的で詳しい説明をしてください
- 会話の流れを自然に継続し、関連する情報を積極的に提供してください
- 旅行者の視点で、実用的で興味深い情報を心がけてください`

const (
	recapHeader  = "【過去に見た画像の内容】"
	noticeHeader = "【現在の状況】"
	imageNotice  = "ユーザーが新しい画像を共有しました。この画像について質問や会話をしたがっています。"
)

type Config struct {
	Preamble      string
	HistoryWindow int
	RecapSize     int
}

type Input struct {
	Text         string
	Image        string
	History      []session.Turn
	Descriptions []string
}

// Composer builds the message sequence sent upstream. It is pure: equal
// inputs always give identical output.
type Composer struct {
	preamble      string
	historyWindow int
	recapSize     int
}

func NewComposer(cfg Config) *Composer {
	if cfg.Preamble == "" {
		cfg.Preamble = DefaultPreamble
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = DefaultHistoryWindow
	}
	if cfg.RecapSize <= 0 {
		cfg.RecapSize = DefaultRecapSize
	}
	return &Composer{
		preamble:      cfg.Preamble,
		historyWindow: cfg.HistoryWindow,
		recapSize:     cfg.RecapSize,
	}
}

func (c *Composer) Compose(in Input) []Message {
	history := tail(in.History, c.historyWindow)

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{
		Role:    RoleSystem,
		Content: c.SystemPrompt(in.Descriptions, in.Image != ""),
	})

	for _, turn := range history {
		messages = append(messages, Message{
			Role:    Role(turn.Role),
			Content: turn.Content,
		})
	}

	parts := []Part{{Type: PartText, Text: in.Text}}
	if in.Image != "" {
		parts = append(parts, Part{Type: PartImage, ImageURL: in.Image})
	}
	messages = append(messages, Message{Role: RoleUser, Parts: parts})

	return messages
}

// SystemPrompt is the preamble, then a numbered recap of the most recent
// descriptions, then a note when an image is attached to this turn.
func (c *Composer) SystemPrompt(descriptions []string, hasImage bool) string {
	var b strings.Builder
	b.WriteString(c.preamble)

	if recent := tail(descriptions, c.recapSize); len(recent) > 0 {
		b.WriteString("\n\n")
		b.WriteString(recapHeader)
		for i, desc := range recent {
			b.WriteString("\n")
			b.WriteString(strconv.Itoa(i + 1))
			b.WriteString(". ")
			b.WriteString(desc)
		}
	}

	if hasImage {
		b.WriteString("\n\n")
		b.WriteString(noticeHeader)
		b.WriteString("\n")
		b.WriteString(imageNotice)
	}

	return b.String()
}

func tail[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
