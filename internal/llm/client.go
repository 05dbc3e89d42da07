package llm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/sanpo-guide/internal/prompt"
	"github.com/sashabaranov/go-openai"
)

var ErrEmptyResponse = errors.New("empty response from model")

const judgeInstruction = `次の発話が【カメラ画像を参照して答えるべき質問】なら "yes"、そうでなければ "no" だけ返答してください。`

type Config struct {
	APIKey             string
	BaseURL            string
	Model              string
	ClassifierModel    string
	TranscriptionModel string
	Language           string
	MaxTokens          int
	Temperature        float32
	Timeout            time.Duration
}

// Client talks to an OpenAI-compatible API for chat generation, the
// yes/no visual-reference judge, and speech transcription. It never retries.
type Client struct {
	client             *openai.Client
	model              string
	classifierModel    string
	transcriptionModel string
	language           string
	maxTokens          int
	temperature        float32
}

func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.ClassifierModel == "" {
		cfg.ClassifierModel = cfg.Model
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 800
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:             openai.NewClientWithConfig(clientConfig),
		model:              cfg.Model,
		classifierModel:    cfg.ClassifierModel,
		transcriptionModel: cfg.TranscriptionModel,
		language:           cfg.Language,
		maxTokens:          cfg.MaxTokens,
		temperature:        cfg.Temperature,
	}
}

func (c *Client) Generate(ctx context.Context, messages []prompt.Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    convertMessages(messages),
		MaxTokens:   c.maxTokens,
		Temperature: wireTemperature(c.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	return firstContent(resp)
}

// Judge asks the classifier model for a single yes/no token. The raw output
// is returned untouched; validating it is the caller's job.
func (c *Client) Judge(ctx context.Context, text string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.classifierModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeInstruction},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   1,
		Temperature: wireTemperature(0),
	})
	if err != nil {
		return "", fmt.Errorf("judge completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.transcriptionModel,
		FilePath: filename,
		Reader:   bytes.NewReader(audio),
		Language: c.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("transcription: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}

func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.ListModels(ctx)
	return err == nil
}

// wireTemperature keeps a requested zero on the wire; go-openai omits a zero
// temperature and the provider then falls back to its default of 1.
func wireTemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func firstContent(resp openai.ChatCompletionResponse) (string, error) {
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func convertMessages(messages []prompt.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msg := openai.ChatCompletionMessage{Role: string(m.Role)}
		if len(m.Parts) == 0 {
			msg.Content = m.Content
			out = append(out, msg)
			continue
		}

		msg.MultiContent = make([]openai.ChatMessagePart, 0, len(m.Parts))
		for _, p := range m.Parts {
			switch p.Type {
			case prompt.PartImage:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type:     openai.ChatMessagePartTypeImageURL,
					ImageURL: &openai.ChatMessageImageURL{URL: p.ImageURL},
				})
			default:
				msg.MultiContent = append(msg.MultiContent, openai.ChatMessagePart{
					Type: openai.ChatMessagePartTypeText,
					Text: p.Text,
				})
			}
		}
		out = append(out, msg)
	}
	return out
}
