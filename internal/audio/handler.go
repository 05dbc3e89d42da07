package audio

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/eleven-am/sanpo-guide/internal/shared"
	"github.com/labstack/echo/v4"
)

const (
	maxAudioSize       = 25 * 1024 * 1024
	transcribeTimeout  = 2 * time.Minute
	defaultFilename    = "audio.m4a"
	transcriptionError = "音声認識に失敗しました"
)

// Transcriber turns a recorded clip into text. The filename carries the
// container format to the upstream.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type Handler struct {
	transcriber Transcriber
	logger      *slog.Logger
}

func NewHandler(transcriber Transcriber, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		transcriber: transcriber,
		logger:      logger.With("handler", "audio"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/speech-to-text", h.HandleSpeechToText)
}

type SpeechToTextRequest struct {
	AudioBase64 string `json:"audioBase64"`
}

type SpeechToTextResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
}

// HandleSpeechToText transcribes one recorded clip. Mobile clients send the
// clip as base64 JSON; a multipart "file" field is accepted as well.
func (h *Handler) HandleSpeechToText(c echo.Context) error {
	audioData, filename, err := h.readAudio(c)
	if err != nil {
		return err
	}

	if len(audioData) > maxAudioSize {
		return shared.TooLarge("audio_too_large", "Audio exceeds 25MB")
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), transcribeTimeout)
	defer cancel()

	text, err := h.transcriber.Transcribe(ctx, audioData, filename)
	if err != nil {
		h.logger.Error("transcription failed", "error", err, "bytes", len(audioData))
		return shared.InternalError("transcription_failed", transcriptionError)
	}

	h.logger.Debug("transcription complete", "bytes", len(audioData), "text_len", len(text))

	return c.JSON(http.StatusOK, SpeechToTextResponse{
		Success: true,
		Text:    text,
	})
}

func (h *Handler) readAudio(c echo.Context) ([]byte, string, error) {
	if strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		file, err := c.FormFile("file")
		if err != nil {
			return nil, "", shared.BadRequest("missing_audio", "No audio data provided")
		}
		if file.Size > maxAudioSize {
			return nil, "", shared.TooLarge("audio_too_large", "Audio exceeds 25MB")
		}

		src, err := file.Open()
		if err != nil {
			return nil, "", shared.InternalError("file_error", "Failed to open file")
		}
		defer src.Close()

		data, err := io.ReadAll(src)
		if err != nil {
			return nil, "", shared.InternalError("file_error", "Failed to read file")
		}
		if len(data) == 0 {
			return nil, "", shared.BadRequest("missing_audio", "No audio data provided")
		}
		filename := file.Filename
		if filename == "" {
			filename = defaultFilename
		}
		return data, filename, nil
	}

	var req SpeechToTextRequest
	if err := c.Bind(&req); err != nil {
		return nil, "", shared.BadRequest("invalid_body", "Invalid request body")
	}

	encoded := strings.TrimSpace(req.AudioBase64)
	if _, payload, ok := strings.Cut(encoded, ";base64,"); ok {
		encoded = payload
	}
	if encoded == "" {
		return nil, "", shared.BadRequest("missing_audio", "No audio data provided")
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(data) == 0 {
		return nil, "", shared.BadRequest("invalid_audio", "Audio must be base64 encoded")
	}
	return data, defaultFilename, nil
}
