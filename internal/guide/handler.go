package guide

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/eleven-am/sanpo-guide/internal/shared"
	"github.com/labstack/echo/v4"
)

type Handler struct {
	orchestrator *Orchestrator
	logger       *slog.Logger

	inflight sync.Map
}

func NewHandler(orchestrator *Orchestrator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		orchestrator: orchestrator,
		logger:       logger.With("handler", "guide"),
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/unified", h.HandleTurn)
	g.POST("/reset-session", h.HandleReset)
}

type TurnRequestBody struct {
	SessionID string `json:"sessionId"`
	Text      string `json:"text"`
	Image     string `json:"image,omitempty"`
}

type TurnResponse struct {
	Answer string `json:"answer"`
}

type ResetRequestBody struct {
	SessionID string `json:"sessionId"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// HandleTurn answers one utterance, optionally with a freshly captured image.
// A second request for a session whose previous turn is still running is
// rejected as busy instead of queued.
func (h *Handler) HandleTurn(c echo.Context) error {
	var body TurnRequestBody
	if err := c.Bind(&body); err != nil {
		return shared.BadRequest("invalid_request", "Invalid request body")
	}

	if id := strings.TrimSpace(body.SessionID); id != "" {
		if _, loaded := h.inflight.LoadOrStore(id, struct{}{}); loaded {
			return h.turnError(busy())
		}
		defer h.inflight.Delete(id)
	}

	result, err := h.orchestrator.HandleTurn(c.Request().Context(), TurnRequest{
		SessionID: body.SessionID,
		Text:      body.Text,
		Image:     body.Image,
	})
	if err != nil {
		return h.turnError(err)
	}

	return c.JSON(http.StatusOK, TurnResponse{Answer: result.Answer})
}

func (h *Handler) HandleReset(c echo.Context) error {
	var body ResetRequestBody
	if err := c.Bind(&body); err != nil {
		return shared.BadRequest("invalid_request", "Invalid request body")
	}

	if err := h.orchestrator.ResetSession(c.Request().Context(), body.SessionID); err != nil {
		var te *TurnError
		if errors.As(err, &te) {
			return shared.BadRequest("invalid_request", te.Message)
		}
		h.logger.Error("session reset failed", "error", err, "session_id", body.SessionID)
		return shared.InternalError("reset_failed", "セッションリセットに失敗しました")
	}

	return c.JSON(http.StatusOK, ResetResponse{
		Success: true,
		Message: "セッションをリセットしました",
	})
}

func (h *Handler) turnError(err error) error {
	var te *TurnError
	if !errors.As(err, &te) {
		h.logger.Error("unexpected turn error", "error", err)
		return shared.InternalError("internal_error", Apology)
	}

	switch te.Kind {
	case KindInvalidInput:
		return shared.BadRequest("invalid_request", te.Message)
	case KindBusy:
		return shared.TooManyRequests(string(te.Kind), te.Message)
	default:
		return shared.InternalError(string(te.Kind), te.Message)
	}
}
