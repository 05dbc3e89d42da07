package guide

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/eleven-am/sanpo-guide/internal/prompt"
	"github.com/eleven-am/sanpo-guide/internal/session"
	"github.com/eleven-am/sanpo-guide/internal/vision"
)

type Generator interface {
	Generate(ctx context.Context, messages []prompt.Message) (string, error)
}

type Classifier interface {
	Classify(ctx context.Context, text string) vision.Verdict
}

type Config struct {
	Store      session.Repository
	Classifier Classifier
	Composer   *prompt.Composer
	Generator  Generator
	Metrics    *Metrics
	Logger     *slog.Logger
	Now        func() time.Time
}

type TurnRequest struct {
	SessionID string
	Text      string
	Image     string
}

type TurnResult struct {
	Answer      string
	ImageOrigin vision.Origin
}

// Orchestrator runs one conversational turn: validate, pick an image,
// compose the prompt, call the model once, then remember the turn. Turns
// for the same session are serialized; different sessions run freely.
type Orchestrator struct {
	store      session.Repository
	classifier Classifier
	composer   *prompt.Composer
	generator  Generator
	metrics    *Metrics
	logger     *slog.Logger
	now        func() time.Time
	locks      *sessionLocks
}

func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Composer == nil {
		cfg.Composer = prompt.NewComposer(prompt.Config{})
	}
	if cfg.Classifier == nil {
		cfg.Classifier = vision.NewClassifier(nil, nil, vision.ClassifierConfig{}, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		store:      cfg.Store,
		classifier: cfg.Classifier,
		composer:   cfg.Composer,
		generator:  cfg.Generator,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger.With("component", "orchestrator"),
		now:        cfg.Now,
		locks:      newSessionLocks(),
	}
}

func (o *Orchestrator) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	sessionID := strings.TrimSpace(req.SessionID)
	text := strings.TrimSpace(req.Text)
	if sessionID == "" || text == "" {
		o.metrics.turn("invalid")
		return nil, invalidInput("sessionId and text are required")
	}

	newImage, err := vision.NormalizeImage(req.Image)
	if err != nil {
		o.metrics.turn("invalid")
		return nil, invalidInput("image must be a base64 data URL")
	}

	unlock := o.locks.lock(sessionID)
	defer unlock()

	log := o.logger.With("session_id", sessionID)
	history, descriptions, cached := o.load(ctx, log, sessionID)

	var verdict vision.Verdict
	if newImage == "" {
		verdict = o.classifier.Classify(ctx, text)
		o.metrics.classification(verdict)
	}
	selection := vision.SelectImage(newImage, cached, verdict.Visual)
	o.metrics.selection(selection)

	messages := o.composer.Compose(prompt.Input{
		Text:         text,
		Image:        selection.Image,
		History:      history,
		Descriptions: descriptions,
	})

	log.Debug("calling upstream",
		"messages", len(messages),
		"image_origin", selection.Origin,
		"classifier_source", verdict.Source)

	start := o.now()
	answer, err := o.generator.Generate(ctx, messages)
	o.metrics.generation(o.now().Sub(start))
	if err == nil && strings.TrimSpace(answer) == "" {
		err = errors.New("blank answer")
	}
	if err != nil {
		o.metrics.turn("failed")
		log.Error("generation failed", "error", err)
		return nil, generationFailed(err)
	}

	// The answer exists now; a client hanging up must not cost the turn.
	o.persist(context.WithoutCancel(ctx), log, sessionID, text, answer, selection)

	o.metrics.turn("ok")
	log.Info("turn complete", "image_origin", selection.Origin, "answer_len", len(answer))

	return &TurnResult{Answer: answer, ImageOrigin: selection.Origin}, nil
}

// ResetSession drops everything remembered for the session. Unknown
// sessions are not an error.
func (o *Orchestrator) ResetSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return invalidInput("sessionId is required")
	}

	unlock := o.locks.lock(sessionID)
	defer unlock()

	if err := o.store.Reset(ctx, sessionID); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	o.logger.Info("session reset", "session_id", sessionID)
	return nil
}

// load reads the session. A failing store degrades to an empty session
// rather than failing the turn.
func (o *Orchestrator) load(ctx context.Context, log *slog.Logger, sessionID string) ([]session.Turn, []string, string) {
	history, err := o.store.GetHistory(ctx, sessionID)
	if err != nil {
		log.Warn("failed to load history", "error", err)
		history = nil
	}

	descriptions, err := o.store.GetDescriptions(ctx, sessionID)
	if err != nil {
		log.Warn("failed to load image descriptions", "error", err)
		descriptions = nil
	}

	var cached string
	latest, err := o.store.GetLatestImage(ctx, sessionID)
	if err != nil {
		log.Warn("failed to load latest image", "error", err)
	} else if latest != nil {
		cached = latest.Data
	}

	return history, descriptions, cached
}

// persist stores the turn. Failures only cost memory, never the answer.
func (o *Orchestrator) persist(ctx context.Context, log *slog.Logger, sessionID, text, answer string, selection vision.Selection) {
	if selection.Fresh() {
		img := session.Image{Data: selection.Image, CapturedAt: o.now()}
		if err := o.store.AddImageAndDescription(ctx, sessionID, img, answer); err != nil {
			o.metrics.persistFailure()
			log.Warn("failed to store image", "error", err)
		}
	}

	err := o.store.PushHistory(ctx, sessionID,
		session.Turn{Role: session.RoleUser, Content: text},
		session.Turn{Role: session.RoleAssistant, Content: answer},
	)
	if err != nil {
		o.metrics.persistFailure()
		log.Warn("failed to store history", "error", err)
	}
}
