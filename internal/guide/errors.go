package guide

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrGeneration   = errors.New("generation failed")
	ErrBusy         = errors.New("session busy")
)

type ErrorKind string

const (
	KindInvalidInput     ErrorKind = "invalid_input"
	KindGenerationFailed ErrorKind = "generation_failed"
	KindBusy             ErrorKind = "busy"
)

// Apology is the only text a caller sees when generation fails.
const Apology = "エラーが発生しました。もう一度お試しください。"

const busyMessage = "前の質問を処理中です。しばらくお待ちください。"

// TurnError is the caller-facing failure of a turn. Message is safe to show
// to end users; the wrapped cause is for server logs only.
type TurnError struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *TurnError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.cause)
}

func (e *TurnError) Unwrap() error {
	return e.cause
}

func invalidInput(message string) *TurnError {
	return &TurnError{Kind: KindInvalidInput, Message: message, cause: ErrInvalidInput}
}

func generationFailed(cause error) *TurnError {
	return &TurnError{Kind: KindGenerationFailed, Message: Apology, cause: fmt.Errorf("%w: %w", ErrGeneration, cause)}
}

func busy() *TurnError {
	return &TurnError{Kind: KindBusy, Message: busyMessage, cause: ErrBusy}
}
