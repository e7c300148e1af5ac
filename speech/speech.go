package speech

import (
	"context"
	"errors"
)

// ErrEngineNotFound indicates the speech engine's external dependency is
// not available (for example espeak-ng missing from PATH).
var ErrEngineNotFound = errors.New("speech engine not found")

// Engine defines the interface for speech synthesis.
//
// Speak starts an utterance and interrupts any utterance still in
// progress, the way a screen reader cuts off stale speech on every new
// keypress. It never blocks for the duration of the utterance.
type Engine interface {
	Speak(ctx context.Context, text string) error
	Stop() error
	Name() string
	Close() error
}
