package speech

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// DummyEngine discards speech. It stands in when speech is configured
// off and in tests.
type DummyEngine struct {
	logger *zap.Logger

	mu       sync.Mutex
	spoken   []string
	stops    int
	speaking bool
}

var _ Engine = (*DummyEngine)(nil)

func NewDummyEngine(logger *zap.Logger) *DummyEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DummyEngine{logger: logger}
}

func (d *DummyEngine) Name() string {
	return "dummy"
}

func (d *DummyEngine) Speak(_ context.Context, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.speaking {
		d.stops++
	}
	d.speaking = true
	d.spoken = append(d.spoken, text)
	d.logger.Debug("no speech engine configured, discarding", zap.String("text", text))
	return nil
}

func (d *DummyEngine) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.speaking {
		d.stops++
		d.speaking = false
	}
	return nil
}

func (d *DummyEngine) Close() error {
	return d.Stop()
}

// Spoken returns the utterances seen so far.
func (d *DummyEngine) Spoken() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.spoken))
	copy(out, d.spoken)
	return out
}

// Interrupts returns how many utterances were cut off.
func (d *DummyEngine) Interrupts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}
