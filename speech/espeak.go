package speech

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// EspeakConfig configures the espeak-ng subprocess engine.
type EspeakConfig struct {
	Binary string // defaults to "espeak-ng"
	Voice  string // espeak voice name, empty for the engine default
	Rate   int    // words per minute, defaults to 200
}

// EspeakEngine speaks by running the espeak-ng command line synthesizer.
// Each utterance runs as a background process; starting a new utterance
// terminates the previous process first so speech never overlaps.
type EspeakEngine struct {
	binary string
	voice  string
	rate   int
	logger *zap.Logger

	mu  sync.Mutex
	cmd *exec.Cmd
}

var _ Engine = (*EspeakEngine)(nil)

func NewEspeakEngine(config EspeakConfig, logger *zap.Logger) *EspeakEngine {
	if config.Binary == "" {
		config.Binary = "espeak-ng"
	}
	if config.Rate == 0 {
		config.Rate = 200
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EspeakEngine{
		binary: config.Binary,
		voice:  config.Voice,
		rate:   config.Rate,
		logger: logger,
	}
}

func (e *EspeakEngine) Name() string {
	return "espeak"
}

// Speak interrupts the current utterance and starts speaking text in the
// background. The binary is looked up per call, so an engine installed
// after startup is picked up.
func (e *EspeakEngine) Speak(ctx context.Context, text string) error {
	path, err := exec.LookPath(e.binary)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrEngineNotFound, e.binary)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.terminateLocked()

	cmd := exec.CommandContext(ctx, path, e.args(text)...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", e.binary, err)
	}
	e.cmd = cmd

	// Reap the process when it finishes on its own.
	go func() {
		_ = cmd.Wait()
	}()

	e.logger.Debug("speaking", zap.String("engine", e.Name()), zap.Int("chars", len(text)))
	return nil
}

// Stop silences the current utterance, if any.
func (e *EspeakEngine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.terminateLocked()
	return nil
}

func (e *EspeakEngine) Close() error {
	return e.Stop()
}

func (e *EspeakEngine) args(text string) []string {
	args := []string{"-s", strconv.Itoa(e.rate)}
	if e.voice != "" {
		args = append(args, "-v", e.voice)
	}
	return append(args, text)
}

// terminateLocked kills the running process. A process that already
// exited is not an error; its goroutine has reaped it.
func (e *EspeakEngine) terminateLocked() {
	if e.cmd == nil || e.cmd.Process == nil {
		return
	}
	if err := e.cmd.Process.Kill(); err != nil {
		e.logger.Debug("no process to terminate", zap.Error(err))
	}
	e.cmd = nil
}
