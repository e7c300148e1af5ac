// Package accessible is a small toolkit for building self-voicing,
// audio-first games: multi-channel sound playback, keyboard input from an
// application window, and spoken prompts with screen-reader style voice
// interrupt.
//
// Typical use:
//
//	if err := accessible.Load(); err != nil {
//		log.Fatal(err)
//	}
//	defer accessible.Exit()
//
//	kick, err := accessible.NewPlayer("kick.wav")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer kick.Close()
//
//	kick.Play()
//	accessible.Speak("Press any key to stop.")
//	accessible.Input()
package accessible

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"go.uber.org/zap"

	"github.com/d1nch8g/accessible/config"
	"github.com/d1nch8g/accessible/sound"
	"github.com/d1nch8g/accessible/speech"
	"github.com/d1nch8g/accessible/window"
)

var (
	ErrAlreadyLoaded     = errors.New("toolkit is already loaded")
	ErrNotLoaded         = errors.New("toolkit is not loaded")
	ErrWindowClosed      = errors.New("window was closed")
	ErrSpeechUnavailable = errors.New("speech is not available")
)

// frameInterval is the tick rate of PauseFunc callbacks, matching a 60
// FPS game loop.
const frameInterval = time.Second / 60

// toolkit bundles the running subsystems. Lifecycle ordering follows
// Load: window first, then the sound device, then speech; Exit unwinds
// in reverse.
type toolkit struct {
	display window.Display
	device  *sound.Device
	engine  speech.Engine
	logger  *zap.Logger
}

var (
	mu      sync.Mutex
	current *toolkit
)

// Load initializes the window, the playback device and the speech
// engine. It must be called once before any other operation and balanced
// by Exit.
func Load(opts ...Option) error {
	mu.Lock()
	defer mu.Unlock()
	if current != nil {
		return ErrAlreadyLoaded
	}

	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	display := s.display
	if display == nil {
		display = window.NewEbitenDisplay(s.windowTitle, s.windowWidth, s.windowHeight, s.logger)
	}
	backend := s.backend
	if backend == nil {
		backend = sound.NewSpeakerBackend()
	}
	engine := s.engine
	if engine == nil {
		var err error
		if engine, err = newEngine(s); err != nil {
			return err
		}
	}

	if err := display.Start(); err != nil {
		engine.Close()
		return fmt.Errorf("failed to open window: %w", err)
	}

	device := sound.NewDevice(backend, s.sampleRate, s.channels, s.logger)
	if err := device.Init(); err != nil {
		engine.Close()
		display.Stop()
		return err
	}

	current = &toolkit{
		display: display,
		device:  device,
		engine:  engine,
		logger:  s.logger,
	}
	s.logger.Info("toolkit loaded",
		zap.Int("channels", s.channels),
		zap.String("speech", engine.Name()))
	return nil
}

// Exit tears the toolkit down and frees audio resources.
func Exit() error {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return ErrNotLoaded
	}
	tk := current
	current = nil

	var errs []error
	if err := tk.engine.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close speech engine: %w", err))
	}
	if err := tk.device.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close sound device: %w", err))
	}
	if err := tk.display.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close window: %w", err))
	}
	return errors.Join(errs...)
}

// Input blocks until one keypress is observed in the application window
// and returns it: a one-character string for printable keys, the key
// name otherwise.
func Input() (string, error) {
	return InputContext(context.Background())
}

// InputContext is Input with cancellation.
func InputContext(ctx context.Context) (string, error) {
	tk, err := get()
	if err != nil {
		return "", err
	}
	select {
	case k := <-tk.display.Keys():
		return k.String(), nil
	case <-tk.display.Done():
		return "", ErrWindowClosed
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Pause suspends game-logic progression for the duration. The window's
// event loop keeps running, so the application stays responsive; use it
// to let an unskippable sound or utterance finish.
func Pause(d time.Duration) {
	PauseFunc(d, nil)
}

// PauseFunc is Pause with a callback invoked at frame rate while
// waiting.
func PauseFunc(d time.Duration, update func()) {
	if update == nil {
		time.Sleep(d)
		return
	}
	deadline := time.Now().Add(d)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		update()
		<-ticker.C
	}
}

// Speak interrupts any in-progress utterance and speaks text in the
// background. It reports ErrSpeechUnavailable when the configured engine
// cannot run, so games can fall back to visual output.
func Speak(text string) error {
	tk, err := get()
	if err != nil {
		return err
	}
	if err := tk.engine.Speak(context.Background(), text); err != nil {
		if errors.Is(err, speech.ErrEngineNotFound) {
			return fmt.Errorf("%w: %v", ErrSpeechUnavailable, err)
		}
		return err
	}
	return nil
}

func get() (*toolkit, error) {
	mu.Lock()
	defer mu.Unlock()
	if current == nil {
		return nil, ErrNotLoaded
	}
	return current, nil
}

func newEngine(s settings) (speech.Engine, error) {
	switch s.speech.Engine {
	case "", "espeak":
		return speech.NewEspeakEngine(speech.EspeakConfig{
			Binary: s.speech.EspeakBinary,
			Voice:  s.speech.EspeakVoice,
			Rate:   s.speech.EspeakRate,
		}, s.logger), nil
	case "yandex":
		return speech.NewYandexEngine(speech.YandexConfig{
			ApiKey:          s.speech.YandexAPIKey,
			FolderID:        s.speech.YandexFolderID,
			FramesPerBuffer: s.speech.FramesPerBuffer,
		}, s.logger)
	case "off":
		return speech.NewDummyEngine(s.logger), nil
	default:
		return nil, fmt.Errorf("unknown speech engine %q", s.speech.Engine)
	}
}

// settings collects option state for Load.
type settings struct {
	channels     int
	windowTitle  string
	windowWidth  int
	windowHeight int
	sampleRate   beep.SampleRate
	speech       config.SpeechConfig
	logger       *zap.Logger

	display window.Display
	backend sound.Backend
	engine  speech.Engine
}

func defaultSettings() settings {
	return settings{
		channels:     config.DefaultChannels,
		windowTitle:  config.DefaultWindowTitle,
		windowWidth:  config.DefaultWindowWidth,
		windowHeight: config.DefaultWindowHeight,
		sampleRate:   beep.SampleRate(config.DefaultSampleRate),
		speech: config.SpeechConfig{
			Engine:       config.DefaultSpeechEngine,
			EspeakBinary: config.DefaultEspeakBinary,
			EspeakRate:   config.DefaultEspeakRate,
		},
		logger: zap.NewNop(),
	}
}

// Option customizes Load.
type Option func(*settings)

// WithChannels sets how many sounds can be held loaded at once.
func WithChannels(n int) Option {
	return func(s *settings) { s.channels = n }
}

// WithWindowTitle sets the application window title.
func WithWindowTitle(title string) Option {
	return func(s *settings) { s.windowTitle = title }
}

// WithWindowSize sets the application window dimensions.
func WithWindowSize(width, height int) Option {
	return func(s *settings) {
		s.windowWidth = width
		s.windowHeight = height
	}
}

// WithLogger routes toolkit logging to l instead of discarding it.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// WithConfig applies a loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *settings) {
		s.channels = cfg.Channels
		s.windowTitle = cfg.WindowTitle
		s.windowWidth = cfg.WindowWidth
		s.windowHeight = cfg.WindowHeight
		s.sampleRate = beep.SampleRate(cfg.Speech.SampleRate)
		s.speech = cfg.Speech
	}
}

// WithDisplay substitutes the window implementation.
func WithDisplay(d window.Display) Option {
	return func(s *settings) { s.display = d }
}

// WithSoundBackend substitutes the speaker backend.
func WithSoundBackend(b sound.Backend) Option {
	return func(s *settings) { s.backend = b }
}

// WithSpeechEngine substitutes the speech engine.
func WithSpeechEngine(e speech.Engine) Option {
	return func(s *settings) { s.engine = e }
}
