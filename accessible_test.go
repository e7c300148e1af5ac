package accessible

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/d1nch8g/accessible/sound"
	"github.com/d1nch8g/accessible/speech"
	"github.com/d1nch8g/accessible/window"
)

// testHarness loads the toolkit on headless subsystems and unloads it on
// cleanup.
type testHarness struct {
	display *window.HeadlessDisplay
	backend *sound.HeadlessBackend
	engine  *speech.DummyEngine
}

func loadTestToolkit(t *testing.T, opts ...Option) *testHarness {
	t.Helper()
	h := &testHarness{
		display: window.NewHeadlessDisplay(),
		backend: sound.NewHeadlessBackend(),
		engine:  speech.NewDummyEngine(zaptest.NewLogger(t)),
	}
	opts = append([]Option{
		WithDisplay(h.display),
		WithSoundBackend(h.backend),
		WithSpeechEngine(h.engine),
		WithLogger(zaptest.NewLogger(t)),
	}, opts...)
	if err := Load(opts...); err != nil {
		t.Fatalf("failed to load toolkit: %v", err)
	}
	t.Cleanup(func() { Exit() })
	return h
}

// writeWAV writes a short 16-bit mono PCM wav fixture.
func writeWAV(t *testing.T, numSamples int) string {
	t.Helper()
	const rate = 44100

	dataLen := numSamples * 2
	buf := make([]byte, 44+dataLen)
	copy(buf[0:], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], uint32(36+dataLen))
	copy(buf[8:], "WAVE")
	copy(buf[12:], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:], 16)
	binary.LittleEndian.PutUint16(buf[20:], 1)
	binary.LittleEndian.PutUint16(buf[22:], 1)
	binary.LittleEndian.PutUint32(buf[24:], rate)
	binary.LittleEndian.PutUint32(buf[28:], rate*2)
	binary.LittleEndian.PutUint16(buf[32:], 2)
	binary.LittleEndian.PutUint16(buf[34:], 16)
	copy(buf[36:], "data")
	binary.LittleEndian.PutUint32(buf[40:], uint32(dataLen))
	for i := 0; i < numSamples; i++ {
		sample := int16(8000 * math.Sin(2*math.Pi*220*float64(i)/rate))
		binary.LittleEndian.PutUint16(buf[44+i*2:], uint16(sample))
	}

	path := filepath.Join(t.TempDir(), "tone.wav")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatalf("failed to write wav fixture: %v", err)
	}
	return path
}

func TestLoadTwice(t *testing.T) {
	loadTestToolkit(t)
	if err := Load(); !errors.Is(err, ErrAlreadyLoaded) {
		t.Errorf("expected ErrAlreadyLoaded, got %v", err)
	}
}

func TestExitWithoutLoad(t *testing.T) {
	if err := Exit(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("expected ErrNotLoaded, got %v", err)
	}
}

func TestLoadAfterExit(t *testing.T) {
	loadTestToolkit(t)
	if err := Exit(); err != nil {
		t.Fatalf("failed to exit: %v", err)
	}
	// The cleanup Exit will now report ErrNotLoaded; reload so it has
	// something to unload.
	h := &testHarness{
		display: window.NewHeadlessDisplay(),
		backend: sound.NewHeadlessBackend(),
		engine:  speech.NewDummyEngine(zaptest.NewLogger(t)),
	}
	if err := Load(
		WithDisplay(h.display),
		WithSoundBackend(h.backend),
		WithSpeechEngine(h.engine),
	); err != nil {
		t.Fatalf("failed to reload after exit: %v", err)
	}
}

func TestOperationsBeforeLoad(t *testing.T) {
	if _, err := Input(); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Input: expected ErrNotLoaded, got %v", err)
	}
	if err := Speak("hello"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Speak: expected ErrNotLoaded, got %v", err)
	}
	if _, err := NewPlayer("whatever.wav"); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("NewPlayer: expected ErrNotLoaded, got %v", err)
	}
}

func TestInputReturnsOneKey(t *testing.T) {
	h := loadTestToolkit(t)

	go h.display.Press(window.Key{Rune: 'a', Name: "a"})
	key, err := Input()
	if err != nil {
		t.Fatalf("failed to read input: %v", err)
	}
	if key != "a" {
		t.Errorf("got key %q, want %q", key, "a")
	}

	go h.display.Press(window.Key{Name: "escape"})
	key, err = Input()
	if err != nil {
		t.Fatal(err)
	}
	if key != "escape" {
		t.Errorf("got key %q, want %q", key, "escape")
	}
}

func TestInputContextCancel(t *testing.T) {
	loadTestToolkit(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := InputContext(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestInputWindowClosed(t *testing.T) {
	h := loadTestToolkit(t)
	h.display.Stop()
	if _, err := Input(); !errors.Is(err, ErrWindowClosed) {
		t.Errorf("expected ErrWindowClosed, got %v", err)
	}
}

func TestSpeakInterruptsPrevious(t *testing.T) {
	h := loadTestToolkit(t)

	if err := Speak("first prompt"); err != nil {
		t.Fatalf("failed to speak: %v", err)
	}
	if err := Speak("second prompt"); err != nil {
		t.Fatalf("failed to speak again: %v", err)
	}

	spoken := h.engine.Spoken()
	if len(spoken) != 2 || spoken[0] != "first prompt" || spoken[1] != "second prompt" {
		t.Errorf("unexpected utterances %v", spoken)
	}
	if h.engine.Interrupts() != 1 {
		t.Errorf("second Speak must interrupt the first, interrupts = %d", h.engine.Interrupts())
	}
}

func TestPauseFuncTicksCallback(t *testing.T) {
	loadTestToolkit(t)

	var ticks int
	start := time.Now()
	PauseFunc(100*time.Millisecond, func() { ticks++ })
	elapsed := time.Since(start)

	if elapsed < 100*time.Millisecond {
		t.Errorf("PauseFunc returned after %v, want at least 100ms", elapsed)
	}
	if ticks == 0 {
		t.Error("callback never invoked")
	}
}

func TestPlayerLifecycle(t *testing.T) {
	h := loadTestToolkit(t)
	path := writeWAV(t, 2000)

	p, err := NewPlayer(path)
	if err != nil {
		t.Fatalf("failed to create player: %v", err)
	}
	defer p.Close()

	if p.Path() != path {
		t.Errorf("unexpected path %q", p.Path())
	}
	if p.Playing() {
		t.Error("fresh player must not be playing")
	}

	if err := p.Play(); err != nil {
		t.Fatalf("failed to play: %v", err)
	}
	if !p.Playing() {
		t.Error("player must be busy after Play")
	}

	if err := p.Pause(); err != nil {
		t.Fatalf("failed to pause: %v", err)
	}
	h.backend.Advance(10000)
	if !p.Playing() {
		t.Error("paused player must stay busy")
	}

	if err := p.Play(); err != nil {
		t.Fatalf("failed to resume: %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("failed to stop: %v", err)
	}
	if p.Playing() {
		t.Error("stopped player must be idle")
	}
	if err := p.Stop(); !errors.Is(err, sound.ErrNotPlaying) {
		t.Errorf("expected ErrNotPlaying, got %v", err)
	}
}

func TestPlayerVolume(t *testing.T) {
	loadTestToolkit(t)
	p, err := NewPlayer(writeWAV(t, 500))
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if err := p.SetVolume(150); err == nil {
		t.Error("expected error for volume above 100")
	}
	if err := p.SetVolume(-5); err == nil {
		t.Error("expected error for negative volume")
	}
	if err := p.SetVolume(75); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPlayerChannelExhaustion(t *testing.T) {
	loadTestToolkit(t, WithChannels(1))
	path := writeWAV(t, 100)

	p, err := NewPlayer(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewPlayer(path); !errors.Is(err, sound.ErrNoFreeChannel) {
		t.Errorf("expected ErrNoFreeChannel, got %v", err)
	}

	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	p2, err := NewPlayer(path)
	if err != nil {
		t.Errorf("expected a free channel after Close, got %v", err)
	} else {
		p2.Close()
	}
}
