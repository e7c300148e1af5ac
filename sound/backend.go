package sound

import (
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// Backend defines the interface for the mixing speaker output.
type Backend interface {
	// Init prepares the output for the given sample rate and internal
	// buffer length (in samples).
	Init(sampleRate beep.SampleRate, bufferLen int) error

	// Play adds a streamer to the mix. Drained streamers are discarded
	// by the mixer.
	Play(s beep.Streamer)

	// Lock and Unlock guard mutation of streamers that are being mixed.
	Lock()
	Unlock()

	// Close shuts the output down.
	Close() error
}

// SpeakerBackend plays through the system audio device.
type SpeakerBackend struct{}

var _ Backend = (*SpeakerBackend)(nil)

func NewSpeakerBackend() *SpeakerBackend {
	return &SpeakerBackend{}
}

func (b *SpeakerBackend) Init(sampleRate beep.SampleRate, bufferLen int) error {
	return speaker.Init(sampleRate, bufferLen)
}

func (b *SpeakerBackend) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (b *SpeakerBackend) Lock()   { speaker.Lock() }
func (b *SpeakerBackend) Unlock() { speaker.Unlock() }

func (b *SpeakerBackend) Close() error {
	speaker.Close()
	return nil
}

// HeadlessBackend mixes without an audio device. Tests drive playback by
// pulling samples with Advance.
type HeadlessBackend struct {
	mu    sync.Mutex
	mixer beep.Mixer
}

var _ Backend = (*HeadlessBackend)(nil)

func NewHeadlessBackend() *HeadlessBackend {
	return &HeadlessBackend{}
}

func (b *HeadlessBackend) Init(sampleRate beep.SampleRate, bufferLen int) error {
	return nil
}

func (b *HeadlessBackend) Play(s beep.Streamer) {
	b.mu.Lock()
	b.mixer.Add(s)
	b.mu.Unlock()
}

func (b *HeadlessBackend) Lock()   { b.mu.Lock() }
func (b *HeadlessBackend) Unlock() { b.mu.Unlock() }

func (b *HeadlessBackend) Close() error {
	return nil
}

// Advance pulls n samples through the mixer, simulating n samples of
// wall-clock playback.
func (b *HeadlessBackend) Advance(n int) {
	buf := make([][2]float64, 512)
	b.mu.Lock()
	defer b.mu.Unlock()
	for n > 0 {
		chunk := len(buf)
		if n < chunk {
			chunk = n
		}
		b.mixer.Stream(buf[:chunk])
		n -= chunk
	}
}

// bufferLenFor sizes the speaker buffer at a tenth of a second, the
// conventional latency for game sound effects.
func bufferLenFor(sampleRate beep.SampleRate) int {
	return sampleRate.N(time.Second / 10)
}
