package sound

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
	"go.uber.org/zap"
)

var (
	ErrNoFreeChannel = errors.New("no available audio channel")
	ErrChannelClosed = errors.New("audio channel is closed")
	ErrNotPlaying    = errors.New("no audio is currently playing")
	ErrDeviceClosed  = errors.New("sound device is closed")
)

// resampleQuality balances fidelity against CPU for sounds whose file
// sample rate differs from the device rate.
const resampleQuality = 4

// Device owns the speaker backend and hands out playback channels. The
// channel count fixes how many sounds can be held loaded at once.
type Device struct {
	backend    Backend
	sampleRate beep.SampleRate
	logger     *zap.Logger

	mu       sync.Mutex
	channels int
	used     int
	closed   bool
}

func NewDevice(backend Backend, sampleRate beep.SampleRate, channels int, logger *zap.Logger) *Device {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Device{
		backend:    backend,
		sampleRate: sampleRate,
		channels:   channels,
		logger:     logger,
	}
}

// Init brings up the speaker output.
func (d *Device) Init() error {
	if err := d.backend.Init(d.sampleRate, bufferLenFor(d.sampleRate)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	return nil
}

// Close stops the output. Channels still open become unusable.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	d.mu.Unlock()
	return d.backend.Close()
}

// Open decodes one audio file fully into memory and claims a playback
// channel for it.
func (d *Device) Open(path string) (*Channel, error) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil, ErrDeviceClosed
	}
	if d.used >= d.channels {
		d.mu.Unlock()
		return nil, ErrNoFreeChannel
	}
	d.used++
	d.mu.Unlock()

	buf, format, err := d.load(path)
	if err != nil {
		d.release()
		return nil, err
	}

	d.logger.Debug("loaded sound",
		zap.String("path", path),
		zap.Int("samples", buf.Len()),
		zap.Int("rate", int(format.SampleRate)))

	return &Channel{dev: d, buf: buf, format: format}, nil
}

func (d *Device) release() {
	d.mu.Lock()
	d.used--
	d.mu.Unlock()
}

// Used reports how many channels are currently claimed.
func (d *Device) Used() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.used
}

func (d *Device) load(path string) (*beep.Buffer, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("failed to open sound file: %w", err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", filepath.Ext(path))
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	buf := beep.NewBuffer(format)
	buf.Append(streamer)
	streamer.Close()

	return buf, format, nil
}
