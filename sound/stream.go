package sound

import (
	"context"
	"encoding/binary"
	"errors"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// StreamConfig configures raw PCM playback for the speech path.
type StreamConfig struct {
	SampleRate      float64
	FramesPerBuffer int
	OutputChannels  int
}

func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		SampleRate:      44100,
		FramesPerBuffer: 1024,
		OutputChannels:  1,
	}
}

// StreamPlayer plays 16-bit little-endian PCM received over a channel
// through a portaudio output stream.
type StreamPlayer struct {
	stream      *portaudio.Stream
	audioBuffer []int16
	pending     []int16
	config      StreamConfig
	logger      *zap.Logger
}

func NewStreamPlayer(config StreamConfig, logger *zap.Logger) *StreamPlayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StreamPlayer{
		config:      config,
		audioBuffer: make([]int16, config.FramesPerBuffer*config.OutputChannels),
		logger:      logger,
	}
}

func (p *StreamPlayer) Initialize() error {
	return portaudio.Initialize()
}

func (p *StreamPlayer) Terminate() {
	portaudio.Terminate()
}

func (p *StreamPlayer) Open() error {
	stream, err := portaudio.OpenDefaultStream(
		0,
		p.config.OutputChannels,
		p.config.SampleRate,
		p.config.FramesPerBuffer,
		p.audioBuffer,
	)
	if err != nil {
		return err
	}
	p.stream = stream
	return nil
}

func (p *StreamPlayer) Close() error {
	if p.stream != nil {
		return p.stream.Close()
	}
	return nil
}

// PlayStream writes audio from the channel until it closes or the
// context is cancelled.
func (p *StreamPlayer) PlayStream(ctx context.Context, audioData <-chan []byte) error {
	if p.stream == nil {
		return errors.New("stream not opened")
	}

	if err := p.stream.Start(); err != nil {
		return err
	}
	defer p.stream.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case audioBytes, ok := <-audioData:
			if !ok {
				return p.drain()
			}
			p.pending = append(p.pending, bytesToSamples(audioBytes)...)
			if err := p.writeFullBuffers(); err != nil {
				p.logger.Warn("error writing audio", zap.Error(err))
			}
		}
	}
}

// writeFullBuffers pushes whole portaudio buffers out of the pending
// sample queue.
func (p *StreamPlayer) writeFullBuffers() error {
	bufferLen := len(p.audioBuffer)
	for len(p.pending) >= bufferLen {
		copy(p.audioBuffer, p.pending[:bufferLen])
		p.pending = p.pending[bufferLen:]
		if err := p.stream.Write(); err != nil {
			return err
		}
	}
	return nil
}

// drain plays out whatever is left, zero-padding the final buffer.
func (p *StreamPlayer) drain() error {
	if err := p.writeFullBuffers(); err != nil {
		return err
	}
	if len(p.pending) == 0 {
		return nil
	}
	n := copy(p.audioBuffer, p.pending)
	for i := n; i < len(p.audioBuffer); i++ {
		p.audioBuffer[i] = 0
	}
	p.pending = p.pending[:0]
	return p.stream.Write()
}

func bytesToSamples(audioBytes []byte) []int16 {
	samples := make([]int16, len(audioBytes)/2)
	for i := 0; i < len(samples); i++ {
		samples[i] = int16(binary.LittleEndian.Uint16(audioBytes[i*2 : i*2+2]))
	}
	return samples
}
