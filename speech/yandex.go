package speech

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"sync"

	"github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/metadata"

	ttsv3 "github.com/yandex-cloud/go-genproto/yandex/cloud/ai/tts/v3"

	"github.com/d1nch8g/accessible/sound"
)

const YandexTTSEndpoint = "tts.api.cloud.yandex.net:443"

// pcmChunkSize is the granularity of decoded audio handed to the stream
// player.
const pcmChunkSize = 4096

// YandexConfig configures the Yandex Cloud speech engine.
type YandexConfig struct {
	ApiKey          string
	FolderID        string
	Voice           string  // defaults to "marina"
	Speed           float64 // defaults to 1.0
	Model           string  // defaults to "general"
	FramesPerBuffer int     // defaults to 1024
}

// YandexEngine speaks through the Yandex Cloud v3 synthesizer. The
// service returns MP3 audio which is decoded and played as raw PCM.
// Speak starts playback in the background; a new utterance cancels the
// one still playing.
type YandexEngine struct {
	client   ttsv3.SynthesizerClient
	conn     *grpc.ClientConn
	apiKey   string
	folderID string
	voice    string
	speed    float64
	model    string
	frames   int
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Engine = (*YandexEngine)(nil)

func NewYandexEngine(config YandexConfig, logger *zap.Logger) (*YandexEngine, error) {
	if config.Voice == "" {
		config.Voice = "marina"
	}
	if config.Speed == 0 {
		config.Speed = 1.0
	}
	if config.Model == "" {
		config.Model = "general"
	}
	if config.FramesPerBuffer == 0 {
		config.FramesPerBuffer = 1024
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	creds := credentials.NewTLS(&tls.Config{})
	conn, err := grpc.NewClient(YandexTTSEndpoint, grpc.WithTransportCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to TTS service: %w", err)
	}

	return &YandexEngine{
		client:   ttsv3.NewSynthesizerClient(conn),
		conn:     conn,
		apiKey:   config.ApiKey,
		folderID: config.FolderID,
		voice:    config.Voice,
		speed:    config.Speed,
		model:    config.Model,
		frames:   config.FramesPerBuffer,
		logger:   logger,
	}, nil
}

func (e *YandexEngine) Name() string {
	return "yandex"
}

// Speak cancels the utterance in progress and synthesizes text in the
// background.
func (e *YandexEngine) Speak(ctx context.Context, text string) error {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer cancel()
		if err := e.speak(ctx, text); err != nil && ctx.Err() == nil {
			e.logger.Warn("speech synthesis failed", zap.Error(err))
		}
	}()
	return nil
}

// Stop cancels the utterance in progress, if any.
func (e *YandexEngine) Stop() error {
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.mu.Unlock()
	e.wg.Wait()
	return nil
}

func (e *YandexEngine) Close() error {
	if err := e.Stop(); err != nil {
		return err
	}
	return e.conn.Close()
}

func (e *YandexEngine) speak(ctx context.Context, text string) error {
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Api-Key "+e.apiKey)
	ctx = metadata.AppendToOutgoingContext(ctx, "x-folder-id", e.folderID)

	stream, err := e.client.UtteranceSynthesis(ctx, e.buildRequest(text))
	if err != nil {
		return fmt.Errorf("failed to start synthesis: %w", err)
	}

	// The service streams an MP3 file in chunks; pipe it straight into
	// the decoder so playback starts before synthesis finishes.
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(receiveAudio(stream, pw))
	}()

	dec, err := mp3.NewDecoder(pr)
	if err != nil {
		return fmt.Errorf("failed to decode synthesized audio: %w", err)
	}

	player := sound.NewStreamPlayer(sound.StreamConfig{
		SampleRate:      float64(dec.SampleRate()),
		FramesPerBuffer: e.frames,
		OutputChannels:  2, // go-mp3 always emits 16-bit stereo
	}, e.logger)
	if err := player.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize playback: %w", err)
	}
	defer player.Terminate()
	if err := player.Open(); err != nil {
		return fmt.Errorf("failed to open playback stream: %w", err)
	}
	defer player.Close()

	pcm := make(chan []byte, 16)
	go func() {
		defer close(pcm)
		for {
			buf := make([]byte, pcmChunkSize)
			n, err := dec.Read(buf)
			if n > 0 {
				select {
				case pcm <- buf[:n]:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()

	if err := player.PlayStream(ctx, pcm); err != nil && ctx.Err() == nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}

func receiveAudio(stream ttsv3.Synthesizer_UtteranceSynthesisClient, w io.Writer) error {
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to receive audio data: %w", err)
		}
		if chunk := resp.GetAudioChunk(); chunk != nil {
			if _, err := w.Write(chunk.GetData()); err != nil {
				return err
			}
		}
	}
}

func (e *YandexEngine) buildRequest(text string) *ttsv3.UtteranceSynthesisRequest {
	req := &ttsv3.UtteranceSynthesisRequest{}
	req.SetModel(e.model)
	req.SetText(text)

	voiceHint := &ttsv3.Hints{}
	voiceHint.SetVoice(e.voice)
	speedHint := &ttsv3.Hints{}
	speedHint.SetSpeed(e.speed)
	req.SetHints([]*ttsv3.Hints{voiceHint, speedHint})

	containerAudio := &ttsv3.ContainerAudio{}
	containerAudio.SetContainerAudioType(ttsv3.ContainerAudio_MP3)
	audioSpec := &ttsv3.AudioFormatOptions{}
	audioSpec.SetContainerAudio(containerAudio)
	req.SetOutputAudioSpec(audioSpec)

	req.SetLoudnessNormalizationType(ttsv3.UtteranceSynthesisRequest_LUFS)
	return req
}
