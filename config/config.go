package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a value unset.
const (
	DefaultChannels        = 16
	DefaultWindowTitle     = "Accessible Game"
	DefaultWindowWidth     = 400
	DefaultWindowHeight    = 200
	DefaultSpeechEngine    = "espeak"
	DefaultEspeakBinary    = "espeak-ng"
	DefaultEspeakRate      = 200
	DefaultSampleRate      = 44100
	DefaultFramesPerBuffer = 1024
)

type Config struct {
	Channels     int
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Speech       SpeechConfig
}

// SpeechConfig selects and configures the speech engine.
// Engine is one of "espeak", "yandex" or "off".
type SpeechConfig struct {
	Engine          string
	EspeakBinary    string
	EspeakVoice     string
	EspeakRate      int
	YandexAPIKey    string
	YandexFolderID  string
	SampleRate      float64
	FramesPerBuffer int
}

// LoadConfig reads configuration from a .env file (if present) and the
// process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	cfg := &Config{
		Channels:     DefaultChannels,
		WindowTitle:  DefaultWindowTitle,
		WindowWidth:  DefaultWindowWidth,
		WindowHeight: DefaultWindowHeight,
		Speech: SpeechConfig{
			Engine:          DefaultSpeechEngine,
			EspeakBinary:    DefaultEspeakBinary,
			EspeakRate:      DefaultEspeakRate,
			YandexAPIKey:    os.Getenv("YANDEX_API_KEY"),
			YandexFolderID:  os.Getenv("YANDEX_FOLDER_ID"),
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
		},
	}

	if v := os.Getenv("ACCESSIBLE_WINDOW_TITLE"); v != "" {
		cfg.WindowTitle = v
	}
	if v := os.Getenv("ACCESSIBLE_SPEECH_ENGINE"); v != "" {
		cfg.Speech.Engine = v
	}
	if v := os.Getenv("ESPEAK_BINARY"); v != "" {
		cfg.Speech.EspeakBinary = v
	}
	if v := os.Getenv("ESPEAK_VOICE"); v != "" {
		cfg.Speech.EspeakVoice = v
	}

	var err error
	if cfg.Channels, err = intEnv("ACCESSIBLE_CHANNELS", cfg.Channels); err != nil {
		return nil, err
	}
	if cfg.WindowWidth, err = intEnv("ACCESSIBLE_WINDOW_WIDTH", cfg.WindowWidth); err != nil {
		return nil, err
	}
	if cfg.WindowHeight, err = intEnv("ACCESSIBLE_WINDOW_HEIGHT", cfg.WindowHeight); err != nil {
		return nil, err
	}
	if cfg.Speech.EspeakRate, err = intEnv("ESPEAK_RATE", cfg.Speech.EspeakRate); err != nil {
		return nil, err
	}
	if cfg.Speech.FramesPerBuffer, err = intEnv("ACCESSIBLE_FRAMES_PER_BUFFER", cfg.Speech.FramesPerBuffer); err != nil {
		return nil, err
	}
	if v := os.Getenv("ACCESSIBLE_SAMPLE_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ACCESSIBLE_SAMPLE_RATE %q: %w", v, err)
		}
		cfg.Speech.SampleRate = rate
	}

	switch cfg.Speech.Engine {
	case "espeak", "yandex", "off":
	default:
		return nil, fmt.Errorf("unknown speech engine %q", cfg.Speech.Engine)
	}

	return cfg, nil
}

func intEnv(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}
