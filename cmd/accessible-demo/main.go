// Command accessible-demo is a minimal self-voicing program: it opens
// the application window, speaks a prompt, plays the sounds named on the
// command line and waits for a keypress between them.
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/d1nch8g/accessible"
	"github.com/d1nch8g/accessible/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := accessible.Load(
		accessible.WithConfig(cfg),
		accessible.WithLogger(logger),
	); err != nil {
		log.Fatalf("Failed to load toolkit: %v", err)
	}
	defer accessible.Exit()

	if err := accessible.Speak("Demo ready. Press any key to play each sound, escape to quit."); err != nil {
		logger.Warn("speech unavailable", zap.Error(err))
	}

	for _, path := range os.Args[1:] {
		key, err := accessible.Input()
		if err != nil {
			logger.Error("input failed", zap.Error(err))
			return
		}
		if key == "escape" {
			return
		}

		player, err := accessible.NewPlayer(accessible.WorkingPath(path))
		if err != nil {
			logger.Error("failed to load sound", zap.String("path", path), zap.Error(err))
			continue
		}

		if err := accessible.Speak(fmt.Sprintf("Playing %s.", path)); err != nil {
			logger.Warn("speech unavailable", zap.Error(err))
		}
		if err := player.Play(); err != nil {
			logger.Error("playback failed", zap.Error(err))
		}

		key, err = accessible.Input()
		if err != nil {
			player.Close()
			logger.Error("input failed", zap.Error(err))
			return
		}
		player.Close()
		if key == "escape" {
			return
		}
	}

	accessible.Speak("All done. Goodbye.")
	accessible.Pause(2 * time.Second)
}
