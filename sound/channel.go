package sound

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

// playback tracks one pass over the channel's buffer. The done flag is
// flipped lock-free from the mixer goroutine when the streamer drains.
type playback struct {
	ctrl *beep.Ctrl
	vol  *effects.Volume
	done atomic.Bool
}

// Channel is one claimed playback slot holding a loaded sound.
//
// A channel is busy while its sound is playing or paused. Pause is only
// valid while playing; Stop is valid while busy; Play restarts a busy
// channel from the beginning unless it is paused, in which case it
// resumes.
type Channel struct {
	dev    *Device
	buf    *beep.Buffer
	format beep.Format

	mu     sync.Mutex
	pb     *playback
	paused bool
	gain   float64
	silent bool
	closed bool
}

// Play starts the sound from the beginning, or resumes it when paused.
func (c *Channel) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}

	if c.paused && c.busy() {
		c.dev.backend.Lock()
		c.pb.ctrl.Paused = false
		c.dev.backend.Unlock()
		c.paused = false
		return nil
	}

	c.stopCurrent()

	streamer := beep.Streamer(c.buf.Streamer(0, c.buf.Len()))
	if c.format.SampleRate != c.dev.sampleRate {
		streamer = beep.Resample(resampleQuality, c.format.SampleRate, c.dev.sampleRate, streamer)
	}

	pb := &playback{}
	pb.ctrl = &beep.Ctrl{
		Streamer: beep.Seq(streamer, beep.Callback(func() { pb.done.Store(true) })),
	}
	pb.vol = &effects.Volume{
		Streamer: pb.ctrl,
		Base:     2,
		Volume:   c.gain,
		Silent:   c.silent,
	}

	c.pb = pb
	c.paused = false
	c.dev.backend.Play(pb.vol)
	return nil
}

// Pause suspends playback. The channel stays busy.
func (c *Channel) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if !c.busy() || c.paused {
		return ErrNotPlaying
	}
	c.dev.backend.Lock()
	c.pb.ctrl.Paused = true
	c.dev.backend.Unlock()
	c.paused = true
	return nil
}

// Stop halts playback and frees the mixer slot.
func (c *Channel) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}
	if !c.busy() {
		return ErrNotPlaying
	}
	c.stopCurrent()
	return nil
}

// Playing reports whether the channel is busy, counting paused playback
// as busy.
func (c *Channel) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && c.busy()
}

// SetVolume scales the channel to a percentage of the sound's original
// gain. 100 is unchanged, 0 is silent.
func (c *Channel) SetVolume(percent float64) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume percentage must be between 0 and 100, got %v", percent)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrChannelClosed
	}

	c.silent = percent == 0
	if !c.silent {
		c.gain = math.Log2(percent / 100)
	}
	if c.pb != nil {
		c.dev.backend.Lock()
		c.pb.vol.Volume = c.gain
		c.pb.vol.Silent = c.silent
		c.dev.backend.Unlock()
	}
	return nil
}

// Close stops any playback and releases the channel slot.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.stopCurrent()
	c.closed = true
	c.dev.release()
	return nil
}

// busy and stopCurrent require c.mu to be held.

func (c *Channel) busy() bool {
	return c.pb != nil && !c.pb.done.Load()
}

func (c *Channel) stopCurrent() {
	if c.pb == nil {
		return
	}
	c.dev.backend.Lock()
	c.pb.ctrl.Streamer = nil
	c.dev.backend.Unlock()
	c.pb.done.Store(true)
	c.pb = nil
	c.paused = false
}
