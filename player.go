package accessible

import "github.com/d1nch8g/accessible/sound"

// Player controls playback of one loaded audio file on its own channel.
// Create it with NewPlayer and release the channel with Close.
type Player struct {
	path string
	ch   *sound.Channel
}

// NewPlayer loads the audio file at path (wav, mp3, ogg or flac) fully
// into memory and claims one playback channel for it.
func NewPlayer(path string) (*Player, error) {
	tk, err := get()
	if err != nil {
		return nil, err
	}
	ch, err := tk.device.Open(path)
	if err != nil {
		return nil, err
	}
	return &Player{path: path, ch: ch}, nil
}

// Path returns the file this player was loaded from.
func (p *Player) Path() string {
	return p.path
}

// Play starts playback from the beginning, or resumes it when paused.
func (p *Player) Play() error {
	return p.ch.Play()
}

// Pause suspends playback. The channel stays busy until Stop or the
// sound finishes after resuming.
func (p *Player) Pause() error {
	return p.ch.Pause()
}

// Stop halts playback.
func (p *Player) Stop() error {
	return p.ch.Stop()
}

// SetVolume sets playback volume as a percentage of the sound's
// original gain, where 100 is unchanged and 0 is silent.
func (p *Player) SetVolume(percent float64) error {
	return p.ch.SetVolume(percent)
}

// Playing reports whether the player's channel is busy. A paused channel
// counts as busy.
func (p *Player) Playing() bool {
	return p.ch.Playing()
}

// Close stops playback and releases the channel.
func (p *Player) Close() error {
	return p.ch.Close()
}
