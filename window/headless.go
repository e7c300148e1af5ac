package window

import "sync"

// HeadlessDisplay is a Display without a window, used in tests and on
// machines without a display server. Keypresses are injected with Press.
type HeadlessDisplay struct {
	keys chan Key
	done chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

var _ Display = (*HeadlessDisplay)(nil)

func NewHeadlessDisplay() *HeadlessDisplay {
	return &HeadlessDisplay{
		keys: make(chan Key, keyBuffer),
		done: make(chan struct{}),
	}
}

func (d *HeadlessDisplay) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.started = true
	return nil
}

func (d *HeadlessDisplay) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopped {
		d.stopped = true
		close(d.done)
	}
	return nil
}

func (d *HeadlessDisplay) Keys() <-chan Key {
	return d.keys
}

func (d *HeadlessDisplay) Done() <-chan struct{} {
	return d.done
}

// Press injects one keypress, as if it had been observed in the window.
func (d *HeadlessDisplay) Press(k Key) {
	select {
	case d.keys <- k:
	case <-d.done:
	}
}
