package window

// Key is one observed keypress.
type Key struct {
	// Rune is the printable character produced by the key, or 0 when the
	// key has no character representation.
	Rune rune
	// Name identifies non-printable keys ("escape", "up", ...).
	Name string
}

// String returns the character for printable keys and the key name
// otherwise.
func (k Key) String() string {
	if k.Rune != 0 {
		return string(k.Rune)
	}
	return k.Name
}

// Display defines the interface for the application window and its
// keyboard event source.
type Display interface {
	// Start opens the window and begins pumping events. It returns once
	// the event loop is running.
	Start() error

	// Stop requests the window to close.
	Stop() error

	// Keys returns the stream of observed keypresses.
	Keys() <-chan Key

	// Done is closed once the window has closed, whether through Stop or
	// the user closing it.
	Done() <-chan struct{}
}
