package window

import (
	"image/color"
	"sync"
	"sync/atomic"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"
)

// keyBuffer bounds how many unread keypresses are kept before new ones
// are dropped.
const keyBuffer = 64

// specialKeys are the non-printable keys reported by name.
var specialKeys = map[ebiten.Key]Key{
	ebiten.KeyEnter:       {Rune: '\n', Name: "return"},
	ebiten.KeyNumpadEnter: {Rune: '\n', Name: "return"},
	ebiten.KeyTab:         {Rune: '\t', Name: "tab"},
	ebiten.KeyBackspace:   {Name: "backspace"},
	ebiten.KeyEscape:      {Name: "escape"},
	ebiten.KeyArrowUp:     {Name: "up"},
	ebiten.KeyArrowDown:   {Name: "down"},
	ebiten.KeyArrowLeft:   {Name: "left"},
	ebiten.KeyArrowRight:  {Name: "right"},
	ebiten.KeyHome:        {Name: "home"},
	ebiten.KeyEnd:         {Name: "end"},
	ebiten.KeyDelete:      {Name: "delete"},
}

// EbitenDisplay is the hardware-backed Display. It runs the ebiten game
// loop on its own goroutine and translates key events into the Keys
// channel.
type EbitenDisplay struct {
	title  string
	width  int
	height int
	logger *zap.Logger

	keys      chan Key
	ready     chan struct{}
	done      chan struct{}
	readyOnce sync.Once
	doneOnce  sync.Once
	quit      atomic.Bool
	inputBuf  []rune
}

var _ Display = (*EbitenDisplay)(nil)

func NewEbitenDisplay(title string, width, height int, logger *zap.Logger) *EbitenDisplay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EbitenDisplay{
		title:  title,
		width:  width,
		height: height,
		logger: logger,
		keys:   make(chan Key, keyBuffer),
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
	}
}

func (d *EbitenDisplay) Start() error {
	ebiten.SetWindowSize(d.width, d.height)
	ebiten.SetWindowTitle(d.title)
	ebiten.SetRunnableOnUnfocused(true)

	go func() {
		defer d.doneOnce.Do(func() { close(d.done) })
		if err := ebiten.RunGame(d); err != nil {
			d.logger.Error("window loop exited", zap.Error(err))
		}
	}()

	// Wait for the first Update so callers can rely on the event pump
	// being live.
	select {
	case <-d.ready:
	case <-d.done:
	}
	return nil
}

func (d *EbitenDisplay) Stop() error {
	d.quit.Store(true)
	return nil
}

func (d *EbitenDisplay) Keys() <-chan Key {
	return d.keys
}

func (d *EbitenDisplay) Done() <-chan struct{} {
	return d.done
}

// Update implements ebiten.Game.
func (d *EbitenDisplay) Update() error {
	d.readyOnce.Do(func() { close(d.ready) })
	if d.quit.Load() {
		return ebiten.Termination
	}

	d.inputBuf = ebiten.AppendInputChars(d.inputBuf[:0])
	for _, r := range d.inputBuf {
		d.emit(Key{Rune: r, Name: string(r)})
	}
	for key, k := range specialKeys {
		if inpututil.IsKeyJustPressed(key) {
			d.emit(k)
		}
	}
	return nil
}

// Draw implements ebiten.Game.
func (d *EbitenDisplay) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff})
}

// Layout implements ebiten.Game.
func (d *EbitenDisplay) Layout(outsideWidth, outsideHeight int) (int, int) {
	return d.width, d.height
}

func (d *EbitenDisplay) emit(k Key) {
	select {
	case d.keys <- k:
	default:
		d.logger.Debug("key buffer full, dropping key", zap.String("key", k.String()))
	}
}
