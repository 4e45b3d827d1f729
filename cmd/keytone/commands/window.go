package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/quasilyte/keytone"
	"github.com/quasilyte/keytone/internal/keydb"
)

// windowKeys maps the window keyboard keys to the layout characters.
var windowKeys = map[ebiten.Key]rune{
	ebiten.KeyZ: 'z', ebiten.KeyS: 's', ebiten.KeyX: 'x', ebiten.KeyD: 'd',
	ebiten.KeyC: 'c', ebiten.KeyV: 'v', ebiten.KeyG: 'g', ebiten.KeyB: 'b',
	ebiten.KeyH: 'h', ebiten.KeyN: 'n', ebiten.KeyJ: 'j', ebiten.KeyM: 'm',
	ebiten.KeyComma: ',', ebiten.KeyL: 'l', ebiten.KeyPeriod: '.',
	ebiten.KeySemicolon: ';', ebiten.KeySlash: '/',

	ebiten.KeyQ: 'q', ebiten.KeyDigit2: '2', ebiten.KeyW: 'w', ebiten.KeyDigit3: '3',
	ebiten.KeyE: 'e', ebiten.KeyR: 'r', ebiten.KeyDigit5: '5', ebiten.KeyT: 't',
	ebiten.KeyDigit6: '6', ebiten.KeyY: 'y', ebiten.KeyDigit7: '7', ebiten.KeyU: 'u',
	ebiten.KeyI: 'i', ebiten.KeyDigit9: '9', ebiten.KeyO: 'o', ebiten.KeyDigit0: '0',
	ebiten.KeyP: 'p',
}

func windowKeyCode(k ebiten.Key) (uint16, bool) {
	r, ok := windowKeys[k]
	if !ok {
		return 0, false
	}
	return keydb.Default.Code(r)
}

// windowSource is a key event source backed by a game window.
//
// The window runs on the main goroutine (see run), while ReadEvents
// forwards the collected events to the queue from the sources group.
type windowSource struct {
	logger *slog.Logger
	keys   chan keytone.KeyEvent
	closed chan struct{}

	src      *keytone.Source
	ctx      context.Context
	pressed  []ebiten.Key
	released []ebiten.Key

	// backlog holds the events that didn't fit into keys yet.
	backlog []keytone.KeyEvent

	lastKey   string
	numEvents int
}

func newWindowSource(logger *slog.Logger) *windowSource {
	return &windowSource{
		logger: logger,
		keys:   make(chan keytone.KeyEvent, 64),
		closed: make(chan struct{}),
	}
}

func (w *windowSource) ReadEvents(ctx context.Context, q *keytone.EventQueue) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.closed:
			return nil
		case ev := <-w.keys:
			if err := q.Push(ctx, ev); err != nil {
				return err
			}
		}
	}
}

// run opens the window and blocks until it's closed or ctx is cancelled.
func (w *windowSource) run(ctx context.Context, src *keytone.Source) error {
	defer close(w.closed)
	w.ctx = ctx
	w.src = src
	ebiten.SetWindowSize(480, 160)
	ebiten.SetWindowTitle("keytone")
	return ebiten.RunGame(w)
}

func (w *windowSource) Update() error {
	if w.ctx.Err() != nil || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	w.pressed = inpututil.AppendJustPressedKeys(w.pressed[:0])
	w.released = inpututil.AppendJustReleasedKeys(w.released[:0])
	now := time.Now()
	for _, k := range w.pressed {
		w.enqueue(k, keytone.TransitionDown, now)
	}
	for _, k := range w.released {
		w.enqueue(k, keytone.TransitionUp, now)
	}
	w.flush()
	return nil
}

func (w *windowSource) enqueue(k ebiten.Key, transition keytone.Transition, now time.Time) {
	code, ok := windowKeyCode(k)
	if !ok {
		return
	}
	w.backlog = append(w.backlog, keytone.KeyEvent{Code: code, Transition: transition, Time: now})
	w.lastKey = k.String()
	w.numEvents++
}

// flush moves the backlog into keys without blocking the game loop.
// Whatever doesn't fit stays in the backlog until the next tick.
func (w *windowSource) flush() {
	sent := 0
loop:
	for _, ev := range w.backlog {
		select {
		case w.keys <- ev:
			sent++
		default:
			break loop
		}
	}
	if sent == 0 && len(w.backlog) != 0 {
		w.logger.Debug("window key buffer is full, keeping the events", slog.Int("backlog", len(w.backlog)))
		return
	}
	n := copy(w.backlog, w.backlog[sent:])
	w.backlog = w.backlog[:n]
}

func (w *windowSource) Draw(screen *ebiten.Image) {
	ebitenutil.DebugPrint(screen, fmt.Sprintf(
		"Play with Z-/ and Q-P rows, Esc to exit\nlast key: %s\nevents: %d\nunderruns: %d",
		w.lastKey, w.numEvents, w.src.Underruns()))
}

func (w *windowSource) Layout(outsideWidth, outsideHeight int) (int, int) {
	return 240, 80
}
