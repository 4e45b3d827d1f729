// Package inputdev implements key event sources for the real-time pipeline:
// Linux input devices and a raw mode terminal.
package inputdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/term"

	"github.com/quasilyte/keytone"
	"github.com/quasilyte/keytone/internal/keydb"
)

// ErrQuit is returned by TermSource when the user asks to exit.
// It stops every other source too.
var ErrQuit = fmt.Errorf("inputdev: quit requested: %w", keytone.ErrStop)

const (
	ctrlC  = 0x03
	ctrlD  = 0x04
	escape = 0x1b
)

// escapeTimeout separates a lone Esc stroke from the start
// of an escape sequence (arrows, function keys, Alt+key).
const escapeTimeout = 50 * time.Millisecond

// escState tracks an escape sequence that is being skipped.
type escState int

const (
	escNone  escState = iota
	escStart          // after ESC
	escCSI            // after ESC [
	escSS3            // after ESC O
)

// TermSource turns terminal key strokes into key events.
//
// Terminals only report characters, there are no key releases.
// Every stroke is a key press that is released after Hold;
// a stroke of a key that is still held (usually an autorepeat)
// is reported as a repeat and extends the hold.
//
// Ctrl-C, Ctrl-D and a lone Esc stop the source with ErrQuit.
// Escape sequences sent by the arrows and function keys are skipped.
type TermSource struct {
	// In is a terminal to read from.
	// A nil value means os.Stdin.
	In *os.File

	// Hold is a synthesized key press duration.
	// A zero value means 200ms.
	Hold time.Duration

	// Logger is optional.
	Logger *slog.Logger
}

// ReadEvents implements keytone.EventSource.
// The terminal is switched to the raw mode until the source returns.
func (s *TermSource) ReadEvents(ctx context.Context, q *keytone.EventQueue) error {
	in := s.In
	if in == nil {
		in = os.Stdin
	}
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("set raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	} else if s.Logger != nil {
		s.Logger.Warn("input is not a terminal, reading it as is")
	}
	return s.readKeys(ctx, in, q)
}

func (s *TermSource) holdTime() time.Duration {
	if s.Hold <= 0 {
		return 200 * time.Millisecond
	}
	return s.Hold
}

func (s *TermSource) readKeys(ctx context.Context, r io.Reader, q *keytone.EventQueue) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The reader goroutine may outlive this call while it's
	// blocked on a read; it exits after the next stroke.
	keys := make(chan byte)
	readErr := make(chan error, 1)
	go func() {
		buf := make([]byte, 64)
		for {
			n, err := r.Read(buf)
			for _, b := range buf[:n] {
				select {
				case keys <- b:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	hold := s.holdTime()
	held := make(map[uint16]time.Time)
	ticker := time.NewTicker(hold / 4)
	defer ticker.Stop()

	esc := escNone
	var escTimer <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-readErr:
			if err := s.releaseAll(ctx, q, held); err != nil {
				return err
			}
			if esc == escStart {
				return ErrQuit
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err

		case <-escTimer:
			escTimer = nil
			if esc != escStart {
				continue
			}
			if err := s.releaseAll(ctx, q, held); err != nil {
				return err
			}
			return ErrQuit

		case now := <-ticker.C:
			for code, deadline := range held {
				if now.Before(deadline) {
					continue
				}
				delete(held, code)
				if err := push(ctx, q, code, keytone.TransitionUp); err != nil {
					return err
				}
			}

		case b := <-keys:
			if esc != escNone {
				esc = skipEscape(esc, b)
				continue
			}
			switch b {
			case ctrlC, ctrlD:
				if err := s.releaseAll(ctx, q, held); err != nil {
					return err
				}
				return ErrQuit
			case escape:
				esc = escStart
				escTimer = time.After(escapeTimeout)
				continue
			}
			code, ok := keydb.Default.Code(rune(b))
			if !ok {
				continue
			}
			transition := keytone.TransitionDown
			if _, ok := held[code]; ok {
				transition = keytone.TransitionRepeat
			}
			held[code] = time.Now().Add(hold)
			if err := push(ctx, q, code, transition); err != nil {
				return err
			}
		}
	}
}

// skipEscape consumes one byte of an escape sequence
// and returns the next state.
func skipEscape(state escState, b byte) escState {
	switch state {
	case escStart:
		switch b {
		case '[':
			return escCSI
		case 'O':
			return escSS3
		}
		// Alt+key: the key itself is consumed.
		return escNone
	case escCSI:
		// Parameter and intermediate bytes go on until a final byte.
		if b >= 0x40 && b <= 0x7e {
			return escNone
		}
		return escCSI
	}
	return escNone
}

func (s *TermSource) releaseAll(ctx context.Context, q *keytone.EventQueue, held map[uint16]time.Time) error {
	for code := range held {
		delete(held, code)
		if err := push(ctx, q, code, keytone.TransitionUp); err != nil {
			return err
		}
	}
	return nil
}

func push(ctx context.Context, q *keytone.EventQueue, code uint16, transition keytone.Transition) error {
	return q.Push(ctx, keytone.KeyEvent{
		Code:       code,
		Transition: transition,
		Time:       time.Now(),
	})
}
