//go:build linux

package inputdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/quasilyte/keytone"
)

// EvdevSource reads key events from an evdev device node,
// like /dev/input/event3.
//
// Reading a device usually requires the input group membership.
// The device is not grabbed: the key presses still reach other programs.
type EvdevSource struct {
	Path string

	// Logger is optional.
	Logger *slog.Logger
}

// ReadEvents implements keytone.EventSource.
func (s *EvdevSource) ReadEvents(ctx context.Context, q *keytone.EventQueue) error {
	dev, err := evdev.OpenWithFlags(s.Path, os.O_RDONLY)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}
	if s.Logger != nil {
		name, _ := dev.Name()
		s.Logger.Info("reading input device", "path", s.Path, "name", name)
	}

	// A blocked read is only interrupted by closing the device.
	stop := context.AfterFunc(ctx, func() { dev.Close() })
	defer func() {
		if stop() {
			dev.Close()
		}
	}()

	err = readDevice(dev, func(ev keytone.KeyEvent) error {
		return q.Push(ctx, ev)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("%s: %w", s.Path, err)
	}
	return nil
}

type eventReader interface {
	ReadOne() (*evdev.InputEvent, error)
}

// readDevice reads events from r until EOF and calls fn for every
// key event. Other event types (sync, misc, LEDs) are skipped.
func readDevice(r eventReader, fn func(keytone.KeyEvent) error) error {
	for {
		raw, err := r.ReadOne()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if raw.Type != evdev.EV_KEY {
			continue
		}
		sec, nsec := raw.Time.Unix()
		ev := keytone.KeyEvent{
			Code:       uint16(raw.Code),
			Transition: keytone.TransitionFromValue(raw.Value),
			Time:       time.Unix(sec, nsec),
		}
		if err := fn(ev); err != nil {
			return err
		}
	}
}
