//go:build !linux

package inputdev

import (
	"context"
	"errors"
	"log/slog"

	"github.com/quasilyte/keytone"
)

// EvdevSource reads key events from an evdev device node.
// It's only available on Linux.
type EvdevSource struct {
	Path string

	// Logger is optional.
	Logger *slog.Logger
}

// ReadEvents implements keytone.EventSource.
func (s *EvdevSource) ReadEvents(ctx context.Context, q *keytone.EventQueue) error {
	return errors.New("inputdev: evdev devices are only supported on Linux")
}
