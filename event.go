package keytone

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Transition is a key state change kind.
type Transition int

const (
	// TransitionUnknown is a sentinel value for unrecognized device values.
	// The engines ignore such events.
	TransitionUnknown Transition = iota

	// TransitionUp is emitted when a key is released.
	TransitionUp

	// TransitionDown is emitted when a key is pressed.
	TransitionDown

	// TransitionRepeat is emitted periodically while a key is being held.
	// The engines ignore it: a held key keeps sounding anyway.
	TransitionRepeat
)

// TransitionFromValue decodes the Linux input event value of a key event:
// 0 is a release, 1 is a press and 2 is an autorepeat.
func TransitionFromValue(v int32) Transition {
	switch v {
	case 0:
		return TransitionUp
	case 1:
		return TransitionDown
	case 2:
		return TransitionRepeat
	default:
		return TransitionUnknown
	}
}

func (t Transition) String() string {
	switch t {
	case TransitionUp:
		return "up"
	case TransitionDown:
		return "down"
	case TransitionRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// KeyEvent describes a single key transition.
type KeyEvent struct {
	// Code is a key identifier.
	// The engines map it to a pitch slot as Code mod slots.
	Code uint16

	Transition Transition

	// Time is a moment when the event happened according to its source.
	// It's informational: events are applied in arrival order.
	Time time.Time
}

// EventSource produces key events until it runs out of them,
// fails, or ctx is cancelled.
//
// Implementations should push the events with EventQueue.Push
// and return nil when they're exhausted.
type EventSource interface {
	ReadEvents(ctx context.Context, q *EventQueue) error
}

// EventQueue is a bounded multi-producer key events queue.
//
// Producers never drop events: when the queue is full,
// Push waits for a backoff period and tries again.
type EventQueue struct {
	ch      chan KeyEvent
	backoff time.Duration
	logger  *slog.Logger

	closeOnce sync.Once
}

// EventQueueConfig configures the event queue.
type EventQueueConfig struct {
	// Size is the queue capacity.
	// A zero value means 50.
	Size int

	// Backoff is a pause between the push retries when the queue is full.
	// A zero value means 100ms.
	Backoff time.Duration

	// Logger receives the queue overflow warnings.
	// A nil value means slog.Default().
	Logger *slog.Logger
}

// NewEventQueue allocates an event queue.
func NewEventQueue(config EventQueueConfig) *EventQueue {
	if config.Size <= 0 {
		config.Size = 50
	}
	if config.Backoff <= 0 {
		config.Backoff = 100 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &EventQueue{
		ch:      make(chan KeyEvent, config.Size),
		backoff: config.Backoff,
		logger:  config.Logger,
	}
}

// C returns the consumer side of the queue.
// The channel is closed after Close is called.
func (q *EventQueue) C() <-chan KeyEvent { return q.ch }

// Push adds ev to the queue, retrying with a backoff sleep
// while the queue is full.
// It only fails if ctx is cancelled before the event is queued.
//
// Push must not be called after Close.
func (q *EventQueue) Push(ctx context.Context, ev KeyEvent) error {
	for {
		select {
		case q.ch <- ev:
			return nil
		default:
		}

		q.logger.Warn("event queue is full, retrying",
			slog.Int("code", int(ev.Code)),
			slog.Duration("backoff", q.backoff))

		timer := time.NewTimer(q.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Close marks the end of the event stream.
// It's safe to call Close more than once.
func (q *EventQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.ch)
	})
}

// ErrStop ends the whole event stream when a source returns it
// (or an error wrapping it).
var ErrStop = errors.New("keytone: event stream is stopped")

// RunSources runs every source concurrently, feeding q.
//
// A failed source is logged and ends on its own, the rest keep going.
// Only ErrStop and ctx cancellation stop every source; that error is returned.
// The queue is closed once all of the sources have returned,
// which in turn stops the control loop that consumes it.
func RunSources(ctx context.Context, q *EventQueue, sources ...EventSource) error {
	defer q.Close()

	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			err := src.ReadEvents(ctx, q)
			if err == nil || errors.Is(err, ErrStop) || ctx.Err() != nil {
				return err
			}
			q.logger.Error("event source failed",
				slog.Int("source", i),
				slog.Any("err", err))
			return nil
		})
	}
	return g.Wait()
}

// ScriptedEvent is a key event scheduled relative to the start of a script.
type ScriptedEvent struct {
	Offset time.Duration
	Event  KeyEvent
}

// ScriptSource is an EventSource that replays a fixed list of events.
//
// The events are pushed at their offsets relative to the moment
// ReadEvents is called; they're expected to be sorted by offset.
type ScriptSource struct {
	Events []ScriptedEvent

	// Now is used to timestamp the events.
	// A nil value means time.Now.
	Now func() time.Time
}

func (s *ScriptSource) ReadEvents(ctx context.Context, q *EventQueue) error {
	now := s.Now
	if now == nil {
		now = time.Now
	}
	started := now()
	for _, se := range s.Events {
		if wait := se.Offset - now().Sub(started); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		ev := se.Event
		if ev.Time.IsZero() {
			ev.Time = now()
		}
		if err := q.Push(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}
