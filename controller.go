package keytone

import (
	"context"
	"log/slog"
)

// ControllerConfig configures the mixer control loop.
type ControllerConfig struct {
	// QueueSize is the capacity of the ready frames queue.
	// A zero value means 4.
	QueueSize int

	// Prefill is the number of frames generated before the
	// loop starts waiting for events. It's the initial output latency.
	// It should be less than QueueSize: the source asks for a new frame
	// right before taking one from the queue, and a request that finds
	// the queue full is skipped.
	// A zero value means 2; it's clamped to QueueSize.
	Prefill int

	// Source configures the output side.
	Source SourceConfig

	// Logger is used to report the loop conditions.
	// A nil value means slog.Default().
	Logger *slog.Logger
}

// Controller is the mixer control loop.
//
// It owns the engine: key events and "frame consumed"
// notifications from the Source are merged into one stream and
// handled one by one, so the mixer state is never mutated concurrently.
//
// The only state shared with the audio thread are the two bounded
// queues: ready frames (controller -> source) and done
// notifications (source -> controller).
type Controller struct {
	engine Engine
	logger *slog.Logger

	frames chan []float32
	done   chan struct{}

	prefill int
	source  *Source
}

// NewController creates a control loop for engine along with
// the Source that plays its frames.
// It panics if the engine frame size is not positive.
func NewController(engine Engine, config ControllerConfig) *Controller {
	if engine.FrameSize() <= 0 {
		panic("keytone: engine frame size must be positive")
	}
	if config.QueueSize <= 0 {
		config.QueueSize = 4
	}
	if config.Prefill <= 0 {
		config.Prefill = 2
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	c := &Controller{
		engine:  engine,
		logger:  config.Logger,
		frames:  make(chan []float32, config.QueueSize),
		done:    make(chan struct{}, config.QueueSize),
		prefill: clamp(config.Prefill, 1, config.QueueSize),
	}
	c.source = newSource(c.frames, c.done, engine.FrameSize(), config.Source)
	return c
}

// Source returns the real-time side of the pipeline.
func (c *Controller) Source() *Source { return c.source }

// Run executes the control loop until the events channel is closed
// or ctx is cancelled. A closed events channel is a normal shutdown
// and results in a nil error.
//
// When Run returns, the frames queue is closed; the Source
// keeps playing silence after that.
//
// Run must be called at most once.
func (c *Controller) Run(ctx context.Context, events <-chan KeyEvent) error {
	defer close(c.frames)

	for i := 0; i < c.prefill; i++ {
		c.deliverFrame()
	}

	done := (<-chan struct{})(c.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				c.logger.Debug("event stream is closed, stopping the control loop")
				return nil
			}
			c.handleKey(ev)

		case _, ok := <-done:
			if !ok {
				// Key events are still applied to keep the
				// mixer state consistent, but nobody will play the frames.
				c.logger.Warn("audio consumer is gone, frames are no longer generated")
				done = nil
				continue
			}
			c.deliverFrame()
		}
	}
}

func (c *Controller) handleKey(ev KeyEvent) {
	if ev.Transition == TransitionUnknown {
		c.logger.Debug("ignoring unknown key transition", slog.Int("code", int(ev.Code)))
		return
	}
	c.engine.HandleKey(ev)
}

func (c *Controller) deliverFrame() {
	// Only this goroutine sends to frames, so the queue
	// can't become full between this check and the send below.
	if len(c.frames) == cap(c.frames) {
		c.logger.Debug("frame queue is full, skipping generation")
		return
	}
	frame, ok := c.engine.NextFrame()
	if !ok {
		return
	}
	select {
	case c.frames <- frame:
	default:
		c.logger.Error("can't deliver a frame, discarding it")
	}
}
