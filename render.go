package keytone

import (
	"errors"
	"time"
)

// RenderConfig configures an offline Render call.
type RenderConfig struct {
	SampleRate int

	// Tail is the extra time rendered after the last event,
	// so the releases have a chance to fade out.
	Tail time.Duration
}

// Render plays the events through engine without real-time constraints
// and returns the produced samples.
//
// Time advances one frame at a time: the events with an offset at or
// before the frame start are applied, then the frame is generated.
// This is the same event-to-frame granularity the real-time control
// loop has, but deterministic.
//
// The events must be sorted by offset.
func Render(engine Engine, events []ScriptedEvent, config RenderConfig) ([]float32, error) {
	if config.SampleRate <= 0 {
		return nil, errors.New("keytone: render sample rate must be positive")
	}
	frameSize := engine.FrameSize()
	if frameSize <= 0 {
		return nil, errors.New("keytone: render frame size must be positive")
	}

	var end time.Duration
	for _, se := range events {
		if se.Offset > end {
			end = se.Offset
		}
	}
	end += config.Tail

	totalSamples := samplesInDuration(end, config.SampleRate)
	out := make([]float32, 0, totalSamples+frameSize)

	// Frames are generated until the end time is covered and every
	// event got its frame, even one that lands past the end.
	next := 0
	for i := 0; next < len(events) || i*frameSize < totalSamples; i++ {
		now := frameDuration(i*frameSize, config.SampleRate)
		for next < len(events) && events[next].Offset <= now {
			ev := events[next].Event
			if ev.Transition != TransitionUnknown {
				engine.HandleKey(ev)
			}
			next++
		}
		frame, ok := engine.NextFrame()
		if !ok {
			out = append(out, make([]float32, frameSize)...)
			continue
		}
		out = append(out, frame...)
	}

	return out, nil
}
