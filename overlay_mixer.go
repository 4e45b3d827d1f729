package keytone

import (
	"fmt"
)

// OverlayMixer plays one-shot precomputed clips.
//
// Every pushed clip is summed into a queue of future frames,
// so any number of overlapping clips mix correctly without
// tracking them individually. The frame queue only grows as
// far as the longest clip in flight.
//
// OverlayMixer is not safe for concurrent use.
type OverlayMixer struct {
	bank      [][]float32
	frameSize int

	// next[i] holds the output samples [i*frameSize, (i+1)*frameSize)
	// counting from the next frame to be generated.
	next [][]float32
}

// NewOverlayMixer creates a mixer for the given sound bank.
// The bank is not copied and must not be modified afterwards.
func NewOverlayMixer(bank [][]float32, frameSize int) *OverlayMixer {
	if frameSize <= 0 {
		panic("keytone: overlay frame size must be positive")
	}
	return &OverlayMixer{
		bank:      bank,
		frameSize: frameSize,
	}
}

// Slots returns the sound bank size.
func (m *OverlayMixer) Slots() int { return len(m.bank) }

// FrameSize returns the generated frames length.
func (m *OverlayMixer) FrameSize() int { return m.frameSize }

// Pending returns the number of frames that are already scheduled.
func (m *OverlayMixer) Pending() int { return len(m.next) }

// PushClip schedules the bank clip id to start with the next frame.
func (m *OverlayMixer) PushClip(id int) error {
	if id < 0 || id >= len(m.bank) {
		return fmt.Errorf("keytone: clip %d is not in the sound bank (size=%d)", id, len(m.bank))
	}
	m.PushSamples(m.bank[id])
	return nil
}

// PushSamples schedules an ad-hoc clip to start with the next frame.
// The clip is copied into the frame queue, so the caller may reuse it.
func (m *OverlayMixer) PushSamples(clip []float32) {
	for frameIndex := 0; len(clip) > 0; frameIndex++ {
		window := clip
		if len(window) > m.frameSize {
			window = window[:m.frameSize]
		}
		clip = clip[len(window):]

		for frameIndex >= len(m.next) {
			m.next = append(m.next, make([]float32, m.frameSize))
		}
		frame := m.next[frameIndex]
		for i, v := range window {
			frame[i] += v
		}
	}
}

// GenerateFrame pops the next scheduled frame.
// When nothing is scheduled, it returns false and the caller
// should play silence instead.
func (m *OverlayMixer) GenerateFrame() ([]float32, bool) {
	if len(m.next) == 0 {
		return nil, false
	}
	frame := m.next[0]
	n := copy(m.next, m.next[1:])
	m.next[n] = nil
	m.next = m.next[:n]
	return frame, true
}
