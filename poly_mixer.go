package keytone

import (
	"fmt"
	"math"
)

// KeyChange is a PolyMixer voice request.
type KeyChange int

const (
	// KeyPress starts (or restarts) a voice.
	KeyPress KeyChange = iota

	// KeyRelease lets a voice fade out.
	KeyRelease

	// KeyStop silences a voice immediately, without a fade-out.
	// This can produce a click; use it for voice stealing or shutdown.
	KeyStop
)

func (c KeyChange) String() string {
	switch c {
	case KeyPress:
		return "press"
	case KeyRelease:
		return "release"
	case KeyStop:
		return "stop"
	default:
		return "unknown"
	}
}

// MixPolicy selects how the active voices are combined into one sample.
type MixPolicy int

const (
	// MixAverage divides the voices sum by the number of voices
	// that were active at the start of that sample.
	// The loudness doesn't depend on the polyphony and it can't clip.
	MixAverage MixPolicy = iota

	// MixSum adds the voices without any normalization.
	MixSum

	// MixSoftClip adds the voices and squashes the result with tanh.
	MixSoftClip
)

// PolyMixerConfig configures the polyphonic mixer.
type PolyMixerConfig struct {
	// Envelopes are the pitch slot sounds, one voice per envelope.
	Envelopes []*Envelope

	// Policy is a voices mixing policy.
	// A zero value means MixAverage.
	Policy MixPolicy
}

// PolyMixer synthesizes a mix of live voices.
//
// Every pitch slot has exactly one voice: pressing a key
// that is already sounding restarts its voice instead of
// allocating another one.
//
// PolyMixer is not safe for concurrent use.
// All calls are expected to come from a single control loop.
type PolyMixer struct {
	voices []voice
	policy MixPolicy

	// active lists the indexes of the non-stopped voices.
	// Its order is not meaningful.
	active []int
}

// NewPolyMixer creates a mixer with all voices stopped.
func NewPolyMixer(config PolyMixerConfig) *PolyMixer {
	m := &PolyMixer{
		voices: make([]voice, len(config.Envelopes)),
		active: make([]int, 0, len(config.Envelopes)),
		policy: config.Policy,
	}
	for i, env := range config.Envelopes {
		m.voices[i] = newVoice(env)
	}
	return m
}

// Slots returns the number of pitch slots.
func (m *PolyMixer) Slots() int { return len(m.voices) }

// ActiveVoices returns the number of voices that are currently sounding.
func (m *PolyMixer) ActiveVoices() int { return len(m.active) }

// ChangeKeyState applies a key change to the slot voice.
//
// Press and release requests are deferred until the voice
// reaches a waveform period boundary; stop is applied immediately.
func (m *PolyMixer) ChangeKeyState(slot int, change KeyChange) {
	if slot < 0 || slot >= len(m.voices) {
		panic(fmt.Sprintf("keytone: slot %d is out of range [0, %d)", slot, len(m.voices)))
	}
	v := &m.voices[slot]
	switch change {
	case KeyPress:
		if v.IsStopped() {
			m.active = append(m.active, slot)
		}
		v.press()
	case KeyRelease:
		v.release()
	case KeyStop:
		if !v.IsStopped() {
			v.forceStop()
			m.removeActive(slot)
		}
	}
}

func (m *PolyMixer) removeActive(slot int) {
	for i, id := range m.active {
		if id == slot {
			last := len(m.active) - 1
			m.active[i] = m.active[last]
			m.active = m.active[:last]
			return
		}
	}
}

// GenerateFrame returns the next size samples of the mix.
func (m *PolyMixer) GenerateFrame(size int) []float32 {
	frame := make([]float32, size)
	m.MixInto(frame)
	return frame
}

// MixInto fills dst with the next len(dst) samples of the mix.
// It doesn't allocate.
func (m *PolyMixer) MixInto(dst []float32) {
	for t := range dst {
		if len(m.active) == 0 {
			// Nothing is sounding, so nothing will change until
			// the next ChangeKeyState call.
			for i := t; i < len(dst); i++ {
				dst[i] = 0
			}
			return
		}
		dst[t] = m.mixSample()
	}
}

// mixSample sums one sample from every active voice.
// The voices that stopped during this sample leave the active set
// right away, so the next sample divisor already excludes them.
func (m *PolyMixer) mixSample() float32 {
	numActive := len(m.active)
	sum := float32(0)
	for i := 0; i < len(m.active); {
		v := &m.voices[m.active[i]]
		sum += v.takeValue()
		if v.IsStopped() {
			last := len(m.active) - 1
			m.active[i] = m.active[last]
			m.active = m.active[:last]
			continue
		}
		i++
	}

	switch m.policy {
	case MixSum:
		return sum
	case MixSoftClip:
		return float32(math.Tanh(float64(sum)))
	default:
		return sum / float32(numActive)
	}
}
