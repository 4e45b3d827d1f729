package keytone

import (
	"errors"
	"time"
)

// Envelope holds the three sample segments that shape a voice:
// a fade-in start, a looped sustain period and a fade-out stop.
//
// An envelope is immutable once built; it can be shared between
// mixers and goroutines.
type Envelope struct {
	start   []float32
	sustain []float32
	stop    []float32
}

// NewEnvelope builds an envelope from a single waveform period.
//
// The attack and release durations are rounded down to a whole number
// of periods, so segment switches always land on a period boundary.
// A duration shorter than one period produces an empty segment
// that the voice passes through instantly.
func NewEnvelope(wave []float32, sampleRate int, attack, release time.Duration) (*Envelope, error) {
	if len(wave) == 0 {
		return nil, errors.New("keytone: empty waveform period")
	}
	if sampleRate <= 0 {
		return nil, errors.New("keytone: sample rate must be positive")
	}
	if attack < 0 || release < 0 {
		return nil, errors.New("keytone: negative envelope duration")
	}
	return NewEnvelopeCycles(wave, durationCycles(attack, sampleRate, len(wave)), durationCycles(release, sampleRate, len(wave)))
}

// NewEnvelopeCycles is like NewEnvelope, but the start and stop
// segment lengths are given as a number of waveform periods.
func NewEnvelopeCycles(wave []float32, startCycles, stopCycles int) (*Envelope, error) {
	if len(wave) == 0 {
		return nil, errors.New("keytone: empty waveform period")
	}
	if startCycles < 0 || stopCycles < 0 {
		return nil, errors.New("keytone: negative cycle count")
	}

	n := len(wave) * startCycles
	start := make([]float32, n)
	for i := range start {
		start[i] = wave[i%len(wave)] * float32(i) / float32(n)
	}

	n = len(wave) * stopCycles
	stop := make([]float32, n)
	for i := range stop {
		stop[i] = wave[i%len(wave)] * float32(n-i-1) / float32(n)
	}

	sustain := make([]float32, len(wave))
	copy(sustain, wave)

	return &Envelope{
		start:   start,
		sustain: sustain,
		stop:    stop,
	}, nil
}

func durationCycles(d time.Duration, sampleRate, period int) int {
	return samplesInDuration(d, sampleRate) / period
}

// Period returns the waveform period length in samples.
// Deferred voice state changes are only committed at multiples of this value.
func (e *Envelope) Period() int { return len(e.sustain) }

// Start returns the fade-in segment.
// The returned slice must not be modified.
func (e *Envelope) Start() []float32 { return e.start }

// Sustain returns the looped waveform period.
// The returned slice must not be modified.
func (e *Envelope) Sustain() []float32 { return e.sustain }

// Stop returns the fade-out segment.
// The returned slice must not be modified.
func (e *Envelope) Stop() []float32 { return e.stop }

// Sound flattens the envelope into a one-shot clip:
// start, a single sustain period, then stop.
func (e *Envelope) Sound() []float32 {
	return e.Clip(0, 1)
}

// Clip flattens the envelope into a one-shot clip that sustains
// for at least hold at the given sample rate (and at least one period).
func (e *Envelope) Clip(hold time.Duration, sampleRate int) []float32 {
	periods := 1
	if hold > 0 && sampleRate > 0 {
		periods = durationCycles(hold, sampleRate, len(e.sustain))
		if periods < 1 {
			periods = 1
		}
	}
	clip := make([]float32, 0, len(e.start)+periods*len(e.sustain)+len(e.stop))
	clip = append(clip, e.start...)
	for i := 0; i < periods; i++ {
		clip = append(clip, e.sustain...)
	}
	clip = append(clip, e.stop...)
	return clip
}
