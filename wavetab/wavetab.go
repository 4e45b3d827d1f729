package wavetab

import (
	"math"
	"strings"
)

// Shape selects the single-period waveform generator.
type Shape int

const (
	ShapeSine Shape = iota
	ShapeTriangle
	ShapeSquare
	ShapeSaw
)

// ParseShape maps a shape name to a Shape.
// An empty name means ShapeSine.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(s) {
	case "", "sine", "sin":
		return ShapeSine, nil
	case "triangle", "tri":
		return ShapeTriangle, nil
	case "square":
		return ShapeSquare, nil
	case "saw", "sawtooth":
		return ShapeSaw, nil
	}
	return ShapeSine, &ConfigError{Message: "unknown waveform shape " + s, Field: "Shape"}
}

func (s Shape) String() string {
	switch s {
	case ShapeSine:
		return "sine"
	case ShapeTriangle:
		return "triangle"
	case ShapeSquare:
		return "square"
	case ShapeSaw:
		return "saw"
	default:
		return "unknown"
	}
}

// PeriodLength returns the number of samples in one waveform cycle.
//
// The length is truncated to an integer, so the played pitch is
// slightly sharp for frequencies that don't divide the sample rate.
func PeriodLength(freq float64, sampleRate int) int {
	if freq <= 0 {
		return 0
	}
	return int(float64(sampleRate) / freq)
}

// Period builds exactly one cycle of the given shape.
// The result is empty if the frequency is too high to fit a single sample.
func Period(shape Shape, freq float64, sampleRate int) []float32 {
	n := PeriodLength(freq, sampleRate)
	wave := make([]float32, n)
	for i := range wave {
		progress := float64(i) / float64(n)
		wave[i] = float32(sample(shape, progress))
	}
	return wave
}

func sample(shape Shape, progress float64) float64 {
	switch shape {
	case ShapeTriangle:
		// Starts at zero like the sine to keep the attack click-free.
		switch {
		case progress < 0.25:
			return 4 * progress
		case progress < 0.75:
			return 2 - 4*progress
		default:
			return 4*progress - 4
		}
	case ShapeSquare:
		if progress < 0.5 {
			return 1
		}
		return -1
	case ShapeSaw:
		if progress < 0.5 {
			return 2 * progress
		}
		return 2*progress - 2
	default:
		return math.Sin(2 * math.Pi * progress)
	}
}

// TableConfig describes a per-pitch waveform table.
type TableConfig struct {
	// Pitches is the number of table entries (pitch slots).
	Pitches int

	// MinFreq and MaxFreq bound the table frequencies (in Hz).
	// The pitches are spread geometrically, so equal slot steps
	// sound like equal musical intervals.
	MinFreq float64
	MaxFreq float64

	SampleRate int

	Shape Shape
}

// Table holds one waveform period per pitch slot.
type Table struct {
	Freqs   []float64
	Periods [][]float32
}

// Frequencies returns the geometric frequency ladder for the config.
func Frequencies(config TableConfig) []float64 {
	freqs := make([]float64, config.Pitches)
	if config.Pitches == 1 {
		freqs[0] = config.MinFreq
		return freqs
	}
	ratio := config.MaxFreq / config.MinFreq
	for i := range freqs {
		step := float64(i) / float64(config.Pitches-1)
		freqs[i] = config.MinFreq * math.Pow(ratio, step)
	}
	return freqs
}

// BuildTable creates a waveform table for the specified config.
func BuildTable(config TableConfig) (*Table, error) {
	if config.Pitches <= 0 {
		return nil, &ConfigError{Message: "need at least one pitch", Field: "Pitches"}
	}
	if config.SampleRate <= 0 {
		return nil, &ConfigError{Message: "sample rate must be positive", Field: "SampleRate"}
	}
	if config.MinFreq <= 0 {
		return nil, &ConfigError{Message: "frequency must be positive", Field: "MinFreq"}
	}
	if config.MaxFreq < config.MinFreq {
		return nil, &ConfigError{Message: "max frequency is below min frequency", Field: "MaxFreq"}
	}
	if config.MaxFreq*2 > float64(config.SampleRate) {
		return nil, &ConfigError{Message: "max frequency is above Nyquist", Field: "MaxFreq"}
	}

	t := &Table{Freqs: Frequencies(config)}
	t.Periods = make([][]float32, len(t.Freqs))
	for i, f := range t.Freqs {
		t.Periods[i] = Period(config.Shape, f, config.SampleRate)
	}
	return t, nil
}
