package keytone

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quasilyte/keytone/wavetab"
)

// Config describes the whole sound setup: the sound bank,
// the mixer strategy and the real-time pipeline buffering.
//
// These settings can't be changed after the engine is built.
// A zero value of every field means "use the default",
// see ApplyDefaults for the actual values.
type Config struct {
	// SampleRate is the output sample rate.
	// A zero value means 48000.
	SampleRate int `yaml:"sample_rate"`

	// FrameSize is the number of samples in a mixed frame,
	// the unit of handoff between the control loop and the audio thread.
	// A zero value means 1024.
	FrameSize int `yaml:"frame_size"`

	// Pitches is the number of pitch slots in the sound bank.
	// Key codes are mapped to slots as code mod Pitches.
	// A zero value means 24.
	Pitches int `yaml:"pitches"`

	// MinFreq and MaxFreq bound the slot frequencies (Hz).
	// Zero values mean 220 and 880.
	MinFreq float64 `yaml:"min_freq"`
	MaxFreq float64 `yaml:"max_freq"`

	// Shape is a waveform name: sine, triangle, square or saw.
	// An empty value means sine.
	Shape string `yaml:"shape"`

	// Attack and Release are the fade-in and fade-out durations.
	// They're rounded down to whole waveform periods.
	// Zero values mean 50ms and 100ms.
	Attack  time.Duration `yaml:"attack"`
	Release time.Duration `yaml:"release"`

	// Mixer selects the mixing strategy: "poly" synthesizes the
	// voices live (keys sound while held), "overlay" plays one-shot clips.
	// An empty value means "poly".
	Mixer string `yaml:"mixer"`

	// Policy is a poly mixer voices mixing policy:
	// "average", "sum" or "softclip".
	// An empty value means "average".
	Policy string `yaml:"policy"`

	// Clips are WAV files for the overlay mixer bank.
	// If empty, the bank is synthesized from the waveform table:
	// every clip is an envelope that sustains for ClipHold.
	Clips []string `yaml:"clips"`

	// ClipHold is the synthesized overlay clip sustain time.
	// A zero value means 200ms.
	ClipHold time.Duration `yaml:"clip_hold"`

	// Volume is the output gain.
	// A zero value means 0.2.
	Volume float64 `yaml:"volume"`

	// QueueSize and Prefill configure the ready frames queue.
	// Zero values mean 4 and 2.
	QueueSize int `yaml:"queue_size"`
	Prefill   int `yaml:"prefill"`

	// EventQueueSize is the key events queue capacity per input device.
	// A zero value means 50.
	EventQueueSize int `yaml:"event_queue_size"`

	// Backoff is the producer retry pause when the event queue is full.
	// A zero value means 100ms.
	Backoff time.Duration `yaml:"backoff"`
}

// ApplyDefaults replaces the zero fields with their default values.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 48000
	}
	if c.FrameSize == 0 {
		c.FrameSize = 1024
	}
	if c.Pitches == 0 {
		c.Pitches = 24
	}
	if c.MinFreq == 0 {
		c.MinFreq = 220
	}
	if c.MaxFreq == 0 {
		c.MaxFreq = 880
	}
	if c.Attack == 0 {
		c.Attack = 50 * time.Millisecond
	}
	if c.Release == 0 {
		c.Release = 100 * time.Millisecond
	}
	if c.Mixer == "" {
		c.Mixer = "poly"
	}
	if c.ClipHold == 0 {
		c.ClipHold = 200 * time.Millisecond
	}
	if c.Volume == 0 {
		c.Volume = 0.2
	}
	if c.QueueSize == 0 {
		c.QueueSize = 4
	}
	if c.Prefill == 0 {
		c.Prefill = 2
	}
	if c.EventQueueSize == 0 {
		c.EventQueueSize = 50
	}
	if c.Backoff == 0 {
		c.Backoff = 100 * time.Millisecond
	}
}

// Validate reports the first setting that can't be used.
// It should be called after ApplyDefaults.
func (c *Config) Validate() error {
	switch {
	case c.SampleRate < 0:
		return fieldError("SampleRate", "must be positive")
	case c.FrameSize < 0:
		return fieldError("FrameSize", "must be positive")
	case c.Attack < 0:
		return fieldError("Attack", "can't be negative")
	case c.Release < 0:
		return fieldError("Release", "can't be negative")
	case c.Volume < 0:
		return fieldError("Volume", "can't be negative")
	case c.Prefill >= c.QueueSize:
		return fieldError("Prefill", "must be less than QueueSize")
	}
	if _, err := c.mixPolicy(); err != nil {
		return err
	}
	if _, err := wavetab.ParseShape(c.Shape); err != nil {
		return err
	}
	switch c.Mixer {
	case "poly", "overlay":
	default:
		return fieldError("Mixer", fmt.Sprintf("unknown mixer %q", c.Mixer))
	}
	if len(c.Clips) != 0 && c.Mixer != "overlay" {
		return fieldError("Clips", "clips are only used by the overlay mixer")
	}
	return nil
}

func fieldError(field, msg string) error {
	return &wavetab.ConfigError{Message: msg, Field: field}
}

func (c *Config) mixPolicy() (MixPolicy, error) {
	switch strings.ToLower(c.Policy) {
	case "", "average":
		return MixAverage, nil
	case "sum":
		return MixSum, nil
	case "softclip":
		return MixSoftClip, nil
	}
	return MixAverage, fieldError("Policy", fmt.Sprintf("unknown policy %q", c.Policy))
}

// Envelopes builds one envelope per pitch slot.
func (c *Config) Envelopes() ([]*Envelope, error) {
	shape, err := wavetab.ParseShape(c.Shape)
	if err != nil {
		return nil, err
	}
	table, err := wavetab.BuildTable(wavetab.TableConfig{
		Pitches:    c.Pitches,
		MinFreq:    c.MinFreq,
		MaxFreq:    c.MaxFreq,
		SampleRate: c.SampleRate,
		Shape:      shape,
	})
	if err != nil {
		return nil, err
	}
	envelopes := make([]*Envelope, len(table.Periods))
	for i, wave := range table.Periods {
		env, err := NewEnvelope(wave, c.SampleRate, c.Attack, c.Release)
		if err != nil {
			return nil, fmt.Errorf("slot %d (%.1fHz): %w", i, table.Freqs[i], err)
		}
		envelopes[i] = env
	}
	return envelopes, nil
}

// Bank builds the overlay mixer sound bank.
func (c *Config) Bank() ([][]float32, error) {
	if len(c.Clips) == 0 {
		envelopes, err := c.Envelopes()
		if err != nil {
			return nil, err
		}
		bank := make([][]float32, len(envelopes))
		for i, env := range envelopes {
			bank[i] = env.Clip(c.ClipHold, c.SampleRate)
		}
		return bank, nil
	}

	bank := make([][]float32, len(c.Clips))
	for i, filename := range c.Clips {
		clip, err := wavetab.LoadClip(filename)
		if err != nil {
			return nil, err
		}
		if clip.SampleRate != c.SampleRate {
			return nil, fmt.Errorf("%s: sample rate %d doesn't match the output rate %d",
				filename, clip.SampleRate, c.SampleRate)
		}
		bank[i] = clip.Samples
	}
	return bank, nil
}

// NewEngine builds the configured mixer.
func (c *Config) NewEngine() (Engine, error) {
	switch c.Mixer {
	case "overlay":
		bank, err := c.Bank()
		if err != nil {
			return nil, err
		}
		return NewOverlayEngine(NewOverlayMixer(bank, c.FrameSize)), nil
	case "poly":
		policy, err := c.mixPolicy()
		if err != nil {
			return nil, err
		}
		envelopes, err := c.Envelopes()
		if err != nil {
			return nil, err
		}
		m := NewPolyMixer(PolyMixerConfig{
			Envelopes: envelopes,
			Policy:    policy,
		})
		return NewPolyEngine(m, c.FrameSize), nil
	}
	return nil, errors.New("keytone: unknown mixer " + c.Mixer)
}

// ControllerConfig derives the control loop settings.
// The source output format is left to the caller, since it
// depends on the audio backend.
func (c *Config) ControllerConfig() ControllerConfig {
	return ControllerConfig{
		QueueSize: c.QueueSize,
		Prefill:   c.Prefill,
		Source: SourceConfig{
			SampleRate: c.SampleRate,
			Volume:     c.Volume,
		},
	}
}
