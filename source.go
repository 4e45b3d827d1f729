package keytone

import (
	"encoding/binary"
	"math"
	"sync/atomic"
)

// SampleFormat selects the PCM encoding produced by Source.Read.
type SampleFormat int

const (
	// FormatInt16LE is a signed 16-bit little endian PCM.
	// This is what ebiten/audio players expect.
	FormatInt16LE SampleFormat = iota

	// FormatFloat32LE is a 32-bit float little endian PCM.
	// It can be used with oto.FormatFloat32LE.
	FormatFloat32LE
)

// BytesPerSample returns the size of one encoded sample for a single channel.
func (f SampleFormat) BytesPerSample() int {
	if f == FormatFloat32LE {
		return 4
	}
	return 2
}

// SourceConfig configures the output side of a pipeline.
type SourceConfig struct {
	// SampleRate is informational: the Source produces
	// whatever the frames contain, one sample per pull.
	// A zero value means 48000.
	SampleRate int

	// Channels is the number of interleaved channels written by Read.
	// Every channel receives the same (mono) sample.
	// A zero value means 2.
	Channels int

	// Format is the Read encoding.
	// A zero value means FormatInt16LE.
	Format SampleFormat

	// Volume scales the samples written by Read.
	// NextSample is not affected.
	// A zero value means 1; use a tiny positive value to mute.
	Volume float64

	// Silence is the sample value played when no frame is ready.
	Silence float32
}

// Source exposes frames produced by a control loop as a
// never-blocking sample stream for a real-time audio consumer.
//
// Source implements io.Reader, so it can be handed to
// ebiten/audio or oto players directly.
//
// NextSample and Read must be called from a single goroutine
// (the audio thread). They don't lock, don't allocate
// and never block: when the next frame is not ready in time,
// a silence frame is played instead.
type Source struct {
	frames <-chan []float32
	done   chan<- struct{}

	config SourceConfig
	volume float32

	silence []float32
	current []float32
	pos     int
	closed  bool

	underruns atomic.Uint64
}

func newSource(frames <-chan []float32, done chan<- struct{}, frameSize int, config SourceConfig) *Source {
	if config.SampleRate == 0 {
		config.SampleRate = 48000
	}
	if config.Channels == 0 {
		config.Channels = 2
	}
	if config.Volume == 0 {
		config.Volume = 1
	}
	silence := make([]float32, frameSize)
	for i := range silence {
		silence[i] = config.Silence
	}
	return &Source{
		frames:  frames,
		done:    done,
		config:  config,
		volume:  float32(config.Volume),
		silence: silence,
		current: silence,
		// Start as if the silence frame was already played,
		// so the first pull asks for a real frame.
		pos: len(silence),
	}
}

// SampleRate reports the declared output sample rate.
func (s *Source) SampleRate() int { return s.config.SampleRate }

// Channels reports the declared output channel count.
func (s *Source) Channels() int { return s.config.Channels }

// Format reports the Read output encoding.
func (s *Source) Format() SampleFormat { return s.config.Format }

// Underruns returns the number of times a silence frame
// was played because no mixed frame was ready.
// It's safe to call from any goroutine.
func (s *Source) Underruns() uint64 { return s.underruns.Load() }

// NextSample returns the next mono sample.
func (s *Source) NextSample() float32 {
	if s.pos >= len(s.current) {
		s.nextFrame()
	}
	v := s.current[s.pos]
	s.pos++
	return v
}

// ReadSamples fills dst with mono samples, the volume applied.
// It's an alternative to Read for callback-driven audio APIs
// that work with float samples directly.
func (s *Source) ReadSamples(dst []float32) {
	for i := range dst {
		dst[i] = s.NextSample() * s.volume
	}
}

func (s *Source) nextFrame() {
	if !s.closed {
		// A full queue means the control loop has enough
		// requests already; this one can be dropped.
		select {
		case s.done <- struct{}{}:
		default:
		}
	}

	s.pos = 0
	select {
	case frame, ok := <-s.frames:
		if ok && len(frame) != 0 {
			s.current = frame
			return
		}
	default:
	}
	s.current = s.silence
	s.underruns.Add(1)
}

// Read fills b with encoded interleaved samples.
//
// Only whole sample frames (one sample per channel) are written;
// the returned n is len(b) rounded down to that size.
// The error is always nil: the stream never ends.
func (s *Source) Read(b []byte) (int, error) {
	bytesPerSample := s.config.Format.BytesPerSample()
	stride := bytesPerSample * s.config.Channels
	n := len(b) - len(b)%stride

	for i := 0; i < n; i += stride {
		v := s.NextSample() * s.volume
		switch s.config.Format {
		case FormatFloat32LE:
			bits := math.Float32bits(v)
			for ch := 0; ch < s.config.Channels; ch++ {
				binary.LittleEndian.PutUint32(b[i+ch*4:], bits)
			}
		default:
			pcm := uint16(toInt16(v))
			for ch := 0; ch < s.config.Channels; ch++ {
				binary.LittleEndian.PutUint16(b[i+ch*2:], pcm)
			}
		}
	}

	return n, nil
}

// Close tells the control loop that this consumer is gone.
// It must not be called concurrently with NextSample or Read;
// the samples can still be pulled after Close.
func (s *Source) Close() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
}

func toInt16(v float32) int16 {
	v = clamp(v, -1, 1)
	if v >= 0 {
		return int16(v * 32767)
	}
	return int16(v * 32768)
}
