package wavetab

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Clip is a mono sound clip decoded from a WAV file.
type Clip struct {
	Samples    []float32
	SampleRate int
}

// LoadClip reads a WAV file from disk.
func LoadClip(filename string) (*Clip, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	clip, err := DecodeClip(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return clip, nil
}

// DecodeClip decodes a PCM WAV stream into a mono float clip.
// Multi-channel data is mixed down by averaging the channels.
func DecodeClip(r io.ReadSeeker) (*Clip, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, errors.New("wavetab: not a valid WAV file")
	}
	buf, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavetab: decode PCM: %w", err)
	}

	numChannels := 1
	sampleRate := int(d.SampleRate)
	if buf.Format != nil {
		numChannels = buf.Format.NumChannels
		sampleRate = buf.Format.SampleRate
	}
	if numChannels <= 0 {
		return nil, &ConfigError{Message: "WAV has no channels", Field: "NumChannels"}
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(d.BitDepth)
	}
	if bitDepth <= 0 || bitDepth > 32 {
		return nil, &ConfigError{Message: fmt.Sprintf("unsupported bit depth %d", bitDepth), Field: "BitDepth"}
	}

	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	n := len(buf.Data) / numChannels
	samples := make([]float32, n)
	for i := range samples {
		sum := 0
		for ch := 0; ch < numChannels; ch++ {
			sum += buf.Data[i*numChannels+ch]
		}
		// 8-bit WAV data is unsigned.
		v := float64(sum) / float64(numChannels)
		if bitDepth == 8 {
			v -= 128
		}
		samples[i] = float32(v * scale)
	}

	return &Clip{Samples: samples, SampleRate: sampleRate}, nil
}

// EncodeWAV writes mono float samples as a 16-bit PCM WAV stream.
// Samples are clamped to [-1, 1].
func EncodeWAV(w io.WriteSeeker, samples []float32, sampleRate int) error {
	const bitDepth = 16
	data := make([]int, len(samples))
	for i, v := range samples {
		if v > 1 {
			v = 1
		} else if v < -1 {
			v = -1
		}
		data[i] = int(v * 32767)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("wavetab: encode: %w", err)
	}
	return enc.Close()
}
