package wavetab

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestPeriodLength(t *testing.T) {
	tests := []struct {
		freq       float64
		sampleRate int
		want       int
	}{
		{440, 48000, 109},
		{480, 48000, 100},
		{1000, 44100, 44},
		{0, 44100, 0},
		{30000, 44100, 1},
		{50000, 44100, 0},
	}
	for _, test := range tests {
		have := PeriodLength(test.freq, test.sampleRate)
		if have != test.want {
			t.Errorf("PeriodLength(%v, %d) => %d, expected %d", test.freq, test.sampleRate, have, test.want)
		}
	}
}

func TestPeriodShapes(t *testing.T) {
	for _, shape := range []Shape{ShapeSine, ShapeTriangle, ShapeSquare, ShapeSaw} {
		wave := Period(shape, 480, 48000)
		if len(wave) != 100 {
			t.Fatalf("%s: period length is %d, expected 100", shape, len(wave))
		}
		for i, v := range wave {
			if v < -1 || v > 1 {
				t.Fatalf("%s: sample[%d]=%v is out of range", shape, i, v)
			}
		}
	}

	sine := Period(ShapeSine, 480, 48000)
	if sine[0] != 0 {
		t.Errorf("sine should start at zero, got %v", sine[0])
	}
	if math.Abs(float64(sine[25])-1) > 1e-6 {
		t.Errorf("sine quarter period should peak, got %v", sine[25])
	}
	tri := Period(ShapeTriangle, 480, 48000)
	if tri[0] != 0 || tri[25] != 1 || tri[75] != -1 {
		t.Errorf("unexpected triangle corners: %v %v %v", tri[0], tri[25], tri[75])
	}
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		name string
		want Shape
		err  bool
	}{
		{"", ShapeSine, false},
		{"Sine", ShapeSine, false},
		{"tri", ShapeTriangle, false},
		{"square", ShapeSquare, false},
		{"sawtooth", ShapeSaw, false},
		{"noise", ShapeSine, true},
	}
	for _, test := range tests {
		have, err := ParseShape(test.name)
		if (err != nil) != test.err {
			t.Fatalf("ParseShape(%q) error=%v, expected error=%v", test.name, err, test.err)
		}
		if have != test.want {
			t.Errorf("ParseShape(%q) => %s, expected %s", test.name, have, test.want)
		}
	}
}

func TestBuildTable(t *testing.T) {
	table, err := BuildTable(TableConfig{
		Pitches:    13,
		MinFreq:    220,
		MaxFreq:    440,
		SampleRate: 44100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(table.Periods) != 13 || len(table.Freqs) != 13 {
		t.Fatalf("expected 13 pitches, got %d", len(table.Periods))
	}
	if table.Freqs[0] != 220 || math.Abs(table.Freqs[12]-440) > 1e-9 {
		t.Fatalf("unexpected frequency bounds: %v..%v", table.Freqs[0], table.Freqs[12])
	}
	// A semitone ladder: slot 6 is a tritone above the root.
	if math.Abs(table.Freqs[6]-220*math.Sqrt2) > 1e-9 {
		t.Errorf("slot 6 frequency is %v", table.Freqs[6])
	}
	for i, p := range table.Periods {
		if len(p) != PeriodLength(table.Freqs[i], 44100) {
			t.Errorf("slot %d has period %d", i, len(p))
		}
	}
}

func TestBuildTableErrors(t *testing.T) {
	tests := []struct {
		config TableConfig
		field  string
	}{
		{TableConfig{Pitches: 0, MinFreq: 100, MaxFreq: 200, SampleRate: 44100}, "Pitches"},
		{TableConfig{Pitches: 4, MinFreq: 100, MaxFreq: 200}, "SampleRate"},
		{TableConfig{Pitches: 4, MinFreq: 0, MaxFreq: 200, SampleRate: 44100}, "MinFreq"},
		{TableConfig{Pitches: 4, MinFreq: 300, MaxFreq: 200, SampleRate: 44100}, "MaxFreq"},
		{TableConfig{Pitches: 4, MinFreq: 300, MaxFreq: 30000, SampleRate: 44100}, "MaxFreq"},
	}
	for _, test := range tests {
		_, err := BuildTable(test.config)
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Fatalf("%+v: expected ConfigError, got %v", test.config, err)
		}
		if configErr.Field != test.field {
			t.Errorf("%+v: error field is %s, expected %s", test.config, configErr.Field, test.field)
		}
	}
}

func TestWAVRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}
	samples := Period(ShapeSine, 441, 44100)
	if err := EncodeWAV(f, samples, 44100); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	clip, err := LoadClip(filename)
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 44100 {
		t.Errorf("sample rate is %d", clip.SampleRate)
	}
	if len(clip.Samples) != len(samples) {
		t.Fatalf("decoded %d samples, expected %d", len(clip.Samples), len(samples))
	}
	for i := range samples {
		if math.Abs(float64(clip.Samples[i]-samples[i])) > 1.0/16000 {
			t.Fatalf("sample[%d]: %v vs %v", i, clip.Samples[i], samples[i])
		}
	}
}
