package keytone

import (
	"math"
	"testing"
)

func constEnvelope(t *testing.T, value float32, period int) *Envelope {
	t.Helper()
	wave := make([]float32, period)
	for i := range wave {
		wave[i] = value
	}
	env, err := NewEnvelopeCycles(wave, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return env
}

func TestPolyMixerSilence(t *testing.T) {
	m := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{testEnvelope(t, 4, 1, 1)},
	})
	for _, size := range []int{0, 1, 17, 1024} {
		frame := m.GenerateFrame(size)
		if len(frame) != size {
			t.Fatalf("frame length is %d, expected %d", len(frame), size)
		}
		for i, v := range frame {
			if v != 0 {
				t.Fatalf("sample %d is %v, expected silence", i, v)
			}
		}
	}
}

func TestPolyMixerIdenticalVoices(t *testing.T) {
	env := testEnvelope(t, 5, 3, 2)
	single := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{env},
	})
	double := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{env, testEnvelope(t, 5, 3, 2)},
	})

	single.ChangeKeyState(0, KeyPress)
	double.ChangeKeyState(0, KeyPress)
	double.ChangeKeyState(1, KeyPress)

	for i := 0; i < 8; i++ {
		if i == 5 {
			single.ChangeKeyState(0, KeyRelease)
			double.ChangeKeyState(0, KeyRelease)
			double.ChangeKeyState(1, KeyRelease)
		}
		want := single.GenerateFrame(7)
		have := double.GenerateFrame(7)
		for j := range want {
			if math.Abs(float64(want[j]-have[j])) > 1e-6 {
				t.Fatalf("frame %d sample %d: two voices give %v, one voice gives %v", i, j, have[j], want[j])
			}
		}
	}
	if single.ActiveVoices() != 0 || double.ActiveVoices() != 0 {
		t.Fatalf("voices are still active: %d and %d", single.ActiveVoices(), double.ActiveVoices())
	}
}

func TestPolyMixerPerSampleDivisor(t *testing.T) {
	m := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{
			constEnvelope(t, 1, 1),
			constEnvelope(t, 0.5, 1),
		},
	})
	m.ChangeKeyState(0, KeyPress)
	m.ChangeKeyState(1, KeyPress)
	m.ChangeKeyState(0, KeyRelease)

	frame := m.GenerateFrame(3)
	want := []float32{0.75, 0.5, 0.5}
	for i := range want {
		if frame[i] != want[i] {
			t.Fatalf("sample %d is %v, expected %v", i, frame[i], want[i])
		}
	}
	if m.ActiveVoices() != 1 {
		t.Fatalf("active voices: %d", m.ActiveVoices())
	}
}

func TestPolyMixerPolicies(t *testing.T) {
	tests := []struct {
		policy MixPolicy
		want   float32
	}{
		{MixAverage, 0.75},
		{MixSum, 1.5},
		{MixSoftClip, float32(math.Tanh(1.5))},
	}
	for _, test := range tests {
		m := NewPolyMixer(PolyMixerConfig{
			Envelopes: []*Envelope{
				constEnvelope(t, 1, 1),
				constEnvelope(t, 0.5, 1),
			},
			Policy: test.policy,
		})
		m.ChangeKeyState(0, KeyPress)
		m.ChangeKeyState(1, KeyPress)
		have := m.GenerateFrame(1)[0]
		if math.Abs(float64(have-test.want)) > 1e-6 {
			t.Errorf("policy %d: sample is %v, expected %v", test.policy, have, test.want)
		}
	}
}

func TestPolyMixerKeyChanges(t *testing.T) {
	m := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{
			testEnvelope(t, 4, 1, 1),
			testEnvelope(t, 4, 1, 1),
			testEnvelope(t, 4, 1, 1),
		},
	})
	if m.Slots() != 3 {
		t.Fatalf("slots: %d", m.Slots())
	}

	m.ChangeKeyState(1, KeyPress)
	m.ChangeKeyState(1, KeyPress)
	if m.ActiveVoices() != 1 {
		t.Fatalf("a repeated press should not duplicate the voice: %d active", m.ActiveVoices())
	}
	m.ChangeKeyState(2, KeyPress)
	m.GenerateFrame(3)

	m.ChangeKeyState(2, KeyStop)
	if m.ActiveVoices() != 1 {
		t.Fatalf("stop should remove the voice right away: %d active", m.ActiveVoices())
	}
	m.ChangeKeyState(2, KeyStop)
	m.ChangeKeyState(0, KeyRelease)
	if m.ActiveVoices() != 1 {
		t.Fatalf("releasing a silent voice changed the active set: %d active", m.ActiveVoices())
	}

	m.ChangeKeyState(1, KeyRelease)
	m.GenerateFrame(64)
	if m.ActiveVoices() != 0 {
		t.Fatalf("released voice is still active")
	}
	for i, v := range m.GenerateFrame(8) {
		if v != 0 {
			t.Fatalf("sample %d is %v after all voices stopped", i, v)
		}
	}
}

func TestPolyMixerVoiceLifetime(t *testing.T) {
	env := testEnvelope(t, 4, 2, 3)
	m := NewPolyMixer(PolyMixerConfig{Envelopes: []*Envelope{env}})

	m.ChangeKeyState(0, KeyPress)
	m.GenerateFrame(10)
	m.ChangeKeyState(0, KeyRelease)

	// Count the samples until the voice stops, one sample at a time.
	n := 10
	for m.ActiveVoices() != 0 {
		m.GenerateFrame(1)
		n++
	}
	start, sustain, stop := len(env.Start()), len(env.Sustain()), len(env.Stop())
	if k := n - start - stop; k < 0 || k%sustain != 0 {
		t.Fatalf("voice played %d samples", n)
	}
}

func TestPolyMixerMixIntoReusesBuffer(t *testing.T) {
	m := NewPolyMixer(PolyMixerConfig{
		Envelopes: []*Envelope{constEnvelope(t, 0.25, 2)},
	})
	buf := []float32{9, 9, 9, 9}
	m.MixInto(buf)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("stale sample %v in a silent frame", v)
		}
	}
	m.ChangeKeyState(0, KeyPress)
	m.MixInto(buf)
	for _, v := range buf {
		if v != 0.25 {
			t.Fatalf("sample is %v, expected 0.25", v)
		}
	}
}

func TestPolyMixerSlotOutOfRange(t *testing.T) {
	m := NewPolyMixer(PolyMixerConfig{})
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()
	m.ChangeKeyState(0, KeyPress)
}
