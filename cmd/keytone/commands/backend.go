package commands

import (
	"fmt"

	"github.com/ebitengine/oto/v3"
	"github.com/hajimehoshi/ebiten/v2/audio"

	"github.com/quasilyte/keytone"
)

// backend is an audio output that pulls samples from a source.
type backend interface {
	// channels and format describe the samples layout the backend expects.
	channels() int
	format() keytone.SampleFormat

	// start begins the playback; the returned func stops it
	// and tells the control loop that the consumer is gone.
	start(src *keytone.Source) (func(), error)
}

func newBackend(name string) (backend, error) {
	switch name {
	case "ebiten":
		return ebitenBackend{}, nil
	case "oto":
		return otoBackend{}, nil
	case "portaudio":
		return newPortaudioBackend()
	}
	return nil, fmt.Errorf("unknown audio backend %q", name)
}

// ebitenBackend plays through the Ebitengine audio context,
// which only accepts 16-bit stereo streams.
type ebitenBackend struct{}

func (ebitenBackend) channels() int                { return 2 }
func (ebitenBackend) format() keytone.SampleFormat { return keytone.FormatInt16LE }

func (ebitenBackend) start(src *keytone.Source) (func(), error) {
	audioContext := audio.NewContext(src.SampleRate())
	player, err := audioContext.NewPlayer(src)
	if err != nil {
		return nil, err
	}
	player.Play()
	return func() {
		_ = player.Close()
		src.Close()
	}, nil
}

// otoBackend talks to oto directly, without any window.
type otoBackend struct{}

func (otoBackend) channels() int                { return 1 }
func (otoBackend) format() keytone.SampleFormat { return keytone.FormatFloat32LE }

func (otoBackend) start(src *keytone.Source) (func(), error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   src.SampleRate(),
		ChannelCount: src.Channels(),
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	player := ctx.NewPlayer(src)
	player.Play()
	return func() {
		_ = player.Close()
		src.Close()
	}, nil
}
