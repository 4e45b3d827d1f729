//go:build portaudio

package commands

import (
	pa "github.com/gordonklaus/portaudio"

	"github.com/quasilyte/keytone"
)

// portaudioBackend uses a callback stream: the audio thread
// asks for a buffer and the source fills it right away.
type portaudioBackend struct{}

func newPortaudioBackend() (backend, error) {
	return portaudioBackend{}, nil
}

func (portaudioBackend) channels() int                { return 1 }
func (portaudioBackend) format() keytone.SampleFormat { return keytone.FormatFloat32LE }

func (portaudioBackend) start(src *keytone.Source) (func(), error) {
	if err := pa.Initialize(); err != nil {
		return nil, err
	}
	stream, err := pa.OpenDefaultStream(0, 1, float64(src.SampleRate()), pa.FramesPerBufferUnspecified, src.ReadSamples)
	if err != nil {
		pa.Terminate()
		return nil, err
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		pa.Terminate()
		return nil, err
	}
	return func() {
		stream.Stop()
		stream.Close()
		pa.Terminate()
		src.Close()
	}, nil
}
