//go:build !portaudio

package commands

import "errors"

func newPortaudioBackend() (backend, error) {
	return nil, errors.New("built without portaudio support, rebuild with -tags portaudio")
}
