// keytone is a computer keyboard tone generator.
//
// Key presses from input devices, a terminal or a game window start
// tones, key releases fade them out.
//
// Usage:
//
//	keytone play                                   # play with the window keyboard
//	keytone play --input term                      # play from the terminal
//	keytone play --device /dev/input/event3        # read a keyboard device
//	keytone play --mixer overlay --clip a.wav      # play one-shot clips
//	keytone render --script song.yaml --out a.wav  # render a key script offline
package main

import (
	"os"

	"github.com/quasilyte/keytone/cmd/keytone/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
