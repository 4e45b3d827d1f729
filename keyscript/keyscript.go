// Package keyscript loads key event scripts used for offline rendering
// and for replaying a performance through the real-time pipeline.
//
// A script is a YAML document:
//
//	events:
//	  - at: 0s
//	    key: z
//	    hold: 250ms
//	  - at: 500ms
//	    code: 7
//	    transition: down
//	  - at: 1s
//	    code: 7
//	    transition: up
//
// An event names either a keyboard key (mapped with the default layout)
// or a raw key code. The hold field turns a key press into a tap:
// the matching up transition is generated after the hold time.
package keyscript

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goccy/go-yaml"

	"github.com/quasilyte/keytone"
	"github.com/quasilyte/keytone/internal/keydb"
)

type script struct {
	Events []entry `yaml:"events"`
}

type entry struct {
	At         string  `yaml:"at"`
	Key        string  `yaml:"key,omitempty"`
	Code       *uint16 `yaml:"code,omitempty"`
	Transition string  `yaml:"transition,omitempty"`
	Hold       string  `yaml:"hold,omitempty"`
}

// Load reads and parses a script file.
func Load(filename string) ([]keytone.ScriptedEvent, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	events, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return events, nil
}

// Parse decodes a script.
// The result is sorted by the event offsets; events with
// equal offsets keep their script order.
func Parse(data []byte) ([]keytone.ScriptedEvent, error) {
	var s script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	events := make([]keytone.ScriptedEvent, 0, len(s.Events))
	for i, e := range s.Events {
		decoded, err := e.decode()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, decoded...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Offset < events[j].Offset
	})
	return events, nil
}

func (e *entry) decode() ([]keytone.ScriptedEvent, error) {
	at, err := parseOffset(e.At)
	if err != nil {
		return nil, fmt.Errorf("at: %w", err)
	}
	code, err := e.code()
	if err != nil {
		return nil, err
	}

	transition := keytone.TransitionDown
	switch strings.ToLower(e.Transition) {
	case "", "down", "press":
	case "up", "release":
		transition = keytone.TransitionUp
	case "repeat":
		transition = keytone.TransitionRepeat
	default:
		return nil, fmt.Errorf("unknown transition %q", e.Transition)
	}

	events := []keytone.ScriptedEvent{{
		Offset: at,
		Event:  keytone.KeyEvent{Code: code, Transition: transition},
	}}
	if e.Hold == "" {
		return events, nil
	}

	if transition != keytone.TransitionDown {
		return nil, fmt.Errorf("hold is only valid for a key press")
	}
	hold, err := parseOffset(e.Hold)
	if err != nil {
		return nil, fmt.Errorf("hold: %w", err)
	}
	events = append(events, keytone.ScriptedEvent{
		Offset: at + hold,
		Event:  keytone.KeyEvent{Code: code, Transition: keytone.TransitionUp},
	})
	return events, nil
}

func (e *entry) code() (uint16, error) {
	switch {
	case e.Key != "" && e.Code != nil:
		return 0, fmt.Errorf("key and code are mutually exclusive")
	case e.Code != nil:
		return *e.Code, nil
	case e.Key == "":
		return 0, fmt.Errorf("either key or code is required")
	}
	r, size := utf8.DecodeRuneInString(e.Key)
	if size != len(e.Key) {
		return 0, fmt.Errorf("key %q is not a single character", e.Key)
	}
	code, ok := keydb.Default.Code(r)
	if !ok {
		return 0, fmt.Errorf("key %q is not mapped", e.Key)
	}
	return code, nil
}

func parseOffset(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %s", s)
	}
	return d, nil
}

// Marshal encodes events as a script that Parse accepts.
// Every event is written with its raw code and transition.
func Marshal(events []keytone.ScriptedEvent) ([]byte, error) {
	s := script{Events: make([]entry, 0, len(events))}
	for _, se := range events {
		code := se.Event.Code
		var transition string
		switch se.Event.Transition {
		case keytone.TransitionDown:
			transition = "down"
		case keytone.TransitionUp:
			transition = "up"
		case keytone.TransitionRepeat:
			transition = "repeat"
		default:
			continue
		}
		s.Events = append(s.Events, entry{
			At:         se.Offset.String(),
			Code:       &code,
			Transition: transition,
		})
	}
	return yaml.Marshal(s)
}
