package keyscript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/quasilyte/keytone"
)

func TestParse(t *testing.T) {
	src := `
events:
  - at: 500ms
    code: 7
    transition: down
  - at: 0s
    key: z
    hold: 250ms
  - at: 1s
    code: 7
    transition: up
  - at: 100ms
    key: Q
    transition: repeat
`
	events, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}

	type expected struct {
		offset     time.Duration
		code       uint16
		transition keytone.Transition
	}
	want := []expected{
		{0, 0, keytone.TransitionDown},
		{100 * time.Millisecond, 12, keytone.TransitionRepeat},
		{250 * time.Millisecond, 0, keytone.TransitionUp},
		{500 * time.Millisecond, 7, keytone.TransitionDown},
		{time.Second, 7, keytone.TransitionUp},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, expected %d", len(events), len(want))
	}
	for i, w := range want {
		have := events[i]
		if have.Offset != w.offset || have.Event.Code != w.code || have.Event.Transition != w.transition {
			t.Errorf("event %d: have %v %d %v, want %v %d %v",
				i, have.Offset, have.Event.Code, have.Event.Transition,
				w.offset, w.code, w.transition)
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		err  string
	}{
		{"bad offset", "events:\n  - at: soon\n    code: 1\n", "at:"},
		{"negative offset", "events:\n  - at: -1s\n    code: 1\n", "negative"},
		{"no key", "events:\n  - at: 1s\n", "either key or code"},
		{"key and code", "events:\n  - at: 1s\n    key: z\n    code: 1\n", "mutually exclusive"},
		{"unmapped key", "events:\n  - at: 1s\n    key: a\n", "not mapped"},
		{"long key", "events:\n  - at: 1s\n    key: zz\n", "single character"},
		{"bad transition", "events:\n  - at: 1s\n    code: 1\n    transition: wiggle\n", "unknown transition"},
		{"hold on release", "events:\n  - at: 1s\n    code: 1\n    transition: up\n    hold: 1s\n", "hold"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.src))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), test.err) {
				t.Fatalf("error %q doesn't mention %q", err, test.err)
			}
		})
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	events := []keytone.ScriptedEvent{
		{Offset: 0, Event: keytone.KeyEvent{Code: 3, Transition: keytone.TransitionDown}},
		{Offset: 20 * time.Millisecond, Event: keytone.KeyEvent{Code: 3, Transition: keytone.TransitionRepeat}},
		{Offset: 1500 * time.Millisecond, Event: keytone.KeyEvent{Code: 3, Transition: keytone.TransitionUp}},
		{Offset: 2 * time.Second, Event: keytone.KeyEvent{Code: 9}},
	}
	data, err := Marshal(events)
	if err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "script.yaml")
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		t.Fatal(err)
	}
	decoded, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}

	// Unknown transitions are not written.
	if len(decoded) != 3 {
		t.Fatalf("got %d events, expected 3", len(decoded))
	}
	for i := range decoded {
		if decoded[i] != events[i] {
			t.Errorf("event %d: have %+v, want %+v", i, decoded[i], events[i])
		}
	}
}
