//go:build linux

package inputdev

import (
	"context"
	"errors"
	"io"
	"syscall"
	"testing"
	"time"

	evdev "github.com/holoplot/go-evdev"

	"github.com/quasilyte/keytone"
)

type fakeDevice struct {
	events []evdev.InputEvent
	err    error
}

func (d *fakeDevice) ReadOne() (*evdev.InputEvent, error) {
	if len(d.events) == 0 {
		if d.err != nil {
			return nil, d.err
		}
		return nil, io.EOF
	}
	ev := d.events[0]
	d.events = d.events[1:]
	return &ev, nil
}

func inputEvent(at time.Duration, typ evdev.EvType, code evdev.EvCode, value int32) evdev.InputEvent {
	return evdev.InputEvent{
		Time:  syscall.NsecToTimeval(at.Nanoseconds()),
		Type:  typ,
		Code:  code,
		Value: value,
	}
}

func TestReadDevice(t *testing.T) {
	base := 100 * time.Second
	dev := &fakeDevice{events: []evdev.InputEvent{
		inputEvent(base+250*time.Microsecond, evdev.EV_MSC, 4, 30),
		inputEvent(base+500*time.Microsecond, evdev.EV_KEY, 30, 1),
		inputEvent(base+500*time.Microsecond, evdev.EV_SYN, 0, 0),
		inputEvent(base+time.Second, evdev.EV_KEY, 30, 2),
		inputEvent(base+time.Second+20*time.Microsecond, evdev.EV_KEY, 30, 0),
		inputEvent(base+time.Second+20*time.Microsecond, evdev.EV_KEY, 31, 7),
	}}

	var events []keytone.KeyEvent
	err := readDevice(dev, func(ev keytone.KeyEvent) error {
		events = append(events, ev)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	want := []keytone.Transition{
		keytone.TransitionDown,
		keytone.TransitionRepeat,
		keytone.TransitionUp,
		keytone.TransitionUnknown,
	}
	if len(events) != len(want) {
		t.Fatalf("decoded %d events, expected %d", len(events), len(want))
	}
	for i, tr := range want {
		if events[i].Transition != tr {
			t.Errorf("event %d: transition %v, expected %v", i, events[i].Transition, tr)
		}
	}
	if events[0].Code != 30 || events[3].Code != 31 {
		t.Errorf("unexpected codes: %d %d", events[0].Code, events[3].Code)
	}
	if !events[0].Time.Equal(time.Unix(100, 500000)) {
		t.Errorf("unexpected timestamp: %v", events[0].Time)
	}
}

func TestReadDeviceError(t *testing.T) {
	dev := &fakeDevice{
		events: []evdev.InputEvent{inputEvent(0, evdev.EV_KEY, 1, 1)},
		err:    io.ErrUnexpectedEOF,
	}
	calls := 0
	err := readDevice(dev, func(keytone.KeyEvent) error {
		calls++
		return nil
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestReadDeviceCallbackError(t *testing.T) {
	dev := &fakeDevice{events: []evdev.InputEvent{
		inputEvent(0, evdev.EV_KEY, 1, 1),
		inputEvent(0, evdev.EV_KEY, 2, 1),
	}}
	stop := errors.New("stop")
	calls := 0
	err := readDevice(dev, func(keytone.KeyEvent) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("err=%v calls=%d", err, calls)
	}
}

func TestEvdevSourceMissingDevice(t *testing.T) {
	s := &EvdevSource{Path: "/nonexistent/input/event99"}
	q := keytone.NewEventQueue(keytone.EventQueueConfig{})
	if err := s.ReadEvents(context.Background(), q); err == nil {
		t.Fatal("expected an error")
	}
}
