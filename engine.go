package keytone

// Engine is a mixer driven by key events.
//
// Engine methods are only called from one goroutine at a time
// (the control loop or Render), so implementations don't need locking.
type Engine interface {
	// HandleKey applies a key event to the mixer state.
	HandleKey(ev KeyEvent)

	// NextFrame produces the next mixed frame.
	// A false result means "nothing to play"; the consumer
	// plays silence instead.
	NextFrame() ([]float32, bool)

	// FrameSize returns the length of the frames produced by NextFrame.
	FrameSize() int
}

// PolyEngine drives a PolyMixer: a key press starts the slot voice
// and a key release fades it out.
type PolyEngine struct {
	Mixer *PolyMixer

	// Frames is the generated frames length.
	Frames int
}

// NewPolyEngine is a convenience PolyEngine constructor.
// It panics if frameSize is not positive.
func NewPolyEngine(m *PolyMixer, frameSize int) *PolyEngine {
	if frameSize <= 0 {
		panic("keytone: poly frame size must be positive")
	}
	return &PolyEngine{Mixer: m, Frames: frameSize}
}

func (e *PolyEngine) HandleKey(ev KeyEvent) {
	if e.Mixer.Slots() == 0 {
		return
	}
	slot := int(ev.Code) % e.Mixer.Slots()
	switch ev.Transition {
	case TransitionDown:
		e.Mixer.ChangeKeyState(slot, KeyPress)
	case TransitionUp:
		e.Mixer.ChangeKeyState(slot, KeyRelease)
	}
}

func (e *PolyEngine) NextFrame() ([]float32, bool) {
	return e.Mixer.GenerateFrame(e.Frames), true
}

func (e *PolyEngine) FrameSize() int { return e.Frames }

// OverlayEngine drives an OverlayMixer: every key press
// starts the slot clip; the clip plays to the end no matter
// when the key is released.
type OverlayEngine struct {
	Mixer *OverlayMixer
}

// NewOverlayEngine is a convenience OverlayEngine constructor.
func NewOverlayEngine(m *OverlayMixer) *OverlayEngine {
	return &OverlayEngine{Mixer: m}
}

func (e *OverlayEngine) HandleKey(ev KeyEvent) {
	if ev.Transition != TransitionDown || e.Mixer.Slots() == 0 {
		return
	}
	slot := int(ev.Code) % e.Mixer.Slots()
	e.Mixer.PushSamples(e.Mixer.bank[slot])
}

func (e *OverlayEngine) NextFrame() ([]float32, bool) {
	return e.Mixer.GenerateFrame()
}

func (e *OverlayEngine) FrameSize() int { return e.Mixer.FrameSize() }
