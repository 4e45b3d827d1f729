package keytone

// voiceState is a voice playback phase.
// Each playing phase reads from its own envelope segment.
type voiceState uint8

const (
	voiceStopped voiceState = iota
	voiceStarting
	voiceMaintaining
	voiceStopping
)

func (s voiceState) String() string {
	switch s {
	case voiceStopped:
		return "stopped"
	case voiceStarting:
		return "starting"
	case voiceMaintaining:
		return "maintaining"
	case voiceStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// next returns the state that follows s once its segment runs out.
func (s voiceState) next() voiceState {
	switch s {
	case voiceStarting:
		return voiceMaintaining
	case voiceMaintaining:
		return voiceMaintaining
	case voiceStopping:
		return voiceStopped
	default:
		panic("keytone: a stopped voice has no next state")
	}
}

// segment selects the envelope samples played in state s.
func segment(e *Envelope, s voiceState) []float32 {
	switch s {
	case voiceStarting:
		return e.start
	case voiceMaintaining:
		return e.sustain
	case voiceStopping:
		return e.stop
	default:
		panic("keytone: a stopped voice has no samples")
	}
}

// voice plays one pitch slot envelope.
//
// External requests (press, release) don't switch the segment right away:
// they are recorded in pending and committed only when the cursor
// sits on a waveform period boundary.
type voice struct {
	env *Envelope

	state      voiceState
	pending    voiceState
	hasPending bool

	cursor int
}

func newVoice(env *Envelope) voice {
	return voice{env: env}
}

func (v *voice) IsStopped() bool { return v.state == voiceStopped }

// press starts the voice over.
// A silent voice starts immediately, a sounding one at the next period boundary.
func (v *voice) press() {
	if v.state == voiceStopped {
		v.enter(voiceStarting)
		return
	}
	v.pending = voiceStarting
	v.hasPending = true
}

// release schedules a fade-out unless the voice is already fading or silent.
func (v *voice) release() {
	switch v.state {
	case voiceStopping, voiceStopped:
		return
	}
	v.pending = voiceStopping
	v.hasPending = true
}

// forceStop silences the voice right away, dropping any pending request.
func (v *voice) forceStop() {
	v.state = voiceStopped
	v.hasPending = false
	v.cursor = 0
}

// canCommit reports whether a pending request may take effect now.
func (v *voice) canCommit() bool {
	return v.hasPending && v.cursor%v.env.Period() == 0
}

// enter switches to s at the segment start.
// Empty segments (zero-length attack or release) are skipped over.
func (v *voice) enter(s voiceState) {
	v.cursor = 0
	for s != voiceStopped && len(segment(v.env, s)) == 0 {
		s = s.next()
	}
	v.state = s
}

// takeValue reads the next sample and advances the state machine.
// It must never be called for a stopped voice.
func (v *voice) takeValue() float32 {
	data := segment(v.env, v.state)
	value := data[v.cursor]
	v.cursor++

	if v.canCommit() {
		v.hasPending = false
		v.enter(v.pending)
		return value
	}

	if v.cursor == len(data) {
		v.enter(v.state.next())
	}
	return value
}
