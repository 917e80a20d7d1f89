package synth

// Voice couples one oscillator and one envelope with a note identity. Voices
// live in the bank's fixed pool; they are reused, never reallocated.
type Voice struct {
	note     int // -1 when the voice has never sounded
	velocity int
	gain     float32
	osc      Oscillator
	env      Envelope
	age      uint64 // allocation stamp, smaller = older

	// A stolen voice quick-releases its old note first; the incoming note
	// waits here and starts the moment the envelope reaches idle.
	pendingNote int
	pendingVel  int
}

// Note returns the MIDI note this voice is bound to, or -1.
func (v *Voice) Note() int {
	return v.note
}

// Stage returns the voice envelope stage.
func (v *Voice) Stage() EnvelopeStage {
	return v.env.Stage()
}

// Active reports whether the voice currently contributes to the mix.
func (v *Voice) Active() bool {
	return v.env.Stage() != StageIdle
}

func (v *Voice) start(note, velocity int, sampleRate float32, cfg *envelopeConfig, stamp uint64) {
	v.note = note
	v.velocity = velocity
	v.gain = float32(velocity) / 127.0
	v.osc.SetNote(note, sampleRate)
	v.age = stamp
	v.pendingNote = -1
	v.env.Trigger(cfg)
}

// retrigger restarts the envelope for a note the voice is already sounding.
// The ramp continues from the current level, so there is no level jump.
func (v *Voice) retrigger(velocity int, cfg *envelopeConfig, stamp uint64) {
	v.velocity = velocity
	v.gain = float32(velocity) / 127.0
	v.age = stamp
	v.env.Trigger(cfg)
}

// steal fades the sounding note out quickly and queues the new note. The
// voice takes its new allocation stamp immediately so a second steal in the
// same burst picks a different victim.
func (v *Voice) steal(note, velocity int, cfg *envelopeConfig, stamp uint64) {
	v.pendingNote = note
	v.pendingVel = velocity
	v.age = stamp
	v.env.QuickRelease(cfg)
}

func (v *Voice) release(cfg *envelopeConfig) {
	v.env.Release(cfg)
}

// next renders one sample and advances the voice. Idle voices contribute
// zero. A pending stolen note starts as soon as the fade-out completes.
func (v *Voice) next(sampleRate float32, cfg *envelopeConfig, w Waveform) float32 {
	if !v.Active() {
		if v.pendingNote >= 0 {
			v.start(v.pendingNote, v.pendingVel, sampleRate, cfg, v.age)
		} else {
			return 0
		}
	}
	level := v.env.Next(cfg)
	return v.osc.Next(w) * level * v.gain
}
