package synth

// StealPolicy selects which sounding voice is sacrificed when a note arrives
// and the pool is exhausted.
type StealPolicy uint8

const (
	// StealOldestReleaseFirst prefers the oldest voice already in release;
	// if none is releasing it falls back to the oldest voice overall.
	StealOldestReleaseFirst StealPolicy = iota
	// StealOldest always takes the oldest voice regardless of stage.
	StealOldest
)

// VoiceBank maps note events onto a fixed pool of voices and enforces the
// maximum polyphony. The pool is allocated once at construction; all event
// handling mutates it in place.
type VoiceBank struct {
	sampleRate float32
	voices     []Voice
	clock      uint64
	policy     StealPolicy
	wave       Waveform
	envCfg     envelopeConfig
}

// NewVoiceBank creates a pool of n voices.
func NewVoiceBank(sampleRate float32, n int, policy StealPolicy) *VoiceBank {
	if n < 1 {
		n = 1
	}
	b := &VoiceBank{
		sampleRate: sampleRate,
		voices:     make([]Voice, n),
		policy:     policy,
	}
	for i := range b.voices {
		b.voices[i].note = -1
		b.voices[i].pendingNote = -1
	}
	b.envCfg.set(sampleRate, defaultAttackMS, defaultDecayMS, defaultSustainLevel, defaultReleaseMS)
	return b
}

// HandleEvent applies one decoded MIDI event to the pool.
func (b *VoiceBank) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventNoteOn:
		b.NoteOn(int(ev.Note), int(ev.Velocity))
	case EventNoteOff:
		b.NoteOff(int(ev.Note))
	}
}

// NoteOn assigns a voice to the note. A note that is already sounding is
// retriggered on its existing voice; otherwise the lowest-index free voice is
// used; when the pool is exhausted a voice is stolen per the bank's policy.
func (b *VoiceBank) NoteOn(note, velocity int) {
	if note < 0 || note > 127 {
		return
	}
	if velocity < 1 {
		b.NoteOff(note)
		return
	}
	b.clock++
	stamp := b.clock

	for i := range b.voices {
		v := &b.voices[i]
		if v.Active() && v.note == note && v.pendingNote < 0 {
			v.retrigger(velocity, &b.envCfg, stamp)
			return
		}
		if v.pendingNote == note {
			v.pendingVel = velocity
			return
		}
	}

	for i := range b.voices {
		v := &b.voices[i]
		if !v.Active() && v.pendingNote < 0 {
			v.start(note, velocity, b.sampleRate, &b.envCfg, stamp)
			return
		}
	}

	b.voices[b.stealIndex()].steal(note, velocity, &b.envCfg, stamp)
}

// stealIndex picks the victim voice for the configured policy.
func (b *VoiceBank) stealIndex() int {
	oldest := 0
	oldestRelease := -1
	for i := range b.voices {
		v := &b.voices[i]
		if v.age < b.voices[oldest].age {
			oldest = i
		}
		if b.policy == StealOldestReleaseFirst && v.env.releasing() && v.pendingNote < 0 {
			if oldestRelease < 0 || v.age < b.voices[oldestRelease].age {
				oldestRelease = i
			}
		}
	}
	if oldestRelease >= 0 {
		return oldestRelease
	}
	return oldest
}

// NoteOff releases the voice mapped to the note. A note with no mapped voice
// (already stolen, or never sounded) is silently ignored.
func (b *VoiceBank) NoteOff(note int) {
	for i := range b.voices {
		v := &b.voices[i]
		if v.pendingNote == note {
			v.pendingNote = -1
			continue
		}
		if v.Active() && v.note == note && !v.env.releasing() {
			v.release(&b.envCfg)
		}
	}
}

// ReleaseAll releases every sounding voice (MIDI all-notes-off).
func (b *VoiceBank) ReleaseAll() {
	for i := range b.voices {
		b.voices[i].pendingNote = -1
		b.voices[i].release(&b.envCfg)
	}
}

// QuickReleaseAll fades every sounding voice out over the quick-release ramp
// (MIDI all-sound-off).
func (b *VoiceBank) QuickReleaseAll() {
	for i := range b.voices {
		b.voices[i].pendingNote = -1
		b.voices[i].env.QuickRelease(&b.envCfg)
	}
}

// SetWaveform switches the oscillator shape for all voices. Phase is
// preserved so a change mid-note does not click.
func (b *VoiceBank) SetWaveform(w Waveform) {
	b.wave = w
}

// SetEnvelopeTimes reconfigures the shared ADSR timings. Per-sample
// increments are derived here once, not per tick.
func (b *VoiceBank) SetEnvelopeTimes(attackMS, decayMS, sustain, releaseMS float32) {
	b.envCfg.set(b.sampleRate, attackMS, decayMS, sustain, releaseMS)
}

// ActiveCount reports how many voices are currently sounding.
func (b *VoiceBank) ActiveCount() int {
	n := 0
	for i := range b.voices {
		if b.voices[i].Active() {
			n++
		}
	}
	return n
}

// Mix renders one sample from every active voice and returns their sum along
// with the loudest envelope level, used for filter modulation.
func (b *VoiceBank) Mix() (sum, peakEnv float32) {
	for i := range b.voices {
		v := &b.voices[i]
		sum += v.next(b.sampleRate, &b.envCfg, b.wave)
		if level := v.env.Level(); level > peakEnv {
			peakEnv = level
		}
	}
	return sum, peakEnv
}

// Voices exposes a read-only view of the pool for inspection and tests.
func (b *VoiceBank) Voices() []Voice {
	return b.voices
}
