package synth

import (
	"encoding/binary"
	"math"
)

// MIDI controllers the engine acts on.
const (
	ccVolume       = 7
	ccAllSoundOff  = 120
	ccAllNotesOff  = 123
)

// Engine is the top-level synthesis context. It owns the voice bank, the
// event ring, the parameter store and the filter, and produces exactly one
// output sample per Tick.
//
// Two timing domains meet here. FeedMIDI and OfferControl run in the input
// domain (serial receiver, control poller); Tick runs in the audio domain.
// The only shared state is the wait-free event ring and the atomically
// swapped parameter snapshot, so neither domain ever blocks the other, and
// the tick never allocates.
type Engine struct {
	sampleRate float32
	bank       *VoiceBank
	ring       *EventRing
	decoder    Decoder
	store      *SnapshotStore
	debouncer  *ControlDebouncer
	filter     *Filter

	lastGeneration uint64
	voiceScale     float32
	masterGain     float32
	ccGain         float32
	modEnabled     bool
}

// NewEngine builds an engine from the configuration. All per-tick state is
// sized here; nothing on the tick path allocates afterwards.
func NewEngine(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.MaxPolyphony < 1 {
		cfg.MaxPolyphony = 8
	}
	if cfg.EventQueue < 1 {
		cfg.EventQueue = 64
	}
	initial := cfg.Initial
	if initial == (Snapshot{}) {
		initial = DefaultSnapshot(cfg.SampleRate)
	}
	initial.CutoffHz = clampf(initial.CutoffHz, minCutoffHz, maxCutoffFor(float32(cfg.SampleRate)))

	e := &Engine{
		sampleRate: float32(cfg.SampleRate),
		bank:       NewVoiceBank(float32(cfg.SampleRate), cfg.MaxPolyphony, cfg.StealPolicy),
		ring:       NewEventRing(cfg.EventQueue),
		store:      NewSnapshotStore(initial),
		filter:     NewFilter(float64(cfg.SampleRate)),
		// The sum of n full-scale voices stays inside [-1,1] after this
		// scale, so clamping is a safety net rather than the usual path.
		voiceScale: 1.0 / float32(cfg.MaxPolyphony),
		masterGain: 1.0,
		ccGain:     1.0,
	}
	e.debouncer = NewControlDebouncer(cfg.Debounce, e.sampleRate, e.store)
	e.applySnapshot(e.store.Load())
	return e
}

// FeedMIDI pushes raw MIDI bytes through the decoder into the event ring.
// It belongs to the input domain and never blocks; if the ring is full the
// oldest unread event is dropped.
func (e *Engine) FeedMIDI(bytes []byte) {
	for _, b := range bytes {
		if ev, ok := e.decoder.Feed(b); ok {
			e.ring.Push(ev)
		}
	}
}

// OfferControl feeds one raw control sample (e.g. a 0..4095 ADC reading) to
// the debouncer. It reports whether the sample caused a snapshot publication.
func (e *Engine) OfferControl(ch ControlChannel, raw int) bool {
	return e.debouncer.Offer(ch, raw)
}

// NoteOn triggers a note directly, bypassing the MIDI byte path. Intended
// for tools and tests; live input should go through FeedMIDI.
func (e *Engine) NoteOn(note, velocity int) {
	e.ring.Push(Event{Kind: EventNoteOn, Note: uint8(note), Velocity: uint8(velocity)})
}

// NoteOff releases a note directly.
func (e *Engine) NoteOff(note int) {
	e.ring.Push(Event{Kind: EventNoteOff, Note: uint8(note)})
}

// Tick renders one output sample. This is the hard-deadline path: it drains
// pending events, picks up a new parameter snapshot if one was published,
// advances every voice, filters the mix and clamps the result to [-1,1].
func (e *Engine) Tick() float32 {
	for {
		ev, ok := e.ring.Pop()
		if !ok {
			break
		}
		e.handleEvent(ev)
	}

	snap := e.store.Load()
	if snap.Generation != e.lastGeneration {
		e.applySnapshot(snap)
	}

	sum, peakEnv := e.bank.Mix()
	if e.modEnabled {
		e.filter.Modulate(float64(peakEnv))
	}
	y := e.filter.Process(float64(sum * e.voiceScale * e.masterGain))
	return clampf(float32(y), -1, 1)
}

// Process renders a block of samples into out, one tick per element.
func (e *Engine) Process(out []float32) {
	for i := range out {
		out[i] = e.Tick()
	}
}

// Read implements io.Reader producing little-endian float32 mono PCM, the
// pull model used by oto-style audio backends. Short trailing bytes are
// zero-filled.
func (e *Engine) Read(p []byte) (int, error) {
	n := len(p) / 4
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(e.Tick()))
	}
	for i := n * 4; i < len(p); i++ {
		p[i] = 0
	}
	return len(p), nil
}

func (e *Engine) handleEvent(ev Event) {
	switch ev.Kind {
	case EventNoteOn, EventNoteOff:
		e.bank.HandleEvent(ev)
	case EventControlChange:
		switch ev.Controller {
		case ccVolume:
			e.ccGain = float32(ev.Value) / 127.0
			e.masterGain = e.store.Load().MasterGain * e.ccGain
		case ccAllSoundOff:
			e.bank.QuickReleaseAll()
		case ccAllNotesOff:
			e.bank.ReleaseAll()
		}
	}
}

// applySnapshot pushes a freshly published snapshot into the components that
// derive state from it. Filter coefficients and envelope increments are
// recomputed here, once per change, not per tick.
func (e *Engine) applySnapshot(snap *Snapshot) {
	e.bank.SetEnvelopeTimes(snap.AttackMS, snap.DecayMS, snap.SustainLevel, snap.ReleaseMS)
	e.bank.SetWaveform(snap.Waveform)
	e.filter.Configure(float64(snap.CutoffHz), float64(snap.Q), snap.SlopeDBPerOct)
	e.filter.SetModulationOctaves(float64(snap.EnvCutoffOctaves))
	e.modEnabled = snap.EnvCutoffOctaves != 0
	e.masterGain = snap.MasterGain * e.ccGain
	e.lastGeneration = snap.Generation
}

// Snapshot returns the parameter snapshot the engine last applied.
func (e *Engine) Snapshot() *Snapshot {
	return e.store.Load()
}

// Publish installs a complete parameter snapshot, bypassing the debouncer.
// Used by presets and tools.
func (e *Engine) Publish(snap Snapshot) {
	snap.CutoffHz = clampf(snap.CutoffHz, minCutoffHz, maxCutoffFor(e.sampleRate))
	e.store.Publish(snap)
}

// ActiveVoices reports how many voices are currently sounding.
func (e *Engine) ActiveVoices() int {
	return e.bank.ActiveCount()
}

// Bank exposes the voice bank for inspection.
func (e *Engine) Bank() *VoiceBank {
	return e.bank
}

// DroppedEvents reports how many MIDI events the ring has discarded.
func (e *Engine) DroppedEvents() uint64 {
	return e.ring.Dropped()
}

// DiscardedBytes reports how many malformed MIDI bytes the decoder skipped.
func (e *Engine) DiscardedBytes() uint64 {
	return e.decoder.Discarded()
}

// SampleRate returns the engine sample rate in Hz.
func (e *Engine) SampleRate() int {
	return int(e.sampleRate)
}
