package synth

import (
	"math"
	"testing"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := DefaultConfig(48000)
	cfg.MaxPolyphony = 4
	return NewEngine(cfg)
}

func renderTicks(e *Engine, n int) []float32 {
	out := make([]float32, n)
	e.Process(out)
	return out
}

func peakAbs(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		if s < 0 {
			s = -s
		}
		if s > peak {
			peak = s
		}
	}
	return peak
}

func TestEngineEndToEnd(t *testing.T) {
	e := newTestEngine(t)

	// Raw bytes in, audio out.
	e.FeedMIDI([]byte{0x90, 69, 100})
	out := renderTicks(e, 4800)
	if peakAbs(out) == 0 {
		t.Fatalf("expected audible output after note on")
	}

	e.FeedMIDI([]byte{0x80, 69, 0})
	renderTicks(e, 48000)
	tail := renderTicks(e, 1000)
	if peakAbs(tail) > 1e-6 {
		t.Fatalf("expected silence after release, peak %g", peakAbs(tail))
	}
}

func TestEngineOutputClamped(t *testing.T) {
	e := newTestEngine(t)
	for _, note := range []int{48, 52, 55, 60} {
		e.NoteOn(note, 127)
	}
	for _, s := range renderTicks(e, 48000) {
		if s < -1.0 || s > 1.0 {
			t.Fatalf("output sample out of range: %f", s)
		}
	}
}

func TestEnginePolyphonyBound(t *testing.T) {
	e := newTestEngine(t)
	for note := 40; note < 80; note++ {
		e.NoteOn(note, 100)
		renderTicks(e, 16)
		if n := e.ActiveVoices(); n > 4 {
			t.Fatalf("active voices %d exceed polyphony 4", n)
		}
	}
}

func TestEngineSnapshotAppliedOnTick(t *testing.T) {
	e := newTestEngine(t)
	renderTicks(e, 8)

	snap := *e.Snapshot()
	snap.CutoffHz = 400
	snap.Waveform = Square
	e.Publish(snap)

	renderTicks(e, 1)
	if e.filter.cutoff != 400 {
		t.Fatalf("tick did not apply published cutoff, filter at %f", e.filter.cutoff)
	}
	if e.bank.wave != Square {
		t.Fatalf("waveform change not applied to bank")
	}
}

func TestEngineControlPathPublishes(t *testing.T) {
	e := newTestEngine(t)
	e.OfferControl(ChannelCutoff, 2000) // baseline

	published := false
	for i := 0; i < 10; i++ {
		if e.OfferControl(ChannelCutoff, 3500) {
			published = true
		}
	}
	if !published {
		t.Fatalf("sustained control change must publish")
	}

	before := e.Snapshot().CutoffHz
	renderTicks(e, 1)
	if e.filter.cutoff != float64(before) {
		t.Fatalf("tick did not pick up published cutoff: filter=%f snapshot=%f", e.filter.cutoff, before)
	}
}

func TestEngineVolumeControlChange(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(69, 127)
	renderTicks(e, 4800)
	loud := peakAbs(renderTicks(e, 4800))

	e.FeedMIDI([]byte{0xB0, 7, 16}) // CC7 volume down
	renderTicks(e, 100)
	quiet := peakAbs(renderTicks(e, 4800))

	if quiet >= loud {
		t.Fatalf("CC7 should reduce level: %f -> %f", loud, quiet)
	}
}

func TestEngineAllNotesOff(t *testing.T) {
	e := newTestEngine(t)
	for _, note := range []int{60, 64, 67} {
		e.NoteOn(note, 100)
	}
	renderTicks(e, 100)
	if e.ActiveVoices() != 3 {
		t.Fatalf("expected 3 active voices, got %d", e.ActiveVoices())
	}

	e.FeedMIDI([]byte{0xB0, 123, 0})
	renderTicks(e, 48000)
	if e.ActiveVoices() != 0 {
		t.Fatalf("expected silence after all-notes-off, got %d voices", e.ActiveVoices())
	}
}

func TestEngineEnvelopeCutoffModulation(t *testing.T) {
	e := newTestEngine(t)
	snap := *e.Snapshot()
	snap.CutoffHz = 500
	snap.EnvCutoffOctaves = 3
	e.Publish(snap)
	renderTicks(e, 1)

	n := e.filter.Recomputes()
	e.NoteOn(60, 127)
	renderTicks(e, 1000)
	if e.filter.Recomputes() <= n {
		t.Fatalf("envelope modulation should recompute coefficients while the envelope moves")
	}
}

func TestEngineReadProducesFloat32LE(t *testing.T) {
	e := newTestEngine(t)
	e.NoteOn(69, 127)
	renderTicks(e, 1000)

	buf := make([]byte, 256)
	n, err := e.Read(buf)
	if err != nil || n != len(buf) {
		t.Fatalf("read: n=%d err=%v", n, err)
	}
	nonzero := false
	for i := 0; i+4 <= len(buf); i += 4 {
		bits := uint32(buf[i]) | uint32(buf[i+1])<<8 | uint32(buf[i+2])<<16 | uint32(buf[i+3])<<24
		s := math.Float32frombits(bits)
		if s < -1.0 || s > 1.0 || math.IsNaN(float64(s)) {
			t.Fatalf("bad sample at offset %d: %f", i, s)
		}
		if s != 0 {
			nonzero = true
		}
	}
	if !nonzero {
		t.Fatalf("expected audio in Read output")
	}
}

func TestEngineTickNeverAllocates(t *testing.T) {
	e := newTestEngine(t)
	e.FeedMIDI([]byte{0x90, 60, 100, 0x90, 64, 100})
	renderTicks(e, 100)

	allocs := testing.AllocsPerRun(1000, func() {
		e.Tick()
	})
	if allocs != 0 {
		t.Fatalf("tick allocated %f times per run", allocs)
	}
}

func TestEngineDropsOldestUnderBurst(t *testing.T) {
	cfg := DefaultConfig(48000)
	cfg.MaxPolyphony = 4
	cfg.EventQueue = 4
	e := NewEngine(cfg)

	// A burst larger than the queue between two ticks.
	for note := 60; note < 72; note++ {
		e.FeedMIDI([]byte{0x90, uint8(note), 100})
	}
	renderTicks(e, 16)

	if e.DroppedEvents() == 0 {
		t.Fatalf("expected drops under burst")
	}
	// The newest notes survived.
	if v := findVoice(e.bank, 71); v == nil {
		t.Fatalf("most recent note must survive a burst")
	}
}
