package synth

import (
	"fmt"
	"math"
	"strings"
)

// Waveform selects the oscillator shape.
type Waveform uint8

const (
	Sine Waveform = iota
	Square
	Triangle
	Sawtooth
	numWaveforms
)

// String returns the lowercase waveform name.
func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Square:
		return "square"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	default:
		return "unknown"
	}
}

// ParseWaveform parses a waveform name as used in presets.
func ParseWaveform(name string) (Waveform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sine":
		return Sine, nil
	case "square":
		return Square, nil
	case "triangle":
		return Triangle, nil
	case "sawtooth", "saw":
		return Sawtooth, nil
	default:
		return Sine, fmt.Errorf("unknown waveform %q", name)
	}
}

// Sample evaluates the waveform at a normalized phase in [0,1).
// Output is in [-1,1]. No band limiting is applied.
func (w Waveform) Sample(phase float32) float32 {
	switch w {
	case Sine:
		return float32(math.Sin(2 * math.Pi * float64(phase)))
	case Square:
		if phase < 0.5 {
			return 1.0
		}
		return -1.0
	case Triangle:
		switch {
		case phase < 0.25:
			return 4.0 * phase
		case phase < 0.75:
			return 2.0 - 4.0*phase
		default:
			return 4.0*phase - 4.0
		}
	case Sawtooth:
		return 2.0*phase - 1.0
	default:
		return 0.0
	}
}

// Oscillator tracks phase for one voice. The waveform itself is stateless;
// all per-voice oscillator state is the phase and its per-sample increment.
type Oscillator struct {
	phase float32
	inc   float32
}

// SetNote tunes the oscillator to a MIDI note and resets the phase.
func (o *Oscillator) SetNote(note int, sampleRate float32) {
	o.phase = 0
	o.inc = midiNoteToFreq(note) / sampleRate
}

// Next returns the current sample and advances the phase by one tick.
func (o *Oscillator) Next(w Waveform) float32 {
	s := w.Sample(o.phase)
	o.phase += o.inc
	if o.phase >= 1.0 {
		o.phase -= 1.0
	}
	return s
}
