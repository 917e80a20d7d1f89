package synth

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// midiNoteToFreq converts a MIDI note number to frequency in Hz.
func midiNoteToFreq(note int) float32 {
	// A4 (note 69) = 440 Hz, equal temperament.
	const a4Freq = 440.0
	const a4Note = 69
	exponent := float32(note-a4Note) / 12.0
	return a4Freq * pow2Approx(exponent)
}

func pow2Approx(x float32) float32 {
	const ln2 = 0.69314718055994530942
	return approx.FastExp(x * ln2)
}

func pow2f64(x float64) float64 {
	return float64(pow2Approx(float32(x)))
}

// powf computes a^x. Only used on the control path, never per sample.
func powf(a, x float32) float32 {
	return float32(math.Pow(float64(a), float64(x)))
}

func clampf(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
