package synth

import (
	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
)

// Filter is the post-mix lowpass stage: one or two cascaded biquad sections
// (12 or 24 dB/oct). Coefficients are recomputed only when cutoff, Q or slope
// actually change, not per sample. Envelope-to-cutoff modulation, when
// enabled, recomputes coefficients every tick; that extra design cost is the
// price of the effect and is why it is off by default.
type Filter struct {
	sampleRate float64

	cutoff float64
	q      float64
	slope  int

	modOctaves float64
	modLevel   float64

	sections   [2]biquad.Section
	nSections  int
	recomputes uint64
}

// NewFilter creates a filter with no sections configured; Configure must be
// called before Process does anything but pass input through.
func NewFilter(sampleRate float64) *Filter {
	return &Filter{sampleRate: sampleRate}
}

// Configure sets the cutoff (Hz), quality factor and slope (12 or 24 dB/oct).
// Calling it again with identical values is a no-op.
func (f *Filter) Configure(cutoffHz, q float64, slopeDBPerOct int) {
	if slopeDBPerOct != 24 {
		slopeDBPerOct = 12
	}
	if cutoffHz == f.cutoff && q == f.q && slopeDBPerOct == f.slope && f.nSections > 0 {
		return
	}
	f.cutoff = cutoffHz
	f.q = q
	f.slope = slopeDBPerOct
	f.design(cutoffHz)
}

// SetModulationOctaves sets the envelope-to-cutoff depth. Zero disables
// modulation.
func (f *Filter) SetModulationOctaves(oct float64) {
	f.modOctaves = oct
}

// Modulate applies the envelope level (0..1) to the cutoff. With a non-zero
// depth this redesigns the coefficients; it is intended to run once per tick.
func (f *Filter) Modulate(envLevel float64) {
	if f.modOctaves == 0 {
		return
	}
	if envLevel == f.modLevel {
		return
	}
	f.modLevel = envLevel
	shifted := f.cutoff * pow2f64(f.modOctaves*envLevel)
	max := nyquistHeadroom * f.sampleRate
	if shifted > max {
		shifted = max
	}
	f.design(shifted)
}

// design installs fresh coefficients for the given cutoff, preserving filter
// state so a coefficient change does not reset the two-sample history.
func (f *Filter) design(cutoffHz float64) {
	c := design.Lowpass(cutoffHz, f.q, f.sampleRate)
	f.sections[0].Coefficients = c
	f.nSections = 1
	if f.slope == 24 {
		f.sections[1].Coefficients = c
		f.nSections = 2
	}
	f.recomputes++
}

// Coefficients returns the current first-section coefficients.
func (f *Filter) Coefficients() biquad.Coefficients {
	return f.sections[0].Coefficients
}

// Recomputes reports how many times coefficients have been designed.
func (f *Filter) Recomputes() uint64 {
	return f.recomputes
}

// Process filters one sample.
func (f *Filter) Process(x float64) float64 {
	for i := 0; i < f.nSections; i++ {
		x = f.sections[i].ProcessSample(x)
	}
	return x
}

// Reset clears the section histories without touching the coefficients.
func (f *Filter) Reset() {
	for i := range f.sections {
		c := f.sections[i].Coefficients
		f.sections[i] = *biquad.NewSection(c)
	}
}
