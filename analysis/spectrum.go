package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
)

// Report summarizes the spectral content of a rendered mono signal.
type Report struct {
	SampleRate int `json:"sample_rate"`
	Frames     int `json:"frames"`
	FFTSize    int `json:"fft_size"`

	PeakLevel  float64 `json:"peak_level"`
	RMSLevelDB float64 `json:"rms_level_db"`

	DominantHz float64 `json:"dominant_hz"`
	DominantDB float64 `json:"dominant_db"`
	RolloffHz  float64 `json:"rolloff_hz"`
}

// Analyze renders a spectral report for a mono signal. The FFT size adapts
// to the signal length, capped at 8192 samples.
func Analyze(signal []float64, sampleRate int) (Report, error) {
	r := Report{
		SampleRate: sampleRate,
		Frames:     len(signal),
	}
	if sampleRate <= 0 {
		return r, fmt.Errorf("analyze: sample rate %d", sampleRate)
	}
	if len(signal) < 256 {
		return r, fmt.Errorf("analyze: %d frames is too short", len(signal))
	}

	fftSize := 8192
	for fftSize > len(signal) {
		fftSize /= 2
	}
	r.FFTSize = fftSize

	for _, v := range signal {
		if a := math.Abs(v); a > r.PeakLevel {
			r.PeakLevel = a
		}
	}
	r.RMSLevelDB = linToDB(rms(signal))

	mags, err := MagnitudeSpectrum(signal, fftSize)
	if err != nil {
		return r, err
	}
	r.DominantHz, r.DominantDB = DominantFrequency(mags, sampleRate, fftSize)
	r.RolloffHz = rolloff(mags, sampleRate, fftSize, 0.95)
	return r, nil
}

// MagnitudeSpectrum returns the Hann-windowed magnitude spectrum of the
// signal, averaged over half-overlapping frames. The result has
// fftSize/2+1 bins; bin k corresponds to k*sampleRate/fftSize Hz.
func MagnitudeSpectrum(signal []float64, fftSize int) ([]float64, error) {
	if fftSize < 16 || fftSize&(fftSize-1) != 0 {
		return nil, fmt.Errorf("spectrum: fft size %d is not a power of two", fftSize)
	}
	if len(signal) < fftSize {
		return nil, fmt.Errorf("spectrum: %d frames for fft size %d", len(signal), fftSize)
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("spectrum: %w", err)
	}

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	hop := fftSize / 2
	buf := make([]float64, fftSize)
	spec := make([]complex128, fftSize/2+1)
	avg := make([]float64, fftSize/2+1)

	nFrames := 0
	for pos := 0; pos+fftSize <= len(signal); pos += hop {
		for i := 0; i < fftSize; i++ {
			buf[i] = signal[pos+i] * hann[i]
		}
		if err := plan.Forward(spec, buf); err != nil {
			return nil, fmt.Errorf("spectrum: %w", err)
		}
		for k := range spec {
			avg[k] += cmplx.Abs(spec[k])
		}
		nFrames++
	}

	scale := 1.0 / float64(nFrames)
	for k := range avg {
		avg[k] *= scale
	}
	return avg, nil
}

// DominantFrequency locates the strongest bin above DC and refines it by
// parabolic interpolation over the bin's log-magnitude neighbours. It
// returns the frequency in Hz and its level in dB.
func DominantFrequency(mags []float64, sampleRate, fftSize int) (float64, float64) {
	if len(mags) < 3 {
		return 0, linToDB(0)
	}
	best := 1
	for k := 2; k < len(mags); k++ {
		if mags[k] > mags[best] {
			best = k
		}
	}

	binHz := float64(sampleRate) / float64(fftSize)
	freq := float64(best) * binHz
	level := linToDB(mags[best])
	if best <= 1 || best >= len(mags)-1 {
		return freq, level
	}

	a := linToDB(mags[best-1])
	b := linToDB(mags[best])
	c := linToDB(mags[best+1])
	den := a - 2*b + c
	if math.Abs(den) > 1e-12 {
		delta := 0.5 * (a - c) / den
		if delta > -0.5 && delta < 0.5 {
			freq = (float64(best) + delta) * binHz
			level = b - 0.25*(a-c)*delta
		}
	}
	return freq, level
}

// rolloff returns the frequency below which the given fraction of total
// spectral energy lies.
func rolloff(mags []float64, sampleRate, fftSize int, fraction float64) float64 {
	var total float64
	for k := 1; k < len(mags); k++ {
		total += mags[k] * mags[k]
	}
	if total <= 0 {
		return 0
	}
	binHz := float64(sampleRate) / float64(fftSize)
	var acc float64
	for k := 1; k < len(mags); k++ {
		acc += mags[k] * mags[k]
		if acc >= fraction*total {
			return float64(k) * binHz
		}
	}
	return float64(len(mags)-1) * binHz
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
