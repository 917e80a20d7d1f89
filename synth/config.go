package synth

// Parameter ranges. Every published value is clamped into these before the
// audio tick can observe it.
const (
	minEnvelopeMS float32 = 1.0
	maxEnvelopeMS float32 = 2000.0

	minCutoffHz float32 = 20.0
	maxCutoffHz float32 = 16000.0

	minQ float32 = 0.5
	maxQ float32 = 10.0

	// nyquistHeadroom caps the cutoff below Nyquist so the biquad design
	// stays well conditioned.
	nyquistHeadroom = 0.45
)

// Default performance parameters.
const (
	defaultAttackMS     float32 = 5.0
	defaultDecayMS      float32 = 80.0
	defaultSustainLevel float32 = 0.7
	defaultReleaseMS    float32 = 200.0
	defaultCutoffHz     float32 = 8000.0
	defaultQ            float32 = 0.707
	defaultSlope                = 12
	defaultMasterGain   float32 = 1.0
)

// Default debounce tuning for a 12-bit control ADC.
const (
	defaultDebounceThreshold   = 12
	defaultDebouncePersistence = 4
	defaultMaxRaw              = 4095
)

// Config is the construction-time surface of the engine: everything that on
// the target hardware would be fixed at compile time.
type Config struct {
	SampleRate   int
	MaxPolyphony int
	StealPolicy  StealPolicy
	Debounce     DebounceConfig
	// EventQueue is the MIDI event ring capacity.
	EventQueue int
	// Initial parameter values; zero-valued fields are replaced by defaults.
	Initial Snapshot
}

// DefaultConfig returns a playable configuration at the given sample rate.
func DefaultConfig(sampleRate int) Config {
	return Config{
		SampleRate:   sampleRate,
		MaxPolyphony: 8,
		StealPolicy:  StealOldestReleaseFirst,
		Debounce: DebounceConfig{
			Threshold:   defaultDebounceThreshold,
			Persistence: defaultDebouncePersistence,
			MaxRaw:      defaultMaxRaw,
		},
		EventQueue: 64,
		Initial:    DefaultSnapshot(sampleRate),
	}
}

// DefaultSnapshot returns the default performance parameters, with the
// cutoff clamped for the sample rate.
func DefaultSnapshot(sampleRate int) Snapshot {
	return Snapshot{
		AttackMS:      defaultAttackMS,
		DecayMS:       defaultDecayMS,
		SustainLevel:  defaultSustainLevel,
		ReleaseMS:     defaultReleaseMS,
		CutoffHz:      clampf(defaultCutoffHz, minCutoffHz, maxCutoffFor(float32(sampleRate))),
		Q:             defaultQ,
		SlopeDBPerOct: defaultSlope,
		Waveform:      Sawtooth,
		MasterGain:    defaultMasterGain,
	}
}

// maxCutoffFor bounds the filter cutoff below Nyquist for a sample rate.
func maxCutoffFor(sampleRate float32) float32 {
	max := nyquistHeadroom * sampleRate
	if max > maxCutoffHz {
		return maxCutoffHz
	}
	return max
}
