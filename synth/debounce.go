package synth

// ControlChannel identifies one raw input channel of the control surface.
// Each channel maps to one parameter group, mirroring a pot or encoder wired
// to an ADC pin.
type ControlChannel uint8

const (
	ChannelAttack ControlChannel = iota
	ChannelDecayRelease
	ChannelSustain
	ChannelCutoff
	ChannelResonance
	ChannelWaveform
	NumControlChannels
)

// DebounceConfig tunes the hysteresis and persistence applied to raw control
// samples before a value becomes a parameter change.
type DebounceConfig struct {
	// Threshold is the minimum raw-count excursion from the accepted value
	// for a sample to count as a candidate change.
	Threshold int
	// Persistence is how many consecutive samples must agree with the
	// candidate before it is accepted.
	Persistence int
	// MaxRaw is the full-scale raw reading (4095 for a 12-bit ADC).
	MaxRaw int
}

type controlState struct {
	accepted  int
	candidate int
	run       int
	seeded    bool
}

// ControlDebouncer turns noisy raw control samples into parameter snapshot
// publications. A new reading is accepted only when it exceeds the noise
// threshold relative to the accepted value AND stays put for the persistence
// window; acceptance publishes exactly one new snapshot.
//
// Offer runs in the control-polling context. It never blocks the audio tick:
// publication is an atomic whole-snapshot swap.
type ControlDebouncer struct {
	cfg        DebounceConfig
	store      *SnapshotStore
	sampleRate float32
	chans      [NumControlChannels]controlState
}

// NewControlDebouncer wires a debouncer to the snapshot store it publishes to.
func NewControlDebouncer(cfg DebounceConfig, sampleRate float32, store *SnapshotStore) *ControlDebouncer {
	if cfg.Threshold < 1 {
		cfg.Threshold = defaultDebounceThreshold
	}
	if cfg.Persistence < 1 {
		cfg.Persistence = defaultDebouncePersistence
	}
	if cfg.MaxRaw < 1 {
		cfg.MaxRaw = defaultMaxRaw
	}
	return &ControlDebouncer{cfg: cfg, sampleRate: sampleRate, store: store}
}

// Offer feeds one raw sample for a channel and reports whether it resulted in
// a snapshot publication.
func (d *ControlDebouncer) Offer(ch ControlChannel, raw int) bool {
	if ch >= NumControlChannels {
		return false
	}
	if raw < 0 {
		raw = 0
	}
	if raw > d.cfg.MaxRaw {
		raw = d.cfg.MaxRaw
	}

	st := &d.chans[ch]
	if !st.seeded {
		// First reading becomes the baseline without publishing, so the
		// initial pot positions do not clobber preset values on boot.
		st.accepted = raw
		st.seeded = true
		return false
	}

	if absInt(raw-st.accepted) <= d.cfg.Threshold {
		st.run = 0
		return false
	}

	if st.run > 0 && absInt(raw-st.candidate) <= d.cfg.Threshold {
		st.run++
	} else {
		st.candidate = raw
		st.run = 1
	}
	if st.run < d.cfg.Persistence {
		return false
	}

	st.accepted = st.candidate
	st.run = 0
	d.publish(ch, st.accepted)
	return true
}

// publish maps the accepted raw value onto the parameter the channel controls
// and swaps in a new snapshot. All published values are clamped to valid
// ranges here, so downstream components never see out-of-range inputs.
func (d *ControlDebouncer) publish(ch ControlChannel, raw int) {
	next := *d.store.Load()
	norm := float32(raw) / float32(d.cfg.MaxRaw)

	switch ch {
	case ChannelAttack:
		next.AttackMS = expMap(norm, minEnvelopeMS, maxEnvelopeMS)
	case ChannelDecayRelease:
		// One pot drives both fall times, as on the hardware panel.
		ms := expMap(norm, minEnvelopeMS, maxEnvelopeMS)
		next.DecayMS = ms
		next.ReleaseMS = ms
	case ChannelSustain:
		next.SustainLevel = clampf(norm, 0, 1)
	case ChannelCutoff:
		next.CutoffHz = clampf(expMap(norm, minCutoffHz, maxCutoffHz), minCutoffHz, maxCutoffFor(d.sampleRate))
	case ChannelResonance:
		// Top bit selects the slope, the rest sets Q.
		half := (d.cfg.MaxRaw + 1) / 2
		if raw >= half {
			next.SlopeDBPerOct = 24
			raw -= half
		} else {
			next.SlopeDBPerOct = 12
		}
		next.Q = minQ + (maxQ-minQ)*float32(raw)/float32(half-1)
	case ChannelWaveform:
		idx := raw * int(numWaveforms) / (d.cfg.MaxRaw + 1)
		next.Waveform = Waveform(idx)
	}

	d.store.Publish(next)
}

// expMap maps a normalized control position onto [lo,hi] with an exponential
// taper, which is how time and frequency pots feel natural.
func expMap(norm, lo, hi float32) float32 {
	if norm <= 0 {
		return lo
	}
	if norm >= 1 {
		return hi
	}
	return lo * powf(hi/lo, norm)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
