package synth

// EnvelopeStage identifies where an ADSR envelope is in its lifecycle.
type EnvelopeStage uint8

const (
	StageIdle EnvelopeStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
	// StageQuickRelease is a fast fixed-time ramp to silence, used when a
	// voice is stolen so the outgoing note fades in a few milliseconds
	// instead of clicking.
	StageQuickRelease
)

// quickReleaseMS is the fixed quick-release ramp duration.
const quickReleaseMS = 2.0

// envelopeConfig holds ADSR timings converted to sample counts. It is owned
// by the voice bank and recomputed only when the published parameters change.
type envelopeConfig struct {
	attackSamples  float32
	decaySamples   float32
	sustainLevel   float32
	releaseSamples float32
	quickSamples   float32
}

func (c *envelopeConfig) set(sampleRate, attackMS, decayMS, sustain, releaseMS float32) {
	perMS := sampleRate / 1000.0
	c.attackSamples = maxf(attackMS, 0) * perMS
	c.decaySamples = maxf(decayMS, 0) * perMS
	c.sustainLevel = clampf(sustain, 0, 1)
	c.releaseSamples = maxf(releaseMS, 0) * perMS
	c.quickSamples = quickReleaseMS * perMS
}

// rampRate returns the per-sample step that moves |distance| in the given
// number of samples. A span below one sample means the target is reached in
// a single step.
func rampRate(distance, samples float32) float32 {
	if samples < 1 {
		return distance
	}
	return distance / samples
}

// Envelope is a per-voice ADSR state machine advanced once per audio tick.
// Segments are linear; each ramp rate is fixed at stage entry so that
// retriggering continues from the current level without a discontinuity.
type Envelope struct {
	stage EnvelopeStage
	level float32
	rate  float32
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvelopeStage {
	return e.stage
}

// Level returns the current output level in [0,1].
func (e *Envelope) Level() float32 {
	return e.level
}

// Trigger starts (or restarts) the attack ramp from the current level.
func (e *Envelope) Trigger(cfg *envelopeConfig) {
	e.stage = StageAttack
	e.rate = rampRate(1.0-e.level, cfg.attackSamples)
}

// Release moves the envelope into the release ramp. Release is reachable from
// any sounding stage but never from idle.
func (e *Envelope) Release(cfg *envelopeConfig) {
	if e.stage == StageIdle {
		return
	}
	e.stage = StageRelease
	e.rate = rampRate(e.level, cfg.releaseSamples)
}

// QuickRelease forces a fast ramp to silence, regardless of the configured
// release time.
func (e *Envelope) QuickRelease(cfg *envelopeConfig) {
	if e.stage == StageIdle {
		return
	}
	e.stage = StageQuickRelease
	e.rate = rampRate(e.level, cfg.quickSamples)
}

// releasing reports whether the envelope is in any release-type stage.
func (e *Envelope) releasing() bool {
	return e.stage == StageRelease || e.stage == StageQuickRelease
}

// Next advances the state machine by one sample and returns the new level.
func (e *Envelope) Next(cfg *envelopeConfig) float32 {
	switch e.stage {
	case StageIdle:
		return 0

	case StageAttack:
		e.level += e.rate
		if e.level >= 1.0 {
			e.level = 1.0
			e.enterDecay(cfg)
		}

	case StageDecay:
		e.level -= e.rate
		if e.level <= cfg.sustainLevel {
			e.level = cfg.sustainLevel
			e.stage = StageSustain
		}

	case StageSustain:
		e.level = cfg.sustainLevel

	case StageRelease, StageQuickRelease:
		e.level -= e.rate
		if e.level <= 0 {
			e.level = 0
			e.stage = StageIdle
		}
	}
	return e.level
}

func (e *Envelope) enterDecay(cfg *envelopeConfig) {
	if cfg.decaySamples < 1 {
		e.level = cfg.sustainLevel
		e.stage = StageSustain
		return
	}
	e.stage = StageDecay
	e.rate = rampRate(1.0-cfg.sustainLevel, cfg.decaySamples)
}
