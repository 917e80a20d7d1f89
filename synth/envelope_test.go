package synth

import (
	"math"
	"testing"
)

// cfgForSamples builds an envelope config with segment lengths given directly
// in samples by using a 1 kHz sample rate (1 ms = 1 sample).
func cfgForSamples(attack, decay int, sustain float32, release int) envelopeConfig {
	var cfg envelopeConfig
	cfg.set(1000, float32(attack), float32(decay), sustain, float32(release))
	return cfg
}

func TestEnvelopeStageOrder(t *testing.T) {
	cfg := cfgForSamples(10, 10, 0.5, 10)
	var env Envelope

	if env.Stage() != StageIdle {
		t.Fatalf("expected idle start, got %v", env.Stage())
	}
	env.Trigger(&cfg)
	if env.Stage() != StageAttack {
		t.Fatalf("expected attack after trigger, got %v", env.Stage())
	}
	for i := 0; i < 10; i++ {
		env.Next(&cfg)
	}
	if env.Stage() != StageDecay {
		t.Fatalf("expected decay after attack completes, got %v", env.Stage())
	}
	for i := 0; i < 10; i++ {
		env.Next(&cfg)
	}
	if env.Stage() != StageSustain {
		t.Fatalf("expected sustain after decay, got %v", env.Stage())
	}
	env.Release(&cfg)
	if env.Stage() != StageRelease {
		t.Fatalf("expected release, got %v", env.Stage())
	}
	for i := 0; i < 10; i++ {
		env.Next(&cfg)
	}
	if env.Stage() != StageIdle {
		t.Fatalf("expected idle after release completes, got %v", env.Stage())
	}
}

func TestEnvelopeReleaseNotReachableFromIdle(t *testing.T) {
	cfg := cfgForSamples(10, 10, 0.5, 10)
	var env Envelope

	env.Release(&cfg)
	if env.Stage() != StageIdle {
		t.Fatalf("release from idle must be a no-op, got %v", env.Stage())
	}
}

func TestEnvelopeTimingScenario(t *testing.T) {
	// Attack 20 samples, decay 0, sustain 0.5, release 20 samples;
	// note off at sample 25.
	cfg := cfgForSamples(20, 0, 0.5, 20)
	var env Envelope
	env.Trigger(&cfg)

	var level float32
	for i := 0; i < 25; i++ {
		level = env.Next(&cfg)
		if i == 19 && math.Abs(float64(level)-0.5) > 1e-4 {
			t.Fatalf("expected 0.5 by sample 20, got %f", level)
		}
	}
	if math.Abs(float64(level)-0.5) > 1e-4 {
		t.Fatalf("expected hold at sustain before note off, got %f", level)
	}

	env.Release(&cfg)
	// Linear ramp from 0.5 to 0 over 20 samples: -0.025 per sample.
	prev := level
	for i := 0; i < 20; i++ {
		level = env.Next(&cfg)
		step := prev - level
		if math.Abs(float64(step)-0.025) > 1e-4 {
			t.Fatalf("release sample %d: expected linear step 0.025, got %f", i, step)
		}
		prev = level
	}
	// Allow one extra sample for float accumulation in the ramp.
	if env.Stage() != StageIdle {
		level = env.Next(&cfg)
	}
	if level != 0 || env.Stage() != StageIdle {
		t.Fatalf("expected silence after 20 release samples, got level=%f stage=%v", level, env.Stage())
	}
}

func TestEnvelopeRetriggerRampsFromCurrentLevel(t *testing.T) {
	cfg := cfgForSamples(100, 0, 0.8, 100)
	var env Envelope
	env.Trigger(&cfg)
	for i := 0; i < 50; i++ {
		env.Next(&cfg)
	}
	mid := env.Level()
	if mid <= 0.1 || mid >= 1.0 {
		t.Fatalf("expected mid-attack level, got %f", mid)
	}

	env.Trigger(&cfg)
	next := env.Next(&cfg)
	if next < mid {
		t.Fatalf("retrigger must not drop the level: %f -> %f", mid, next)
	}
	if next-mid > 0.05 {
		t.Fatalf("retrigger must not jump the level: %f -> %f", mid, next)
	}
}

func TestEnvelopeZeroAttackJumpsInOneSample(t *testing.T) {
	cfg := cfgForSamples(0, 0, 0.6, 10)
	var env Envelope
	env.Trigger(&cfg)

	level := env.Next(&cfg)
	if math.Abs(float64(level)-0.6) > 1e-5 {
		t.Fatalf("expected immediate sustain with zero attack/decay, got %f", level)
	}
}

func TestEnvelopeQuickReleaseFasterThanRelease(t *testing.T) {
	cfg := cfgForSamples(1, 0, 1.0, 500)

	samplesToIdle := func(quick bool) int {
		var env Envelope
		env.Trigger(&cfg)
		for env.Stage() != StageSustain {
			env.Next(&cfg)
		}
		if quick {
			env.QuickRelease(&cfg)
		} else {
			env.Release(&cfg)
		}
		n := 0
		for env.Stage() != StageIdle && n < 10000 {
			env.Next(&cfg)
			n++
		}
		return n
	}

	slow := samplesToIdle(false)
	fast := samplesToIdle(true)
	if fast >= slow {
		t.Fatalf("quick release (%d samples) must beat release (%d samples)", fast, slow)
	}
}

func TestEnvelopeLevelBounded(t *testing.T) {
	cfg := cfgForSamples(3, 2, 0.4, 5)
	var env Envelope
	env.Trigger(&cfg)
	for i := 0; i < 100; i++ {
		level := env.Next(&cfg)
		if level < 0 || level > 1 {
			t.Fatalf("level out of range at sample %d: %f", i, level)
		}
		if i == 40 {
			env.Release(&cfg)
		}
	}
}
