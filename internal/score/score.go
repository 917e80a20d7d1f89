// Package score flattens Standard MIDI Files into frame-stamped raw MIDI
// bytes, ready to be fed to the engine's byte decoder on schedule.
package score

import (
	"fmt"
	"sort"
	"time"

	"gitlab.com/gomidi/midi/v2/smf"
)

// Event is one raw channel-voice MIDI message stamped with the output frame
// at which it fires.
type Event struct {
	Frame int64
	Bytes []byte
}

// Score is a frame-ordered MIDI performance at a fixed sample rate.
type Score struct {
	SampleRate int
	Events     []Event
}

// Frames returns the frame of the last event, or 0 for an empty score.
func (s *Score) Frames() int64 {
	if len(s.Events) == 0 {
		return 0
	}
	return s.Events[len(s.Events)-1].Frame
}

// Load reads a Standard MIDI File and merges its tracks into a single
// frame-ordered event list at the given sample rate. Tempo changes from any
// track apply globally. SMPTE time division is not supported.
func Load(path string, sampleRate int) (*Score, error) {
	f, err := smf.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	return fromSMF(f, sampleRate)
}

func fromSMF(f *smf.SMF, sampleRate int) (*Score, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("score: sample rate %d", sampleRate)
	}
	mt, ok := f.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("score: time format %s is not supported", f.TimeFormat)
	}

	tm := buildTempoMap(f, mt)

	out := &Score{SampleRate: sampleRate}
	for _, track := range f.Tracks {
		var absTicks uint64
		for _, ev := range track {
			absTicks += uint64(ev.Delta)
			b := ev.Message.Bytes()
			if len(b) == 0 || b[0] < 0x80 || b[0] > 0xEF {
				continue
			}
			frame := int64(tm.at(absTicks).Seconds() * float64(sampleRate))
			out.Events = append(out.Events, Event{Frame: frame, Bytes: b})
		}
	}

	sort.SliceStable(out.Events, func(i, j int) bool {
		return out.Events[i].Frame < out.Events[j].Frame
	})
	return out, nil
}

// tempoPoint marks a tempo in effect from absTicks onward, with the
// accumulated wall time up to that tick.
type tempoPoint struct {
	absTicks uint64
	bpm      float64
	at       time.Duration
}

type tempoMap struct {
	mt     smf.MetricTicks
	points []tempoPoint
}

// buildTempoMap collects tempo meta events across all tracks and converts
// them into absolute-time anchors. A file without tempo events plays at the
// MIDI default of 120 BPM.
func buildTempoMap(f *smf.SMF, mt smf.MetricTicks) tempoMap {
	points := []tempoPoint{{absTicks: 0, bpm: 120}}
	for _, track := range f.Tracks {
		var absTicks uint64
		for _, ev := range track {
			absTicks += uint64(ev.Delta)
			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				points = append(points, tempoPoint{absTicks: absTicks, bpm: bpm})
			}
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].absTicks < points[j].absTicks
	})

	// Accumulate wall time across the tempo segments.
	for i := 1; i < len(points); i++ {
		prev := points[i-1]
		delta := uint32(points[i].absTicks - prev.absTicks)
		points[i].at = prev.at + mt.Duration(prev.bpm, delta)
	}
	return tempoMap{mt: mt, points: points}
}

// at converts an absolute tick position to wall time.
func (tm tempoMap) at(absTicks uint64) time.Duration {
	p := tm.points[0]
	for _, q := range tm.points {
		if q.absTicks > absTicks {
			break
		}
		p = q
	}
	return p.at + tm.mt.Duration(p.bpm, uint32(absTicks-p.absTicks))
}
