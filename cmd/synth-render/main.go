package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/analysis"
	"github.com/cwbudde/algo-synth/internal/score"
	"github.com/cwbudde/algo-synth/internal/wavio"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	note := flag.Int("note", 69, "MIDI note number (69 = A4 = 440 Hz)")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	duration := flag.Float64("duration", 2.0, "Render duration in seconds (single-note mode)")
	releaseAfter := flag.Float64("release-after", 1.5, "Send NoteOff after this many seconds (single-note mode)")
	midiPath := flag.String("midi", "", "Standard MIDI File to render instead of a single note")
	tail := flag.Float64("tail", 2.0, "Extra seconds rendered after the last MIDI event")
	sampleRate := flag.Int("sample-rate", 48000, "Render sample rate in Hz")
	voices := flag.Int("voices", 8, "Maximum polyphony")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	waveform := flag.String("waveform", "", "Waveform override: sine, square, sawtooth or triangle")
	output := flag.String("output", "output.wav", "Output WAV file path")
	reportSpectrum := flag.Bool("report-spectrum", false, "Print a spectral report of the rendered audio as JSON")
	flag.Parse()

	cfg := synth.DefaultConfig(*sampleRate)
	cfg.MaxPolyphony = *voices

	if *presetPath != "" {
		snap, err := preset.LoadJSON(*presetPath, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading preset %q: %v\n", *presetPath, err)
			os.Exit(1)
		}
		cfg.Initial = snap
	}
	if *waveform != "" {
		w, err := synth.ParseWaveform(*waveform)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg.Initial.Waveform = w
	}

	eng := synth.NewEngine(cfg)

	var samples []float32
	if *midiPath != "" {
		sc, err := score.Load(*midiPath, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading MIDI file %q: %v\n", *midiPath, err)
			os.Exit(1)
		}
		fmt.Printf("Rendering %q: %d events at %d Hz...\n", *midiPath, len(sc.Events), *sampleRate)
		samples = renderScore(eng, sc, *tail)
	} else {
		fmt.Printf("Rendering note %d, velocity %d, for %.2f seconds at %d Hz...\n",
			*note, *velocity, *duration, *sampleRate)
		samples = renderNote(eng, *note, *velocity, *duration, *releaseAfter)
	}

	if err := wavio.WriteMonoWAV(*output, samples, *sampleRate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples))

	if *reportSpectrum {
		mono := make([]float64, len(samples))
		for i, v := range samples {
			mono[i] = float64(v)
		}
		r, err := analysis.Analyze(mono, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error analyzing output: %v\n", err)
			os.Exit(1)
		}
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error encoding report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(b))
	}
}

func renderNote(eng *synth.Engine, note, velocity int, duration, releaseAfter float64) []float32 {
	sr := eng.SampleRate()
	totalFrames := int(float64(sr) * duration)
	if totalFrames < 1 {
		totalFrames = 1
	}
	releaseFrame := int(float64(sr) * releaseAfter)

	eng.FeedMIDI([]byte{0x90, uint8(note), uint8(velocity)})

	const blockSize = 128
	samples := make([]float32, 0, totalFrames)
	buf := make([]float32, blockSize)
	released := false
	for rendered := 0; rendered < totalFrames; {
		block := blockSize
		if rendered+block > totalFrames {
			block = totalFrames - rendered
		}
		if !released && rendered >= releaseFrame {
			eng.FeedMIDI([]byte{0x80, uint8(note), 0})
			released = true
		}
		eng.Process(buf[:block])
		samples = append(samples, buf[:block]...)
		rendered += block
	}
	return samples
}

func renderScore(eng *synth.Engine, sc *score.Score, tail float64) []float32 {
	sr := eng.SampleRate()
	totalFrames := sc.Frames() + int64(float64(sr)*tail)
	if totalFrames < 1 {
		totalFrames = 1
	}

	const blockSize = 128
	samples := make([]float32, 0, totalFrames)
	next := 0
	buf := make([]float32, blockSize)
	for rendered := int64(0); rendered < totalFrames; {
		block := int64(blockSize)
		if rendered+block > totalFrames {
			block = totalFrames - rendered
		}
		for next < len(sc.Events) && sc.Events[next].Frame <= rendered {
			eng.FeedMIDI(sc.Events[next].Bytes)
			next++
		}
		eng.Process(buf[:block])
		samples = append(samples, buf[:block]...)
		rendered += block
	}
	return samples
}
