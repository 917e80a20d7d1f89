package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/cwbudde/algo-synth/internal/score"
	"github.com/cwbudde/algo-synth/preset"
	"github.com/cwbudde/algo-synth/synth"
)

func main() {
	midiPath := flag.String("midi", "", "Standard MIDI File to play (omit for a demo arpeggio)")
	sampleRate := flag.Int("sample-rate", 48000, "Playback sample rate in Hz")
	voices := flag.Int("voices", 8, "Maximum polyphony")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	waveform := flag.String("waveform", "", "Waveform override: sine, square, sawtooth or triangle")
	sweep := flag.Bool("sweep", false, "Sweep the filter cutoff while playing")
	tail := flag.Float64("tail", 2.0, "Extra seconds played after the last event")
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

	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   *sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening audio device: %v\n", err)
		os.Exit(1)
	}
	<-ready

	player := ctx.NewPlayer(eng)
	player.Play()
	defer player.Close()

	stopSweep := make(chan struct{})
	if *sweep {
		go sweepCutoff(eng, stopSweep)
	}

	if *midiPath != "" {
		sc, err := score.Load(*midiPath, *sampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading MIDI file %q: %v\n", *midiPath, err)
			os.Exit(1)
		}
		total := time.Duration(float64(sc.Frames())/float64(*sampleRate)*float64(time.Second)) +
			time.Duration(*tail*float64(time.Second))
		fmt.Printf("Playing %q: %d events, %.1fs\n", *midiPath, len(sc.Events), total.Seconds())
		playScore(eng, sc, *sampleRate)
		time.Sleep(time.Duration(*tail * float64(time.Second)))
	} else {
		fmt.Println("Playing demo arpeggio (no -midi given)...")
		playArpeggio(eng)
		time.Sleep(time.Duration(*tail * float64(time.Second)))
	}
	close(stopSweep)
}

// playScore feeds score events to the engine on their wall-clock schedule.
func playScore(eng *synth.Engine, sc *score.Score, sampleRate int) {
	start := time.Now()
	for _, ev := range sc.Events {
		at := time.Duration(float64(ev.Frame) / float64(sampleRate) * float64(time.Second))
		if d := at - time.Since(start); d > 0 {
			time.Sleep(d)
		}
		eng.FeedMIDI(ev.Bytes)
	}
}

func playArpeggio(eng *synth.Engine) {
	notes := []uint8{60, 64, 67, 72, 67, 64}
	for round := 0; round < 4; round++ {
		for _, n := range notes {
			eng.FeedMIDI([]byte{0x90, n, 100})
			time.Sleep(180 * time.Millisecond)
			eng.FeedMIDI([]byte{0x80, n, 0})
		}
	}
}

// sweepCutoff drives the cutoff control channel up and down with raw 12-bit
// readings, the way a front-panel pot would.
func sweepCutoff(eng *synth.Engine, stop <-chan struct{}) {
	raw := 0
	dir := 32
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			raw += dir
			if raw >= 4095 {
				raw = 4095
				dir = -dir
			} else if raw <= 0 {
				raw = 0
				dir = -dir
			}
			eng.OfferControl(synth.ChannelCutoff, raw)
		}
	}
}
