package score

import (
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeSMF(t *testing.T, sm *smf.SMF) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "song.mid")
	if err := sm.WriteFile(path); err != nil {
		t.Fatalf("write smf: %v", err)
	}
	return path
}

func TestLoadStampsFramesAtDefaultTempo(t *testing.T) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(960)

	var track smf.Track
	track.Add(0, midi.NoteOn(0, 60, 100))
	// One quarter note at 120 BPM is half a second.
	track.Add(960, midi.NoteOff(0, 60))
	track.Close(0)
	if err := sm.Add(track); err != nil {
		t.Fatalf("add track: %v", err)
	}

	s, err := Load(writeSMF(t, sm), 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(s.Events))
	}
	if s.Events[0].Frame != 0 {
		t.Fatalf("note on at frame %d, want 0", s.Events[0].Frame)
	}
	if got := s.Events[1].Frame; got != 24000 {
		t.Fatalf("note off at frame %d, want 24000", got)
	}
	if s.Frames() != 24000 {
		t.Fatalf("score length %d, want 24000", s.Frames())
	}
}

func TestLoadHonorsTempoChange(t *testing.T) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(480)

	var tempo smf.Track
	tempo.Add(0, smf.MetaTempo(60))
	// Double the tempo after one beat.
	tempo.Add(480, smf.MetaTempo(120))
	tempo.Close(0)
	if err := sm.Add(tempo); err != nil {
		t.Fatalf("add tempo track: %v", err)
	}

	var track smf.Track
	track.Add(480, midi.NoteOn(0, 60, 100))
	track.Add(480, midi.NoteOff(0, 60))
	track.Close(0)
	if err := sm.Add(track); err != nil {
		t.Fatalf("add track: %v", err)
	}

	s, err := Load(writeSMF(t, sm), 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(s.Events))
	}
	// First beat at 60 BPM takes 1s, second beat at 120 BPM takes 0.5s.
	if got := s.Events[0].Frame; got != 48000 {
		t.Fatalf("note on at frame %d, want 48000", got)
	}
	if got := s.Events[1].Frame; got != 72000 {
		t.Fatalf("note off at frame %d, want 72000", got)
	}
}

func TestLoadMergesTracksInFrameOrder(t *testing.T) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(960)

	var a smf.Track
	a.Add(960, midi.NoteOn(0, 60, 100))
	a.Close(0)
	var b smf.Track
	b.Add(0, midi.NoteOn(0, 64, 100))
	b.Close(0)
	if err := sm.Add(a); err != nil {
		t.Fatalf("add track: %v", err)
	}
	if err := sm.Add(b); err != nil {
		t.Fatalf("add track: %v", err)
	}

	s, err := Load(writeSMF(t, sm), 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(s.Events))
	}
	if s.Events[0].Frame > s.Events[1].Frame {
		t.Fatalf("events out of order: %d before %d", s.Events[0].Frame, s.Events[1].Frame)
	}
	if s.Events[0].Bytes[1] != 64 {
		t.Fatalf("first event is note %d, want 64", s.Events[0].Bytes[1])
	}
}

func TestLoadSkipsMetaMessages(t *testing.T) {
	sm := smf.New()
	sm.TimeFormat = smf.MetricTicks(960)

	var track smf.Track
	track.Add(0, smf.MetaMeter(4, 4))
	track.Add(0, smf.MetaTempo(90))
	track.Add(0, midi.NoteOn(0, 60, 100))
	track.Close(0)
	if err := sm.Add(track); err != nil {
		t.Fatalf("add track: %v", err)
	}

	s, err := Load(writeSMF(t, sm), 48000)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Events) != 1 {
		t.Fatalf("got %d events, want only the note on", len(s.Events))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.mid"), 48000); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestEmptyScoreFrames(t *testing.T) {
	var s Score
	if s.Frames() != 0 {
		t.Fatalf("empty score length %d", s.Frames())
	}
}
