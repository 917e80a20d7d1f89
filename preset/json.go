package preset

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cwbudde/algo-synth/synth"
)

// File is the JSON schema for synth presets. Absent fields keep their
// default values.
type File struct {
	AttackMS         *float32 `json:"attack_ms"`
	DecayMS          *float32 `json:"decay_ms"`
	SustainLevel     *float32 `json:"sustain_level"`
	ReleaseMS        *float32 `json:"release_ms"`
	CutoffHz         *float32 `json:"cutoff_hz"`
	Q                *float32 `json:"q"`
	SlopeDBPerOct    *int     `json:"slope_db_per_oct"`
	Waveform         string   `json:"waveform"`
	EnvCutoffOctaves *float32 `json:"env_cutoff_octaves"`
	MasterGain       *float32 `json:"master_gain"`
}

// LoadJSON loads a preset JSON file and applies it on top of the default
// parameters for the given sample rate.
func LoadJSON(path string, sampleRate int) (synth.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return synth.Snapshot{}, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return synth.Snapshot{}, err
	}

	snap := synth.DefaultSnapshot(sampleRate)
	if err := ApplyFile(&snap, &f, sampleRate); err != nil {
		return synth.Snapshot{}, err
	}
	return snap, nil
}

// ApplyFile applies a parsed preset file onto an existing snapshot.
func ApplyFile(dst *synth.Snapshot, f *File, sampleRate int) error {
	if dst == nil {
		return fmt.Errorf("nil destination snapshot")
	}
	if f == nil {
		return nil
	}

	if f.AttackMS != nil {
		if *f.AttackMS < 1 || *f.AttackMS > 2000 {
			return fmt.Errorf("attack_ms must be in [1,2000]")
		}
		dst.AttackMS = *f.AttackMS
	}
	if f.DecayMS != nil {
		if *f.DecayMS < 1 || *f.DecayMS > 2000 {
			return fmt.Errorf("decay_ms must be in [1,2000]")
		}
		dst.DecayMS = *f.DecayMS
	}
	if f.SustainLevel != nil {
		if *f.SustainLevel < 0 || *f.SustainLevel > 1 {
			return fmt.Errorf("sustain_level must be in [0,1]")
		}
		dst.SustainLevel = *f.SustainLevel
	}
	if f.ReleaseMS != nil {
		if *f.ReleaseMS < 1 || *f.ReleaseMS > 2000 {
			return fmt.Errorf("release_ms must be in [1,2000]")
		}
		dst.ReleaseMS = *f.ReleaseMS
	}
	if f.CutoffHz != nil {
		nyq := 0.45 * float32(sampleRate)
		if *f.CutoffHz < 20 || *f.CutoffHz > nyq {
			return fmt.Errorf("cutoff_hz must be in [20,%.0f] at %d Hz", nyq, sampleRate)
		}
		dst.CutoffHz = *f.CutoffHz
	}
	if f.Q != nil {
		if *f.Q < 0.5 || *f.Q > 10 {
			return fmt.Errorf("q must be in [0.5,10]")
		}
		dst.Q = *f.Q
	}
	if f.SlopeDBPerOct != nil {
		if *f.SlopeDBPerOct != 12 && *f.SlopeDBPerOct != 24 {
			return fmt.Errorf("slope_db_per_oct must be 12 or 24")
		}
		dst.SlopeDBPerOct = *f.SlopeDBPerOct
	}
	if f.Waveform != "" {
		w, err := synth.ParseWaveform(f.Waveform)
		if err != nil {
			return err
		}
		dst.Waveform = w
	}
	if f.EnvCutoffOctaves != nil {
		if *f.EnvCutoffOctaves < 0 || *f.EnvCutoffOctaves > 8 {
			return fmt.Errorf("env_cutoff_octaves must be in [0,8]")
		}
		dst.EnvCutoffOctaves = *f.EnvCutoffOctaves
	}
	if f.MasterGain != nil {
		if *f.MasterGain <= 0 || *f.MasterGain > 2 {
			return fmt.Errorf("master_gain must be in (0,2]")
		}
		dst.MasterGain = *f.MasterGain
	}
	return nil
}
