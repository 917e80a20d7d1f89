package synth

import "sync/atomic"

// Snapshot is one immutable, complete set of performance parameters. The
// debouncer publishes snapshots by whole-object swap, so the audio tick
// observes either the previous snapshot or the next one, never a mix.
type Snapshot struct {
	Generation uint64

	AttackMS     float32
	DecayMS      float32
	SustainLevel float32
	ReleaseMS    float32

	CutoffHz      float32
	Q             float32
	SlopeDBPerOct int

	Waveform Waveform

	// EnvCutoffOctaves shifts the filter cutoff upward by up to this many
	// octaves with the loudest voice envelope. Zero disables modulation and
	// its per-tick coefficient recompute cost.
	EnvCutoffOctaves float32

	MasterGain float32
}

// SnapshotStore publishes parameter snapshots from the control domain to the
// audio tick without blocking either side.
type SnapshotStore struct {
	cur atomic.Pointer[Snapshot]
}

// NewSnapshotStore creates a store seeded with the given snapshot.
func NewSnapshotStore(initial Snapshot) *SnapshotStore {
	s := &SnapshotStore{}
	initial.Generation = 1
	s.cur.Store(&initial)
	return s
}

// Load returns the current snapshot. The returned value must be treated as
// immutable. Absent a new publication the same snapshot remains valid
// indefinitely.
func (s *SnapshotStore) Load() *Snapshot {
	return s.cur.Load()
}

// Publish installs next as the current snapshot, bumping the generation.
func (s *SnapshotStore) Publish(next Snapshot) {
	next.Generation = s.cur.Load().Generation + 1
	s.cur.Store(&next)
}
