package types

import "time"

// EffectiveConfigSnapshot is the resolved configuration of a run as written
// to the run's artifact directory.
type EffectiveConfigSnapshot struct {
	Ordering  OrderingConfigSnapshot  `json:"ordering"`
	Execution ExecutionConfigSnapshot `json:"execution"`
	Output    OutputConfigSnapshot    `json:"output"`

	RunID   string `json:"runId,omitempty"`
	Version string `json:"version,omitempty"`
}

type OrderingConfigSnapshot struct {
	Reverse bool   `json:"reverse"`
	Shuffle bool   `json:"shuffle"`
	Seed    uint64 `json:"seed,omitempty"`
}

type ExecutionConfigSnapshot struct {
	Repeat   int           `json:"repeat"`
	DryRun   bool          `json:"dryRun"`
	FailFast bool          `json:"failFast"`
	Timeout  time.Duration `json:"timeout"`
	OnlyTags []Tag         `json:"onlyTags,omitempty"`
}

type OutputConfigSnapshot struct {
	Quiet  bool      `json:"quiet"`
	Color  ColorMode `json:"color"`
	Format Format    `json:"format"`
}

// Snapshot captures the options for the run artifacts
func (o Options) Snapshot(runID, version string) EffectiveConfigSnapshot {
	snap := EffectiveConfigSnapshot{
		Ordering: OrderingConfigSnapshot{
			Reverse: o.Reverse,
			Shuffle: o.Shuffle,
		},
		Execution: ExecutionConfigSnapshot{
			Repeat:   o.Repeats(),
			DryRun:   o.DryRun,
			FailFast: o.FailFast,
			Timeout:  o.Timeout,
			OnlyTags: o.OnlyTags,
		},
		Output: OutputConfigSnapshot{
			Quiet:  o.Quiet,
			Color:  o.Color,
			Format: o.Format,
		},
		RunID:   runID,
		Version: version,
	}
	if o.HasSeed {
		snap.Ordering.Seed = o.Seed
	}
	return snap
}
