package bake

import (
	"fmt"

	"go.uber.org/multierr"
)

// Status is the outcome of one target.
type Status string

const (
	StatusReduced Status = "reduced"
	StatusSkipped Status = "skipped" // failed validation
	StatusEmpty   Status = "empty"   // nothing visible, source kept
	StatusFailed  Status = "failed"  // pass, rebuild or store error
)

// TargetResult records what happened to one target.
type TargetResult struct {
	Name      string
	Status    Status
	Total     int
	Kept      int
	Reduction float64 // percent of triangles removed
	Stored    string
	Err       error
}

// Report collects the results of a run in target order.
type Report struct {
	Location string
	Results  []TargetResult
}

// Reduced returns the number of targets whose geometry was replaced.
func (r *Report) Reduced() int {
	n := 0
	for _, res := range r.Results {
		if res.Status == StatusReduced {
			n++
		}
	}
	return n
}

// Err combines every per-target error, each prefixed with its target name.
func (r *Report) Err() error {
	var err error
	for _, res := range r.Results {
		if res.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", res.Name, res.Err))
		}
	}
	return err
}

func reduction(kept, total int) float64 {
	if total == 0 {
		return 0
	}
	return (1 - float64(kept)/float64(total)) * 100
}
