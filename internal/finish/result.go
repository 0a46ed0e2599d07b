package finish

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the outcome of a single step.
type Status int

const (
	// StatusOK means the step changed the bundle as intended.
	StatusOK Status = iota
	// StatusSkipped means there was nothing to do.
	StatusSkipped
	// StatusRecovered means the step failed in a way the bundle can live
	// with; the pass continues.
	StatusRecovered
	// StatusFailed aborts the pass.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusSkipped:
		return "skipped"
	case StatusRecovered:
		return "recovered"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// StepResult reports what a step did.
type StepResult struct {
	Step   string
	Status Status
	// Reason is a short human-readable explanation for non-OK results.
	Reason string
	// Err is set for recovered and failed results.
	Err error
	// Paths lists the files written or removed.
	Paths []string
}

func ok(step string, paths ...string) StepResult {
	return StepResult{Step: step, Status: StatusOK, Paths: paths}
}

func skipped(step, reason string) StepResult {
	return StepResult{Step: step, Status: StatusSkipped, Reason: reason}
}

func recovered(step, reason string, err error) StepResult {
	return StepResult{Step: step, Status: StatusRecovered, Reason: reason, Err: err}
}

func failed(step string, err error) StepResult {
	return StepResult{Step: step, Status: StatusFailed, Reason: err.Error(), Err: err}
}

// Report collects the results of a pass in execution order.
type Report struct {
	Results []StepResult
}

// Result returns the result of the named step, if it ran.
func (r Report) Result(step string) (StepResult, bool) {
	for _, res := range r.Results {
		if res.Step == step {
			return res, true
		}
	}
	return StepResult{}, false
}

// Recovered returns the errors of all recovered steps joined together,
// or nil.
func (r Report) Recovered() error {
	var errs []error
	for _, res := range r.Results {
		if res.Status == StatusRecovered && res.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", res.Step, res.Err))
		}
	}
	return errors.Join(errs...)
}

// String summarizes the report on one line, e.g.
// "entry-script=ok qtconf=ok kernel-json=skipped".
func (r Report) String() string {
	parts := make([]string, 0, len(r.Results))
	for _, res := range r.Results {
		parts = append(parts, res.Step+"="+res.Status.String())
	}
	return strings.Join(parts, " ")
}
