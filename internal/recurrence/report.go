package recurrence

import (
	"time"

	"garden-care/internal/model"
)

// RuleFailure records a rule that could not be processed in a cycle.
type RuleFailure struct {
	RuleID uint
	Err    error
}

// CycleReport summarizes one RunCycle call.
type CycleReport struct {
	AsOf       time.Time
	StartedAt  time.Time
	FinishedAt time.Time

	Evaluated int
	Created   int
	Skipped   int

	// Generated holds the instances committed during the cycle.
	Generated []model.TaskInstance
	// Invalid lists rules skipped because of a malformed period.
	Invalid  []uint
	Failures []RuleFailure
}

// Partial reports whether at least one rule failed.
func (r CycleReport) Partial() bool {
	return len(r.Failures) > 0
}

// FailedRuleIDs returns the ids of the failed rules in report order.
func (r CycleReport) FailedRuleIDs() []uint {
	ids := make([]uint, 0, len(r.Failures))
	for _, f := range r.Failures {
		ids = append(ids, f.RuleID)
	}
	return ids
}

// Duration is the wall time the cycle took.
func (r CycleReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
