// Package recurrence turns care rules into dated task instances.
//
// An Engine is driven by an external trigger. Each call to RunCycle looks at
// every active rule, projects the rule's next due date from its most recent
// instance (or its anchor date) and materializes a pending task when that date
// is not after the cycle date. Cycles are idempotent: re-running with the same
// date only fills in what is still missing.
package recurrence
