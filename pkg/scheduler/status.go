// Package scheduler talks to an external batch scheduler through its CLI
// surface and normalizes scheduler-specific state vocabularies into a small
// canonical set.
//
// Only the canonical Status values cross into the rest of the system, so
// swapping schedulers means swapping one adapter.
package scheduler

import "strings"

// Status is the canonical lifecycle state reported for a batch job.
//
// NOTE: These values are persisted in the job store and are part of the
// stable on-disk contract.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
	StatusTimeout   Status = "TIMEOUT"
)

// Terminal reports whether the status is final. Terminal statuses are
// immutable once recorded.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusTimeout:
		return true
	}
	return false
}

// NormalizeActive maps an active-queue state token (e.g. squeue %T output or
// the short R/PD forms) to a canonical Status. Unrecognized tokens pass
// through unchanged so newer scheduler vocabularies stay visible instead of
// being swallowed.
func NormalizeActive(token string) Status {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "PENDING", "PD":
		return StatusPending
	case "RUNNING", "R", "COMPLETING", "CG":
		return StatusRunning
	}
	return Status(strings.ToUpper(strings.TrimSpace(token)))
}

// NormalizeFinal maps an accounting state token to a canonical terminal
// Status. Cancelled jobs may be reported as "CANCELLED by <uid>"; the prefix
// is enough. Unrecognized tokens pass through unchanged.
func NormalizeFinal(token string) Status {
	t := strings.ToUpper(strings.TrimSpace(token))
	switch {
	case t == "COMPLETED", t == "CD":
		return StatusCompleted
	case t == "FAILED", t == "F", t == "NODE_FAIL", t == "OUT_OF_MEMORY":
		return StatusFailed
	case strings.HasPrefix(t, "CANCELLED"), t == "CA":
		return StatusCancelled
	case t == "TIMEOUT", t == "TO":
		return StatusTimeout
	}
	return Status(t)
}
