// Package jobregistry owns the durable lifecycle state of submitted jobs:
// a persisted record per job plus a tracker that lazily reconciles records
// against the external scheduler.
package jobregistry

import (
	"time"

	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// nowFunc is swappable for tests.
var nowFunc = time.Now

// OutputParser describes how to extract a scalar result from a completed
// job: a file path relative to the job directory and a regex whose first
// capture group is the result.
type OutputParser struct {
	File    string `json:"file"`
	Pattern string `json:"pattern"`
}

// JobRecord is the persisted lifecycle state for one submitted job.
//
// NOTE: JSON field names are the stable on-disk contract; the store file is
// a single JSON object keyed by job id with these values.
type JobRecord struct {
	JobID        string           `json:"job_id"`
	JobName      string           `json:"job_name,omitempty"`
	Status       scheduler.Status `json:"status"`
	StartTime    time.Time        `json:"start_time"`
	JobDirectory string           `json:"job_directory"`
	OutputParser *OutputParser    `json:"output_parser,omitempty"`
	Result       *string          `json:"result,omitempty"`
}

// Terminal reports whether the record has reached a final status.
func (r *JobRecord) Terminal() bool { return r.Status.Terminal() }

// canTransition enforces the lifecycle invariant: PENDING -> RUNNING ->
// terminal, terminal states immutable. Re-asserting the current status is
// always allowed.
func canTransition(from, to scheduler.Status) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	switch from {
	case scheduler.StatusPending:
		return to == scheduler.StatusRunning || to.Terminal()
	case scheduler.StatusRunning:
		return to.Terminal()
	}
	// Unrecognized pass-through statuses may settle anywhere.
	return true
}
