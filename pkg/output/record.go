// Package output provides JSONL output for job lifecycle events.
//
// Output is structured as typed record envelopes. Each line is a
// self-contained JSON object that can be parsed independently, so the
// stream can feed dashboards or be grepped directly.
package output

import (
	"encoding/json"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: jobsherpa.<type>.v<version>
const (
	// TypeSubmission identifies job submission records.
	TypeSubmission = "jobsherpa.submission.v1"

	// TypeStatus identifies job status records.
	TypeStatus = "jobsherpa.status.v1"

	// TypeResult identifies extracted result records.
	TypeResult = "jobsherpa.result.v1"

	// TypeError identifies error records.
	TypeError = "jobsherpa.error.v1"
)

// Record is the envelope for all JSONL output.
type Record struct {
	// Type identifies the record type (e.g., "jobsherpa.status.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// Scheduler identifies the scheduler backing the job (e.g., "slurm").
	Scheduler string `json:"scheduler,omitempty"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// SubmissionRecord is the data payload emitted when a job is submitted.
type SubmissionRecord struct {
	JobID        string `json:"job_id"`
	JobName      string `json:"job_name,omitempty"`
	JobDirectory string `json:"job_directory,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

// StatusRecord is the data payload for one job's lifecycle state.
type StatusRecord struct {
	JobID     string    `json:"job_id"`
	JobName   string    `json:"job_name,omitempty"`
	Status    string    `json:"status"`
	StartTime time.Time `json:"start_time"`
	Result    string    `json:"result,omitempty"`
}

// ResultRecord is the data payload emitted when a result is extracted.
type ResultRecord struct {
	JobID  string `json:"job_id"`
	Result string `json:"result"`
}

// ErrorRecord is the data payload for errors worth surfacing downstream.
type ErrorRecord struct {
	JobID   string `json:"job_id,omitempty"`
	Message string `json:"message"`
}
