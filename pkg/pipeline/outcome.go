// Package pipeline orchestrates one submission attempt: recipe lookup,
// parameter resolution, workspace creation, template rendering, scheduler
// invocation, and job registration.
package pipeline

import "fmt"

// OutcomeKind tags the result of a submission attempt.
type OutcomeKind string

const (
	// OutcomeSubmitted means a job was submitted and registered.
	OutcomeSubmitted OutcomeKind = "submitted"

	// OutcomeNeedParameter means resolution stopped on a missing required
	// parameter; recoverable via one more conversation turn.
	OutcomeNeedParameter OutcomeKind = "need_parameter"

	// OutcomeCompleted means a non-templated recipe ran directly and
	// produced output without a trackable job id.
	OutcomeCompleted OutcomeKind = "completed"

	// OutcomeDryRun means the attempt reached the execution step in
	// dry-run mode; nothing was spawned or registered.
	OutcomeDryRun OutcomeKind = "dry_run"

	// OutcomeFailed means the attempt failed terminally for this request.
	OutcomeFailed OutcomeKind = "failed"
)

// Outcome is the structured result of Submit. Errors in the taxonomy
// (missing parameter, unresolved dataset, template not found, submission
// failure, scheduler unavailable) are all folded into outcomes; they never
// cross into the conversation layer as raw errors.
type Outcome struct {
	Kind OutcomeKind

	// JobID is set for OutcomeSubmitted.
	JobID string

	// Param is the first missing parameter for OutcomeNeedParameter.
	Param string

	// Message is the user-facing text for this outcome.
	Message string

	// RawOutput carries captured command output for OutcomeCompleted and
	// OutcomeFailed, so scheduler error text reaches the user verbatim.
	RawOutput string
}

func submitted(jobID string) Outcome {
	return Outcome{
		Kind:    OutcomeSubmitted,
		JobID:   jobID,
		Message: fmt.Sprintf("Job submitted successfully with ID: %s", jobID),
	}
}

func needParameter(name string) Outcome {
	return Outcome{
		Kind:    OutcomeNeedParameter,
		Param:   name,
		Message: fmt.Sprintf("I need a value for %q to submit this job. What should it be?", name),
	}
}

func failed(message, rawOutput string) Outcome {
	return Outcome{Kind: OutcomeFailed, Message: message, RawOutput: rawOutput}
}
