package scheduler

import (
	"context"
	"fmt"
)

// Client queries an external scheduler about a batch of job identifiers.
//
// Implementations must return normalized Status values (see NormalizeActive
// and NormalizeFinal) keyed by the requested job ids. Jobs the scheduler does
// not know about are simply absent from the returned map; that is not an
// error.
type Client interface {
	// ActiveStatuses returns statuses for jobs still in the active queue
	// (queued or running).
	ActiveStatuses(ctx context.Context, jobIDs []string) (map[string]Status, error)

	// FinalStatuses returns terminal statuses for jobs that have left the
	// active queue, from the scheduler's accounting records.
	FinalStatuses(ctx context.Context, jobIDs []string) (map[string]Status, error)
}

// UnavailableError indicates the scheduler CLI binary itself could not be
// found. This usually means the agent is running on a node without scheduler
// client tools installed.
type UnavailableError struct {
	Command string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("scheduler command %q not found; run this on a login node, or use --dry-run", e.Command)
}

// CommandTable maps the generic scheduler operations to concrete
// executables for one scheduler (e.g. submit -> sbatch).
//
// Empty fields fall back to the generic operation name.
type CommandTable struct {
	Submit   string `json:"submit" yaml:"submit"`
	Status   string `json:"status" yaml:"status"`
	History  string `json:"history" yaml:"history"`
	Cancel   string `json:"cancel,omitempty" yaml:"cancel,omitempty"`
	Launcher string `json:"launcher,omitempty" yaml:"launcher,omitempty"`
}

// Merge overlays non-empty fields of override onto t and returns the
// result. A nil override returns t unchanged.
func (t CommandTable) Merge(override *CommandTable) CommandTable {
	if override == nil {
		return t
	}
	if override.Submit != "" {
		t.Submit = override.Submit
	}
	if override.Status != "" {
		t.Status = override.Status
	}
	if override.History != "" {
		t.History = override.History
	}
	if override.Cancel != "" {
		t.Cancel = override.Cancel
	}
	if override.Launcher != "" {
		t.Launcher = override.Launcher
	}
	return t
}

// Resolve maps a generic operation name to the concrete command, falling
// back to the generic name when no mapping exists.
func (t CommandTable) Resolve(generic string) string {
	var mapped string
	switch generic {
	case "submit":
		mapped = t.Submit
	case "status":
		mapped = t.Status
	case "history":
		mapped = t.History
	case "cancel":
		mapped = t.Cancel
	case "launcher":
		mapped = t.Launcher
	}
	if mapped == "" {
		return generic
	}
	return mapped
}
