package scheduler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds a single scheduler CLI invocation. A hung squeue
// must surface as a failed query, never as a hung conversation.
const DefaultTimeout = 30 * time.Second

// runCommand executes a scheduler CLI command and returns its captured
// stdout and stderr. Swappable for tests.
type runCommand func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

func execRun(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.String(), errBuf.String(), err
}

// SlurmClient implements Client against the SLURM CLI tools.
//
// Active statuses come from the command table's "status" command (squeue),
// final statuses from "history" (sacct). Both are invoked once per query
// with the full id batch, under a context timeout and a shared rate limit
// so bulk refreshes cannot hammer the scheduler.
type SlurmClient struct {
	table   CommandTable
	timeout time.Duration
	limiter *rate.Limiter
	logger  *zap.Logger
	run     runCommand
}

// SlurmOption configures a SlurmClient.
type SlurmOption func(*SlurmClient)

// WithTimeout overrides the per-invocation timeout.
func WithTimeout(d time.Duration) SlurmOption {
	return func(c *SlurmClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRunner replaces the process runner. Intended for tests.
func WithRunner(run func(ctx context.Context, name string, args ...string) (string, string, error)) SlurmOption {
	return func(c *SlurmClient) { c.run = run }
}

// NewSlurmClient creates a SLURM client using the given command table.
func NewSlurmClient(table CommandTable, logger *zap.Logger, opts ...SlurmOption) *SlurmClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &SlurmClient{
		table:   table,
		timeout: DefaultTimeout,
		limiter: rate.NewLimiter(rate.Every(time.Second), 4),
		logger:  logger,
		run:     execRun,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *SlurmClient) invoke(ctx context.Context, generic string, args ...string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := c.table.Resolve(generic)
	c.logger.Debug("invoking scheduler command",
		zap.String("command", name),
		zap.Strings("args", args))

	stdout, stderr, err := c.run(ctx, name, args...)
	if stderr != "" {
		c.logger.Warn("scheduler command wrote stderr",
			zap.String("command", name),
			zap.String("stderr", strings.TrimSpace(stderr)))
	}
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", &UnavailableError{Command: name}
		}
		// Non-zero exit with partial output is still worth parsing; squeue
		// exits non-zero for ids it no longer knows about.
		if stdout != "" {
			return stdout, nil
		}
		return "", err
	}
	return stdout, nil
}

// ActiveStatuses queries the active queue for the given job ids.
func (c *SlurmClient) ActiveStatuses(ctx context.Context, jobIDs []string) (map[string]Status, error) {
	statuses := make(map[string]Status)
	if len(jobIDs) == 0 {
		return statuses, nil
	}
	out, err := c.invoke(ctx, "status",
		"--jobs="+strings.Join(jobIDs, ","),
		"--noheader",
		"--format=%i,%T")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		parts := strings.SplitN(strings.TrimSpace(line), ",", 2)
		if len(parts) != 2 {
			continue
		}
		id, token := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		status := NormalizeActive(token)
		if status != StatusPending && status != StatusRunning {
			c.logger.Warn("unexpected active state token",
				zap.String("job_id", id),
				zap.String("token", token))
		}
		statuses[id] = status
	}
	return statuses, nil
}

// FinalStatuses queries accounting records for terminal statuses.
//
// Accounting output lists one row per job step (e.g. "4821", "4821.batch");
// each requested id is matched by prefix and the first row wins.
func (c *SlurmClient) FinalStatuses(ctx context.Context, jobIDs []string) (map[string]Status, error) {
	statuses := make(map[string]Status)
	if len(jobIDs) == 0 {
		return statuses, nil
	}
	out, err := c.invoke(ctx, "history",
		"--jobs="+strings.Join(jobIDs, ","),
		"--noheader",
		"--format=JobId,State,ExitCode")
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// sacct also supports pipe-delimited output; accept both.
		var parts []string
		if strings.Contains(line, "|") {
			parts = strings.Split(strings.TrimSpace(line), "|")
		} else {
			parts = strings.Fields(line)
		}
		if len(parts) < 2 {
			continue
		}
		rowID, token := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		for _, want := range jobIDs {
			if _, done := statuses[want]; done {
				continue
			}
			if rowID == want || strings.HasPrefix(rowID, want+".") {
				status := NormalizeFinal(token)
				if !status.Terminal() {
					c.logger.Warn("unexpected final state token",
						zap.String("job_id", want),
						zap.String("token", token))
				}
				statuses[want] = status
				break
			}
		}
	}
	return statuses, nil
}
