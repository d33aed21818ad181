package jobregistry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// Tracker owns the job map and reconciles it against the scheduler on
// demand. There is no background poller: every status query performs at
// most one scheduler round trip, so polling cost is proportional to query
// volume rather than wall-clock time.
type Tracker struct {
	mu     sync.Mutex
	store  *Store
	client scheduler.Client
	logger *zap.Logger
	jobs   map[string]*JobRecord
}

// NewTracker loads the persisted job map and wires the scheduler client.
func NewTracker(store *Store, client scheduler.Client, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{
		store:  store,
		client: client,
		logger: logger,
		jobs:   store.Load(),
	}
}

// Register inserts a new PENDING record and persists immediately. Calling
// it again for a known id is a no-op.
func (t *Tracker) Register(jobID, jobName, jobDirectory string, parser *OutputParser) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.jobs[jobID]; ok {
		return nil
	}
	t.jobs[jobID] = &JobRecord{
		JobID:        jobID,
		JobName:      jobName,
		Status:       scheduler.StatusPending,
		StartTime:    nowFunc(),
		JobDirectory: jobDirectory,
		OutputParser: parser,
	}
	t.logger.Info("registered job",
		zap.String("job_id", jobID),
		zap.String("job_name", jobName),
		zap.String("job_directory", jobDirectory))
	return t.store.Save(t.jobs)
}

// Record returns a copy of the job's record.
func (t *Tracker) Record(jobID string) (JobRecord, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	r, ok := t.jobs[jobID]
	if !ok {
		return JobRecord{}, false
	}
	return *r, true
}

// All returns copies of every record, newest first.
func (t *Tracker) All() []JobRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]JobRecord, 0, len(t.jobs))
	for _, r := range t.jobs {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out
}

// LatestJobID returns the most recently registered job id, or "".
func (t *Tracker) LatestJobID() string {
	all := t.All()
	if len(all) == 0 {
		return ""
	}
	return all[0].JobID
}

// GetStatus returns the job's status, refreshing it from the scheduler when
// the cached value is non-terminal. Terminal statuses are returned from
// cache with zero scheduler queries; an unknown id returns ok=false.
//
// When neither the active queue nor accounting knows the job yet, the
// cached status is returned unchanged; scheduler lag is tolerated, not an
// error.
func (t *Tracker) GetStatus(ctx context.Context, jobID string) (scheduler.Status, bool, error) {
	t.mu.Lock()
	rec, ok := t.jobs[jobID]
	if !ok {
		t.mu.Unlock()
		return "", false, nil
	}
	if rec.Terminal() {
		status := rec.Status
		t.mu.Unlock()
		return status, true, nil
	}
	t.mu.Unlock()

	if err := t.CheckAndUpdateAll(ctx, jobID); err != nil {
		return "", true, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.jobs[jobID].Status, true, nil
}

// SetStatus applies a status transition, persists it, and attempts result
// extraction when the job just completed. Illegal transitions (anything out
// of a terminal state) are logged and dropped.
func (t *Tracker) SetStatus(jobID string, status scheduler.Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.setStatusLocked(jobID, status)
}

func (t *Tracker) setStatusLocked(jobID string, status scheduler.Status) error {
	rec, ok := t.jobs[jobID]
	if !ok {
		return fmt.Errorf("unknown job id %q", jobID)
	}
	if !canTransition(rec.Status, status) {
		t.logger.Warn("dropping illegal status transition",
			zap.String("job_id", jobID),
			zap.String("from", string(rec.Status)),
			zap.String("to", string(status)))
		return nil
	}
	if rec.Status != status {
		t.logger.Info("job status changed",
			zap.String("job_id", jobID),
			zap.String("status", string(status)))
	}
	rec.Status = status
	if status == scheduler.StatusCompleted && rec.OutputParser != nil && rec.Result == nil {
		t.parseResultLocked(rec)
	}
	return t.store.Save(t.jobs)
}

// CheckAndUpdateAll refreshes non-terminal jobs in one batched scheduler
// round: a single active-statuses query, then a single final-statuses query
// for whatever the active queue no longer reports. With job ids given, only
// those jobs are considered.
func (t *Tracker) CheckAndUpdateAll(ctx context.Context, jobIDs ...string) error {
	t.mu.Lock()
	var pending []string
	if len(jobIDs) > 0 {
		for _, id := range jobIDs {
			if rec, ok := t.jobs[id]; ok && !rec.Terminal() {
				pending = append(pending, id)
			}
		}
	} else {
		for id, rec := range t.jobs {
			if !rec.Terminal() {
				pending = append(pending, id)
			}
		}
	}
	t.mu.Unlock()
	if len(pending) == 0 {
		return nil
	}
	sort.Strings(pending)

	active, err := t.client.ActiveStatuses(ctx, pending)
	if err != nil {
		return fmt.Errorf("query active statuses: %w", err)
	}

	var gone []string
	for _, id := range pending {
		if status, ok := active[id]; ok {
			if err := t.SetStatus(id, status); err != nil {
				return err
			}
		} else {
			gone = append(gone, id)
		}
	}
	if len(gone) == 0 {
		return nil
	}

	final, err := t.client.FinalStatuses(ctx, gone)
	if err != nil {
		return fmt.Errorf("query final statuses: %w", err)
	}
	for _, id := range gone {
		status, ok := final[id]
		if !ok {
			// Not in the active queue, not in accounting yet: scheduler
			// lag. Leave the cached status alone.
			continue
		}
		// Any final state the client did not normalize to a specific
		// terminal value counts as failed.
		if !status.Terminal() {
			status = scheduler.StatusFailed
		}
		if err := t.SetStatus(id, status); err != nil {
			return err
		}
	}
	return nil
}

// Result returns the extracted result for a job, if any.
func (t *Tracker) Result(jobID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[jobID]
	if !ok || rec.Result == nil {
		return "", false
	}
	return *rec.Result, true
}

// TryParseResult forces a result-extraction attempt regardless of cached
// status. Useful when scheduler status lags behind output availability.
func (t *Tracker) TryParseResult(jobID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.jobs[jobID]
	if !ok || rec.OutputParser == nil {
		return "", false
	}
	t.parseResultLocked(rec)
	if rec.Result == nil {
		return "", false
	}
	if err := t.store.Save(t.jobs); err != nil {
		t.logger.Warn("failed to persist parsed result", zap.Error(err))
	}
	return *rec.Result, true
}

// parseResultLocked reads the job's output file and applies the parser
// regex. Any failure is logged and leaves the result unset; extraction is
// always best-effort.
func (t *Tracker) parseResultLocked(rec *JobRecord) {
	parser := rec.OutputParser
	if parser == nil || parser.File == "" || parser.Pattern == "" || rec.JobDirectory == "" {
		t.logger.Warn("job is missing information required for output parsing",
			zap.String("job_id", rec.JobID))
		return
	}
	path := filepath.Join(rec.JobDirectory, parser.File)
	data, err := os.ReadFile(path)
	if err != nil {
		t.logger.Warn("could not read output file",
			zap.String("job_id", rec.JobID),
			zap.String("path", path),
			zap.Error(err))
		return
	}
	re, err := regexp.Compile(parser.Pattern)
	if err != nil {
		t.logger.Warn("invalid output parser pattern",
			zap.String("job_id", rec.JobID),
			zap.String("pattern", parser.Pattern),
			zap.Error(err))
		return
	}
	m := re.FindStringSubmatch(string(data))
	if len(m) < 2 {
		t.logger.Warn("output parser pattern did not match",
			zap.String("job_id", rec.JobID),
			zap.String("path", path))
		return
	}
	result := m[1]
	rec.Result = &result
	t.logger.Info("parsed job result",
		zap.String("job_id", rec.JobID),
		zap.String("result", result))
}
