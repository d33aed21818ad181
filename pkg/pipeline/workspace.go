package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ScriptFilename is the fixed name of the rendered job script inside a job
// directory.
const ScriptFilename = "job_script.sh"

// Workspace holds the paths of one job's isolated directory tree.
type Workspace struct {
	JobDir     string
	OutputDir  string
	SlurmDir   string
	ScriptPath string
}

// nowFunc is swappable for tests.
var nowFunc = time.Now

// sanitizeJobName reduces a job name to a filesystem-safe slug.
func sanitizeJobName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	if slug == "" {
		slug = "job"
	}
	return slug
}

// createWorkspace creates a uniquely named, isolated job directory under the
// base workspace, with output/ and slurm/ subdirectories pre-created.
//
// The name format is {date}-{time}-{sanitized_job_name}-{6-hex-random}; the
// random suffix keeps identical job names submitted in the same second from
// colliding.
func createWorkspace(base, jobName string) (*Workspace, error) {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
	dirName := fmt.Sprintf("%s-%s-%s",
		nowFunc().Format("20060102-150405"),
		sanitizeJobName(jobName),
		suffix)

	jobDir := filepath.Join(base, dirName)
	ws := &Workspace{
		JobDir:     jobDir,
		OutputDir:  filepath.Join(jobDir, "output"),
		SlurmDir:   filepath.Join(jobDir, "slurm"),
		ScriptPath: filepath.Join(jobDir, ScriptFilename),
	}
	for _, dir := range []string{ws.OutputDir, ws.SlurmDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create job workspace: %w", err)
		}
	}
	return ws, nil
}
