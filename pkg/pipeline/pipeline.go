package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/pkg/jobregistry"
	"github.com/jobsherpa/jobsherpa/pkg/kb"
	"github.com/jobsherpa/jobsherpa/pkg/params"
	"github.com/jobsherpa/jobsherpa/pkg/recipe"
	"github.com/jobsherpa/jobsherpa/pkg/render"
	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// jobIDPattern extracts the scheduler-assigned job id from submit output.
var jobIDPattern = regexp.MustCompile(`Submitted batch job (\S+)`)

// runCommand executes a process in a working directory and returns captured
// stdout and stderr. Swappable for tests.
type runCommand func(ctx context.Context, dir, name string, args ...string) (stdout, stderr string, err error)

func execRun(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	err := cmd.Run()
	return out.String(), errBuf.String(), err
}

// Config wires a Pipeline.
type Config struct {
	// Workspace is the base directory job directories are created under.
	Workspace string

	// DryRun stops the pipeline just before process execution while still
	// exercising every earlier step.
	DryRun bool

	// Timeout bounds the submit command invocation.
	Timeout time.Duration

	// UserDefaults and profiles are the resolution layers for this session.
	UserDefaults map[string]any
	System       *kb.SystemProfile
	Site         *kb.SiteProfile
	Scheduler    *kb.SchedulerProfile
}

// Pipeline turns a matched recipe plus conversational context into a
// submitted, registered job.
type Pipeline struct {
	cfg      Config
	recipes  recipe.Resolver
	resolver *params.Resolver
	renderer render.Renderer
	tracker  *jobregistry.Tracker
	datasets *kb.DatasetIndex
	logger   *zap.Logger
	run      runCommand

	// tables caches the resolved command table per scheduler name.
	tables map[string]scheduler.CommandTable
}

// New creates a submission pipeline.
func New(cfg Config, recipes recipe.Resolver, renderer render.Renderer, tracker *jobregistry.Tracker, datasets *kb.DatasetIndex, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = scheduler.DefaultTimeout
	}
	return &Pipeline{
		cfg:      cfg,
		recipes:  recipes,
		resolver: params.NewResolver(logger),
		renderer: renderer,
		tracker:  tracker,
		datasets: datasets,
		logger:   logger,
		run:      execRun,
		tables:   make(map[string]scheduler.CommandTable),
	}
}

// commandTable resolves (and caches) the command table for the active
// scheduler: system profile bindings win, then the scheduler profile.
func (p *Pipeline) commandTable() scheduler.CommandTable {
	name := "default"
	if p.cfg.System != nil && p.cfg.System.Scheduler != "" {
		name = p.cfg.System.Scheduler
	}
	if table, ok := p.tables[name]; ok {
		return table
	}
	var table scheduler.CommandTable
	if p.cfg.Scheduler != nil {
		table = p.cfg.Scheduler.Commands
	}
	if p.cfg.System != nil {
		table = table.Merge(p.cfg.System.Commands)
	}
	p.tables[name] = table
	return table
}

// Submit runs one submission attempt for the prompt. The conversation map
// holds parameter values collected in earlier turns of this request.
func (p *Pipeline) Submit(ctx context.Context, prompt string, conversation map[string]any) Outcome {
	rcp, err := p.recipes.FindBest(prompt)
	if err != nil {
		return failed(fmt.Sprintf("Recipe lookup failed: %v", err), "")
	}
	if rcp == nil {
		return failed("I could not find an application recipe matching that request.", "")
	}
	p.logger.Info("matched recipe",
		zap.String("recipe", rcp.Name),
		zap.String("prompt", prompt))

	if !rcp.Templated() {
		return p.submitDirect(ctx, rcp)
	}
	return p.submitTemplated(ctx, rcp, prompt, conversation)
}

// submitDirect executes a fixed tool+args recipe in the base workspace. If
// the output carries a scheduler job id the run is registered and tracked;
// otherwise the raw output is the result.
func (p *Pipeline) submitDirect(ctx context.Context, rcp *kb.Recipe) Outcome {
	tool := p.commandTable().Resolve(rcp.Tool)
	if p.cfg.DryRun {
		return Outcome{
			Kind:    OutcomeDryRun,
			Message: fmt.Sprintf("DRY-RUN: would execute: %s %s", tool, strings.Join(rcp.Args, " ")),
		}
	}
	out, errOut, err := p.execute(ctx, p.cfg.Workspace, tool, rcp.Args...)
	if err != nil {
		return p.executionFailure(tool, err, errOut)
	}
	if m := jobIDPattern.FindStringSubmatch(out); m != nil {
		jobID := m[1]
		if err := p.register(jobID, rcp, p.cfg.Workspace, nil); err != nil {
			return failed(fmt.Sprintf("Job %s submitted but could not be registered: %v", jobID, err), out)
		}
		return submitted(jobID)
	}
	return Outcome{Kind: OutcomeCompleted, Message: strings.TrimSpace(out), RawOutput: out}
}

func (p *Pipeline) submitTemplated(ctx context.Context, rcp *kb.Recipe, prompt string, conversation map[string]any) Outcome {
	var dataset *kb.DatasetProfile
	if p.datasets != nil {
		dataset = p.datasets.Resolve(prompt)
	}
	if rcp.DatasetRequired && dataset == nil {
		return failed("This recipe needs a dataset, and I could not find one named in your request.", "")
	}

	res, err := p.resolver.Resolve(params.Inputs{
		Conversation: conversation,
		UserDefaults: p.cfg.UserDefaults,
		System:       p.cfg.System,
		Site:         p.cfg.Site,
		Scheduler:    p.cfg.Scheduler,
		Dataset:      dataset,
		Recipe:       rcp,
	})
	if err != nil {
		var unresolved *params.UnresolvedDatasetError
		if errors.As(err, &unresolved) {
			return failed(fmt.Sprintf(
				"Dataset %q is known, but has no storage location on system %q. Add one to its dataset profile or pick another system.",
				unresolved.Dataset, unresolved.System), "")
		}
		return failed(fmt.Sprintf("Parameter resolution failed: %v", err), "")
	}
	if !res.Complete() {
		return needParameter(res.FirstMissing())
	}

	jobName := fmt.Sprintf("%v", valueOr(res.Set, "job_name", rcp.Name))
	ws, err := createWorkspace(p.cfg.Workspace, jobName)
	if err != nil {
		return failed(fmt.Sprintf("Could not create job workspace: %v", err), "")
	}

	// Job-local paths join the set before rendering so templates and
	// output-parser paths can reference them.
	res.Set.Put("job_dir", ws.JobDir, params.SourceSystem)
	res.Set.Put("output_dir", ws.OutputDir, params.SourceSystem)
	res.Set.Put("slurm_dir", ws.SlurmDir, params.SourceSystem)

	script, err := p.renderer.Render(rcp.Template, res.Set.Map())
	if err != nil {
		var notFound *render.TemplateNotFoundError
		if errors.As(err, &notFound) {
			return failed(notFound.Error(), "")
		}
		return failed(fmt.Sprintf("Template rendering failed: %v", err), "")
	}
	if err := os.WriteFile(ws.ScriptPath, []byte(script), 0o644); err != nil {
		return failed(fmt.Sprintf("Could not write job script: %v", err), "")
	}

	tool := p.commandTable().Resolve(rcp.Tool)
	if p.cfg.DryRun {
		return Outcome{
			Kind:    OutcomeDryRun,
			Message: fmt.Sprintf("DRY-RUN: would execute: %s %s (in %s)", tool, ScriptFilename, ws.JobDir),
		}
	}

	// Working directory is the job directory, not the base workspace; this
	// is what makes relative output-file paths in recipes resolve later.
	out, errOut, err := p.execute(ctx, ws.JobDir, tool, ScriptFilename)
	if err != nil {
		return p.executionFailure(tool, err, errOut)
	}

	m := jobIDPattern.FindStringSubmatch(out)
	if m == nil {
		return failed(
			"The scheduler did not return a job id. Its output follows:\n"+strings.TrimSpace(out+"\n"+errOut),
			out)
	}
	jobID := m[1]

	parser, err := p.renderParser(rcp.OutputParser, res.Set.Map())
	if err != nil {
		return failed(fmt.Sprintf("Job %s submitted but its output parser could not be prepared: %v", jobID, err), out)
	}
	if err := p.register(jobID, rcp, ws.JobDir, parser); err != nil {
		return failed(fmt.Sprintf("Job %s submitted but could not be registered: %v", jobID, err), out)
	}
	return submitted(jobID)
}

func (p *Pipeline) execute(ctx context.Context, dir, tool string, args ...string) (string, string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()
	p.logger.Info("executing scheduler command",
		zap.String("tool", tool),
		zap.Strings("args", args),
		zap.String("dir", dir))
	return p.run(ctx, dir, tool, args...)
}

func (p *Pipeline) executionFailure(tool string, err error, stderr string) Outcome {
	if errors.Is(err, exec.ErrNotFound) {
		unavailable := &scheduler.UnavailableError{Command: tool}
		return failed(unavailable.Error(), "")
	}
	msg := fmt.Sprintf("Submission command failed: %v", err)
	if s := strings.TrimSpace(stderr); s != "" {
		msg += "\n" + s
	}
	return failed(msg, stderr)
}

// renderParser resolves a recipe's output-parser spec, rendering the file
// path when it is itself a template referencing dataset or job parameters.
func (p *Pipeline) renderParser(spec *kb.OutputParser, context map[string]any) (*jobregistry.OutputParser, error) {
	if spec == nil {
		return nil, nil
	}
	file, err := render.String(spec.File, context)
	if err != nil {
		return nil, err
	}
	return &jobregistry.OutputParser{File: file, Pattern: spec.Pattern}, nil
}

func (p *Pipeline) register(jobID string, rcp *kb.Recipe, jobDir string, parser *jobregistry.OutputParser) error {
	if parser == nil && rcp.OutputParser != nil {
		parser = &jobregistry.OutputParser{File: rcp.OutputParser.File, Pattern: rcp.OutputParser.Pattern}
	}
	return p.tracker.Register(jobID, rcp.Name, jobDir, parser)
}

func valueOr(set *params.Set, key string, fallback any) any {
	if v, ok := set.Get(key); ok && !params.EmptyValue(v) {
		return v
	}
	return fallback
}
