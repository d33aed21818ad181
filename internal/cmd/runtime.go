package cmd

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/internal/observability"
	"github.com/jobsherpa/jobsherpa/pkg/jobregistry"
	"github.com/jobsherpa/jobsherpa/pkg/kb"
	"github.com/jobsherpa/jobsherpa/pkg/pipeline"
	"github.com/jobsherpa/jobsherpa/pkg/profile"
	"github.com/jobsherpa/jobsherpa/pkg/recipe"
	"github.com/jobsherpa/jobsherpa/pkg/render"
	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// storeFilename is the job registry file, relative to the workspace.
const storeFilename = ".jobsherpa/jobs.json"

// appRuntime holds the wired collaborators a subcommand needs. Built once
// per invocation from the resolved configuration.
type appRuntime struct {
	kb           *kb.Service
	profile      *profile.Manager
	userDefaults map[string]any
	system       *kb.SystemProfile
	site         *kb.SiteProfile
	scheduler    *kb.SchedulerProfile
	table        scheduler.CommandTable
	tracker      *jobregistry.Tracker
	logger       *zap.Logger
}

// buildRuntime wires the knowledge base, user profile, scheduler client,
// and job tracker from the resolved configuration.
//
// A missing system profile is not fatal here; commands that require one
// (templated submissions) fail later with a specific message, while status
// queries and config edits still work.
func buildRuntime() (*appRuntime, error) {
	logger := observability.CLILogger

	rt := &appRuntime{
		kb:      kb.NewService(cfg.KBDir, logger),
		profile: profile.NewManager(cfg.UserProfile, logger),
		logger:  logger,
	}

	userProfile, err := rt.profile.Load()
	if err != nil {
		logger.Warn("could not load user profile", zap.Error(err))
	}
	if userProfile != nil {
		rt.userDefaults = userProfile.Map()
	}

	systemName := cfg.SystemProfile
	if systemName == "" {
		if v, ok := rt.userDefaults["system"]; ok {
			systemName = fmt.Sprintf("%v", v)
		}
	}
	if systemName != "" {
		rt.system, err = rt.kb.LoadSystem(systemName)
		if err != nil {
			return nil, fmt.Errorf("load system profile %q: %w", systemName, err)
		}
		if rt.system == nil {
			return nil, fmt.Errorf("system profile %q not found in %s", systemName, cfg.KBDir)
		}
		rt.site, err = rt.kb.FindSiteForSystem(systemName)
		if err != nil {
			logger.Warn("could not resolve site profile", zap.Error(err))
		}
	}

	schedulerName := "slurm"
	if rt.system != nil && rt.system.Scheduler != "" {
		schedulerName = rt.system.Scheduler
	}
	rt.scheduler, err = rt.kb.LoadScheduler(schedulerName)
	if err != nil {
		return nil, fmt.Errorf("load scheduler profile %q: %w", schedulerName, err)
	}
	if rt.scheduler != nil {
		rt.table = rt.scheduler.Commands
	}
	if rt.system != nil {
		rt.table = rt.table.Merge(rt.system.Commands)
	}

	client := scheduler.NewSlurmClient(rt.table, logger,
		scheduler.WithTimeout(cfg.Scheduler.Timeout))
	store := jobregistry.NewStore(filepath.Join(cfg.Workspace, storeFilename), logger)
	rt.tracker = jobregistry.NewTracker(store, client, logger)
	return rt, nil
}

// buildPipeline wires a submission pipeline on top of the runtime.
func (rt *appRuntime) buildPipeline(dryRun bool) (*pipeline.Pipeline, error) {
	datasets, err := kb.NewDatasetIndex(rt.kb)
	if err != nil {
		rt.logger.Warn("could not index dataset profiles", zap.Error(err))
	}
	recipes := recipe.NewKeywordIndex(cfg.KBDir, rt.logger)
	renderer := render.NewDirRenderer(filepath.Join(cfg.KBDir, "templates"))

	return pipeline.New(pipeline.Config{
		Workspace:    cfg.Workspace,
		DryRun:       dryRun,
		Timeout:      cfg.Scheduler.Timeout,
		UserDefaults: rt.userDefaults,
		System:       rt.system,
		Site:         rt.site,
		Scheduler:    rt.scheduler,
	}, recipes, renderer, rt.tracker, datasets, rt.logger), nil
}
