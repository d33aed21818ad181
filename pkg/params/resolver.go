package params

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/jobsherpa/jobsherpa/pkg/kb"
)

// UnresolvedDatasetError reports a request naming a dataset the knowledge
// base knows, but for which the active system has no storage location.
// Recoverable only by new user input, so it is distinct from a missing
// parameter.
type UnresolvedDatasetError struct {
	Dataset string
	System  string
}

func (e *UnresolvedDatasetError) Error() string {
	return fmt.Sprintf("dataset %q has no location on system %q", e.Dataset, e.System)
}

// Inputs carries the configuration layers for one resolution attempt.
// Any profile may be nil; absent layers simply contribute nothing.
type Inputs struct {
	// Conversation holds values supplied this session. They are never
	// overwritten by defaults, only by recipe overrides.
	Conversation map[string]any

	// UserDefaults and SystemDefaults are the profile default maps,
	// applied fill-if-absent in that order.
	UserDefaults   map[string]any
	SystemDefaults map[string]any

	System    *kb.SystemProfile
	Site      *kb.SiteProfile
	Scheduler *kb.SchedulerProfile
	Dataset   *kb.DatasetProfile
	Recipe    *kb.Recipe
}

// Resolution is the outcome of a resolve: the merged set plus the ordered
// list of still-missing required parameters. An empty Missing means the set
// is complete.
type Resolution struct {
	Set     *Set
	Missing []string
}

// Complete reports whether every required parameter is present.
func (r *Resolution) Complete() bool { return len(r.Missing) == 0 }

// FirstMissing returns the parameter to ask the user for next: the first
// missing name in required-list order, not discovery order.
func (r *Resolution) FirstMissing() string {
	if len(r.Missing) == 0 {
		return ""
	}
	return r.Missing[0]
}

// Resolver merges configuration layers into one parameter set and validates
// it against the system and site requirements.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a parameter resolver.
func NewResolver(logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{logger: logger}
}

// Resolve merges the layers with precedence, highest to lowest:
//
//	recipe overrides > conversation > user defaults > system defaults >
//	knowledge-base fallbacks
//
// Lower layers fill only absent keys; the conversation layer is applied
// first so defaults can never clobber what the user said, and the recipe
// layer is applied last with unconditional overwrite.
func (r *Resolver) Resolve(in Inputs) (*Resolution, error) {
	set := NewSet()

	for k, v := range in.Conversation {
		set.Put(k, v, SourceConversation)
	}
	for k, v := range in.UserDefaults {
		set.Fill(k, v, SourceUser)
	}
	for k, v := range in.SystemDefaults {
		set.Fill(k, v, SourceSystem)
	}

	r.fillKBFallbacks(set, in)

	if err := r.mergeDataset(set, in); err != nil {
		return nil, err
	}

	// Recipe overrides always win, regardless of what any other layer said.
	if in.Recipe != nil {
		for k, v := range in.Recipe.TemplateArgs {
			set.Put(k, v, SourceRecipe)
		}
		if len(in.Recipe.ModuleLoads) > 0 {
			set.Put("module_loads", in.Recipe.ModuleLoads, SourceRecipe)
		}
	}

	res := &Resolution{Set: set, Missing: r.missing(set, in)}
	return res, nil
}

func (r *Resolver) fillKBFallbacks(set *Set, in Inputs) {
	if launcher, src := r.resolveLauncher(in); launcher != "" {
		set.Fill("launcher", launcher, src)
	}

	if in.System != nil {
		if len(in.System.AvailablePartitions) > 0 {
			set.Fill("partition", in.System.AvailablePartitions[0], SourceSystem)
		}
		if len(in.System.ModuleInit) > 0 {
			set.Fill("module_init", in.System.ModuleInit, SourceSystem)
		}
		set.Fill("system", in.System.Name, SourceSystem)
	}
	if in.Site != nil && len(in.Site.ModuleInit) > 0 {
		set.Fill("module_init", in.Site.ModuleInit, SourceSite)
	}
}

// resolveLauncher applies the launcher fallback chain: site launcher, then
// system command-table launcher, then scheduler-profile launcher. First
// present wins.
func (r *Resolver) resolveLauncher(in Inputs) (string, Source) {
	if in.Site != nil && in.Site.Launcher != "" {
		return in.Site.Launcher, SourceSite
	}
	if in.System != nil {
		if in.System.Commands != nil && in.System.Commands.Launcher != "" {
			return in.System.Commands.Launcher, SourceSystem
		}
		if in.System.Launcher != "" {
			return in.System.Launcher, SourceSystem
		}
	}
	if in.Scheduler != nil && in.Scheduler.Commands.Launcher != "" {
		return in.Scheduler.Commands.Launcher, SourceScheduler
	}
	return "", ""
}

func (r *Resolver) mergeDataset(set *Set, in Inputs) error {
	ds := in.Dataset
	if ds == nil {
		return nil
	}
	systemName := ""
	if in.System != nil {
		systemName = in.System.Name
	}
	location, ok := ds.LocationFor(systemName)
	if !ok {
		return &UnresolvedDatasetError{Dataset: ds.Name, System: systemName}
	}

	set.Fill("dataset_name", ds.Name, SourceSystem)
	set.Fill("dataset_path", location, SourceSystem)
	if ds.Staging != nil && len(ds.Staging.Steps) > 0 {
		set.Fill("staging_steps", ds.Staging.Steps, SourceSystem)
	}
	if len(ds.PreRunEdits) > 0 {
		set.Fill("pre_run_edits", ds.PreRunEdits, SourceSystem)
	}
	for k, v := range ds.ResourceHints {
		set.Fill(k, v, SourceSystem)
	}
	return nil
}

// Required returns the ordered, de-duplicated required parameter list:
// site requirements, then system requirements, then the literal job_name.
func Required(site *kb.SiteProfile, system *kb.SystemProfile) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(names ...string) {
		for _, n := range names {
			if n != "" && !seen[n] {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	if site != nil {
		add(site.JobRequirements...)
	}
	if system != nil {
		add(system.JobRequirements...)
	}
	add("job_name")
	return out
}

func (r *Resolver) missing(set *Set, in Inputs) []string {
	var missing []string
	for _, name := range Required(in.Site, in.System) {
		v, ok := set.Get(name)
		if !ok || EmptyValue(v) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		r.logger.Debug("parameter set incomplete", zap.Strings("missing", missing))
	}
	return missing
}
