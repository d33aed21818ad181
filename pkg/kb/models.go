// Package kb provides typed access to the knowledge base: per-system,
// per-site, per-scheduler, and per-dataset YAML profiles plus application
// recipes.
//
// All profiles are optional. A missing file is not an error; callers degrade
// gracefully and collect the information interactively instead.
package kb

import (
	"github.com/jobsherpa/jobsherpa/pkg/scheduler"
)

// OutputParser describes where and how to extract a scalar result from a
// completed job's output: a file path relative to the job directory and a
// regex whose first capture group is the result.
type OutputParser struct {
	File    string `json:"file" yaml:"file"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Recipe is a named, reusable job definition: either a template to render
// and submit, or a fixed tool invocation.
type Recipe struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty" yaml:"keywords,omitempty"`

	// Template is the template id to render into a job script. When empty,
	// Tool and Args are executed directly instead.
	Template     string         `json:"template,omitempty" yaml:"template,omitempty"`
	TemplateArgs map[string]any `json:"template_args,omitempty" yaml:"template_args,omitempty"`

	// Tool is the generic command to run, resolved through the active
	// scheduler's command table (e.g. "submit" -> sbatch).
	Tool string   `json:"tool" yaml:"tool"`
	Args []string `json:"args,omitempty" yaml:"args,omitempty"`

	ModuleLoads     []string      `json:"module_loads,omitempty" yaml:"module_loads,omitempty"`
	OutputParser    *OutputParser `json:"output_parser,omitempty" yaml:"output_parser,omitempty"`
	DatasetRequired bool          `json:"dataset_required,omitempty" yaml:"dataset_required,omitempty"`
}

// Templated reports whether the recipe renders a job script.
func (r *Recipe) Templated() bool { return r.Template != "" }

// SystemProfile describes one HPC system: its scheduler, command bindings,
// required job parameters, and filesystem layout.
type SystemProfile struct {
	Name        string `json:"name" yaml:"name"`
	Scheduler   string `json:"scheduler" yaml:"scheduler"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	Commands *scheduler.CommandTable `json:"commands,omitempty" yaml:"commands,omitempty"`

	// JobRequirements lists parameter names every job on this system must
	// provide. Order matters: it determines which missing parameter the
	// user is asked for first.
	JobRequirements     []string `json:"job_requirements,omitempty" yaml:"job_requirements,omitempty"`
	AvailablePartitions []string `json:"available_partitions,omitempty" yaml:"available_partitions,omitempty"`

	// ModuleInit holds commands that prepare the module environment before
	// any module loads.
	ModuleInit      []string                     `json:"module_init,omitempty" yaml:"module_init,omitempty"`
	FilesystemRoots map[string]string            `json:"filesystem_roots,omitempty" yaml:"filesystem_roots,omitempty"`
	Apps            map[string]map[string]string `json:"apps,omitempty" yaml:"apps,omitempty"`

	// Launcher is the system-preferred MPI launcher (e.g. ibrun).
	Launcher string `json:"launcher,omitempty" yaml:"launcher,omitempty"`
}

// SchedulerProfile binds a scheduler name to its command table.
type SchedulerProfile struct {
	Name     string                 `json:"name" yaml:"name"`
	Commands scheduler.CommandTable `json:"commands" yaml:"commands"`
}

// SiteProfile describes a site spanning one or more systems.
type SiteProfile struct {
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
	JobRequirements []string `json:"job_requirements,omitempty" yaml:"job_requirements,omitempty"`
	ModuleInit      []string `json:"module_init,omitempty" yaml:"module_init,omitempty"`
	Systems         []string `json:"systems,omitempty" yaml:"systems,omitempty"`
	Launcher        string   `json:"launcher,omitempty" yaml:"launcher,omitempty"`
}

// StagingSpec describes how to fetch a dataset before first use.
type StagingSpec struct {
	URL   string   `json:"url" yaml:"url"`
	Steps []string `json:"steps,omitempty" yaml:"steps,omitempty"`
}

// DatasetProfile describes a named dataset, where it lives on each system,
// and any preparation a run needs.
type DatasetProfile struct {
	Name    string   `json:"name" yaml:"name"`
	Aliases []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`

	// Locations maps system name to the dataset's storage path there.
	Locations map[string]string `json:"locations,omitempty" yaml:"locations,omitempty"`

	Staging     *StagingSpec `json:"staging,omitempty" yaml:"staging,omitempty"`
	PreRunEdits []string     `json:"pre_run_edits,omitempty" yaml:"pre_run_edits,omitempty"`

	// ResourceHints carries scheduler parameter fallbacks tuned for this
	// dataset (e.g. nodes, wall time).
	ResourceHints map[string]any `json:"resource_hints,omitempty" yaml:"resource_hints,omitempty"`
}

// LocationFor returns the dataset path on the named system, if any.
func (d *DatasetProfile) LocationFor(system string) (string, bool) {
	path, ok := d.Locations[system]
	return path, ok
}
