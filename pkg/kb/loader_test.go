package kb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeKBFile(t *testing.T, base, kind, name, content string) {
	t.Helper()
	dir := filepath.Join(base, kind)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
}

func TestLoadSystem(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "system", "vista", `
name: vista
scheduler: slurm
job_requirements:
  - partition
  - allocation
available_partitions:
  - gh
  - gh-dev
commands:
  submit: sbatch
  status: squeue
  history: sacct
`)

	svc := NewService(base, nil)
	sys, err := svc.LoadSystem("vista")
	require.NoError(t, err)
	require.NotNil(t, sys)

	assert.Equal(t, "vista", sys.Name)
	assert.Equal(t, "slurm", sys.Scheduler)
	assert.Equal(t, []string{"partition", "allocation"}, sys.JobRequirements)
	require.NotNil(t, sys.Commands)
	assert.Equal(t, "sbatch", sys.Commands.Submit)
}

func TestLoadSystemAbsent(t *testing.T) {
	svc := NewService(t.TempDir(), nil)
	sys, err := svc.LoadSystem("nope")
	require.NoError(t, err)
	assert.Nil(t, sys)
}

func TestLoadSystemInvalid(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "system", "bad", `
name: bad
no_such_field: true
`)

	svc := NewService(base, nil)
	_, err := svc.LoadSystem("bad")
	var invalid *InvalidProfileError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Path, "bad.yaml")
}

func TestLoadScheduler(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "schedulers", "slurm", `
name: slurm
commands:
  submit: sbatch
  status: squeue
  history: sacct
  cancel: scancel
  launcher: srun
`)

	svc := NewService(base, nil)
	sched, err := svc.LoadScheduler("slurm")
	require.NoError(t, err)
	require.NotNil(t, sched)
	assert.Equal(t, "scancel", sched.Commands.Cancel)
	assert.Equal(t, "srun", sched.Commands.Launcher)
}

func TestLoadDataset(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "datasets", "ecoli-k12", `
name: ecoli-k12
aliases:
  - ecoli
  - e. coli
locations:
  vista: /data/genomes/ecoli
staging:
  url: https://example.org/ecoli.fa.gz
  steps:
    - "wget {{.url}}"
    - "gunzip ecoli.fa.gz"
resource_hints:
  nodes: 1
`)

	svc := NewService(base, nil)
	ds, err := svc.LoadDataset("ecoli-k12")
	require.NoError(t, err)
	require.NotNil(t, ds)

	path, ok := ds.LocationFor("vista")
	assert.True(t, ok)
	assert.Equal(t, "/data/genomes/ecoli", path)
	_, ok = ds.LocationFor("frontera")
	assert.False(t, ok)
	require.NotNil(t, ds.Staging)
	assert.Len(t, ds.Staging.Steps, 2)
}

func TestFindSiteForSystem(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "site", "tacc", `
name: tacc
job_requirements:
  - allocation
systems:
  - vista
  - frontera
`)
	writeKBFile(t, base, "site", "nersc", `
name: nersc
systems:
  - perlmutter
`)

	svc := NewService(base, nil)

	site, err := svc.FindSiteForSystem("Vista")
	require.NoError(t, err)
	require.NotNil(t, site)
	assert.Equal(t, "tacc", site.Name)

	site, err = svc.FindSiteForSystem("unknown")
	require.NoError(t, err)
	assert.Nil(t, site)
}
