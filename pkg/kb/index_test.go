package kb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemIndexResolve(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "system", "vista", "name: vista\nscheduler: slurm\n")
	writeKBFile(t, base, "system", "frontera", "name: frontera\nscheduler: slurm\n")

	idx, err := NewSystemIndex(NewService(base, nil))
	require.NoError(t, err)

	sys := idx.Resolve("run fastqc on Vista please")
	require.NotNil(t, sys)
	assert.Equal(t, "vista", sys.Name)

	assert.Nil(t, idx.Resolve("run fastqc somewhere"))
}

func TestDatasetIndexResolveByAlias(t *testing.T) {
	base := t.TempDir()
	writeKBFile(t, base, "datasets", "ecoli-k12", `
name: ecoli-k12
aliases:
  - ecoli
locations:
  vista: /data/ecoli
`)

	idx, err := NewDatasetIndex(NewService(base, nil))
	require.NoError(t, err)

	ds := idx.Resolve("run fastqc on the ecoli dataset")
	require.NotNil(t, ds)
	assert.Equal(t, "ecoli-k12", ds.Name)

	assert.Nil(t, idx.Resolve("run fastqc on yeast"))
}
