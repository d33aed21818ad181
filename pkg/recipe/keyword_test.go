package recipe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRecipe(t *testing.T, kbDir, name, content string) {
	t.Helper()
	dir := filepath.Join(kbDir, "applications")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(content), 0o644))
}

func TestFindBestByKeywordOverlap(t *testing.T) {
	kbDir := t.TempDir()
	writeRecipe(t, kbDir, "fastqc", `
name: fastqc
keywords: [fastqc, quality, qc, reads]
template: fastqc.sh.tmpl
tool: submit
`)
	writeRecipe(t, kbDir, "bwa", `
name: bwa
keywords: [bwa, align, alignment, mapping]
template: bwa.sh.tmpl
tool: submit
`)

	idx := NewKeywordIndex(kbDir, nil)

	r, err := idx.FindBest("run a quality check on my reads")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "fastqc", r.Name)

	r, err = idx.FindBest("align the sample with bwa mapping")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "bwa", r.Name)
}

func TestFindBestPrefersNameMatch(t *testing.T) {
	kbDir := t.TempDir()
	writeRecipe(t, kbDir, "fastqc", `
name: fastqc
keywords: [quality, reads]
tool: submit
`)
	writeRecipe(t, kbDir, "multiqc", `
name: multiqc
keywords: [quality, reads, report]
tool: submit
`)

	idx := NewKeywordIndex(kbDir, nil)

	// multiqc scores higher overall, but the prompt names fastqc.
	r, err := idx.FindBest("run fastqc on my quality reads report")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "fastqc", r.Name)
}

func TestFindBestSingleHitFallback(t *testing.T) {
	kbDir := t.TempDir()
	writeRecipe(t, kbDir, "fastqc", `
name: fastqc
keywords: [quality]
tool: submit
`)
	writeRecipe(t, kbDir, "bwa", `
name: bwa
keywords: [alignment]
tool: submit
`)

	idx := NewKeywordIndex(kbDir, nil)

	// No recipe name in the prompt; exactly one recipe has a keyword hit.
	r, err := idx.FindBest("check the quality please")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "fastqc", r.Name)
}

func TestFindBestNoMatch(t *testing.T) {
	kbDir := t.TempDir()
	writeRecipe(t, kbDir, "fastqc", `
name: fastqc
keywords: [quality]
tool: submit
`)

	idx := NewKeywordIndex(kbDir, nil)

	r, err := idx.FindBest("make me a sandwich")
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestReindexSkipsUnparseableFiles(t *testing.T) {
	kbDir := t.TempDir()
	writeRecipe(t, kbDir, "good", "name: good\nkeywords: [good]\ntool: submit\n")
	writeRecipe(t, kbDir, "broken", "{not yaml")

	idx := NewKeywordIndex(kbDir, nil)
	require.NoError(t, idx.Reindex())

	r, err := idx.FindBest("a good run")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "good", r.Name)
}

func TestFindBestMissingApplicationsDir(t *testing.T) {
	idx := NewKeywordIndex(t.TempDir(), nil)
	r, err := idx.FindBest("anything")
	require.NoError(t, err)
	assert.Nil(t, r)
}
