package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirRendererRender(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fastqc.sh.tmpl"), []byte(
		"#!/bin/bash\n#SBATCH -p {{.partition}}\nfastqc {{.dataset_path}} -o {{.output_dir}}\n"), 0o644))

	out, err := NewDirRenderer(dir).Render("fastqc.sh.tmpl", map[string]any{
		"partition":    "gh",
		"dataset_path": "/data/ecoli",
		"output_dir":   "/scratch/job/output",
	})
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/bash\n#SBATCH -p gh\nfastqc /data/ecoli -o /scratch/job/output\n", out)
}

func TestDirRendererMissingTemplate(t *testing.T) {
	_, err := NewDirRenderer(t.TempDir()).Render("absent.tmpl", nil)
	var notFound *TemplateNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "absent.tmpl", notFound.ID)
	assert.Equal(t, "template not found: absent.tmpl", notFound.Error())
}

func TestDirRendererMissingKeysRenderEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "t.tmpl"), []byte("a={{.a}} b={{.b}}"), 0o644))

	out, err := NewDirRenderer(dir).Render("t.tmpl", map[string]any{"a": "x"})
	require.NoError(t, err)
	assert.Equal(t, "a=x b=", out)
}

func TestStringPassthrough(t *testing.T) {
	out, err := String("output/summary.txt", nil)
	require.NoError(t, err)
	assert.Equal(t, "output/summary.txt", out)
}

func TestStringRendersInlineTemplate(t *testing.T) {
	out, err := String("output/{{.sample}}_fastqc/summary.txt", map[string]any{"sample": "reads"})
	require.NoError(t, err)
	assert.Equal(t, "output/reads_fastqc/summary.txt", out)
}
