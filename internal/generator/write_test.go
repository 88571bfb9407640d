package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisisbench/crisisbench/internal/scenario"
)

func TestWritePackage(t *testing.T) {
	pkg, err := Generate(genOpts(scenario.TierT2, 7))
	require.NoError(t, err)

	dir := t.TempDir()
	out, err := WritePackage(pkg, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cardiac_arrest_T2_s7"), out)

	for _, name := range []string{"manifest.json", "scenario.json", "heartbeats.json", "tools.json", "persona.md"} {
		_, err := os.Stat(filepath.Join(out, name))
		assert.NoError(t, err, "missing %s", name)
	}
	for _, mf := range pkg.MemoryFiles {
		_, err := os.Stat(filepath.Join(out, "memories", mf.Key+".md"))
		assert.NoError(t, err, "missing memory %s", mf.Key)
	}
}

func TestWritePackageIdempotent(t *testing.T) {
	pkg, err := Generate(genOpts(scenario.TierT1, 11))
	require.NoError(t, err)

	dirA, dirB := t.TempDir(), t.TempDir()
	outA, err := WritePackage(pkg, dirA)
	require.NoError(t, err)
	outB, err := WritePackage(pkg, dirB)
	require.NoError(t, err)

	for _, name := range []string{"manifest.json", "scenario.json", "heartbeats.json", "tools.json", "persona.md"} {
		a, err := os.ReadFile(filepath.Join(outA, name))
		require.NoError(t, err)
		b, err := os.ReadFile(filepath.Join(outB, name))
		require.NoError(t, err)
		assert.Equal(t, a, b, "file %s differs between writes", name)
	}
}
