package driver

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempSource(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.c")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestCompileFileWritesOutput(t *testing.T) {
	src := writeTempSource(t, "int main() { return 0; }")
	opts := DefaultOptions()
	opts.Output = filepath.Join(filepath.Dir(src), "out.xc")

	report, err := CompileFile(src, opts, NewLogger(io.Discard, 0))
	require.NoError(t, err)
	assert.True(t, report.OK)

	data, err := os.ReadFile(opts.Output)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HALT")
}

func TestCompileFileReportsFailureWithoutWritingOutput(t *testing.T) {
	src := writeTempSource(t, "int main() { return undefined_name; }")
	opts := DefaultOptions()
	opts.Output = filepath.Join(filepath.Dir(src), "out.xc")

	report, err := CompileFile(src, opts, NewLogger(io.Discard, 0))
	require.NoError(t, err)
	assert.False(t, report.OK)

	_, statErr := os.Stat(opts.Output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCompileFileDumps(t *testing.T) {
	src := writeTempSource(t, "int main() { return 1; }")
	opts := DefaultOptions()
	opts.Output = filepath.Join(filepath.Dir(src), "out.xc")
	opts.DumpTokens = true
	opts.DumpAST = true
	opts.DumpSymbols = true
	opts.DumpCode = true

	report, err := CompileFile(src, opts, NewLogger(io.Discard, 0))
	require.NoError(t, err)
	assert.True(t, report.OK)
	assert.Contains(t, report.Dumps["tokens"], `int          "int"`)
	assert.Contains(t, report.Dumps["ast"], "FunctionDecl main")
	assert.Contains(t, report.Dumps["code"], "RET")
}

func TestLoadProjectConfigMissingFileIsNotError(t *testing.T) {
	dir := t.TempDir()
	wd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(wd)

	opts, err := LoadProjectConfig(DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "out.xc", opts.Output)
}
