package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, buf.String())
	}
	return buf.String()
}

func TestErlangStable(t *testing.T) {
	out := execute(t, "erlang", "--lambda", "2", "--mu", "1", "--servers", "3")
	assert.Contains(t, out, "utilization rho=0.6667")
	assert.Contains(t, out, "P(wait)=0.4444")
}

func TestErlangUnstableAndSizing(t *testing.T) {
	out := execute(t, "erlang", "--lambda", "3", "--mu", "1", "--servers", "2", "--target", "0.2")
	assert.Contains(t, out, "unstable")
	assert.Contains(t, out, "servers for P(wait) <= 0.200:")
}

func TestPresets(t *testing.T) {
	out := execute(t, "presets")
	for _, p := range []string{"simple", "daily", "fastslow"} {
		assert.Contains(t, out, p)
	}
	out = execute(t, "presets", "simple")
	assert.Contains(t, out, "name: simple")
}

func TestRunThenAnalyze(t *testing.T) {
	dir := t.TempDir()
	logs := filepath.Join(dir, "logs")
	t.Setenv("K_STORE__PATH", logs)

	out := execute(t, "run", "-p", "simple", "-n", "2", "--days", "1", "--seed", "7")
	assert.Contains(t, out, "simple_000")
	assert.Contains(t, out, "2 iteration(s), 0 failed")
	files, err := filepath.Glob(filepath.Join(logs, "*_logs.json"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	outDir := filepath.Join(dir, "analysis")
	out = execute(t, "analyze", "-p", "simple", "-o", outDir, "--format", "csv", "--ascii")
	assert.Contains(t, out, "lambda=")
	assert.Contains(t, out, "wrote "+filepath.Join(outDir, "summary.csv"))
	data, err := os.ReadFile(filepath.Join(outDir, "summary.csv"))
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(strings.TrimSpace(string(data)), "\n")+1)
}
