package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/stepform"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "stepform version "+strings.TrimSpace(stepform.Version)+"\n", out)
}

func TestValidateAndGraphCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poll.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: poll\nsteps:\n  - id: q\n    controls:\n      - {name: answer, kind: bool}\n"), 0o644))

	out, err := execute(t, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "ok    poll")

	out, err = execute(t, "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, "c_answer")
}

func TestSessionRmNeedsArgs(t *testing.T) {
	_, err := execute(t, "session", "rm", "--session-dir", t.TempDir())
	assert.Error(t, err)
}
