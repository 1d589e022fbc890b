package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func TestSchemaCmd(t *testing.T) {
	out, err := run(t, "schema")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Contains(t, decoded, "properties")
}

func TestCheckCmd(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	write("good.star", "def prefix(x):\n    return True\n")
	write("bad.star", "def prefix(x)\n    return True\n")

	t.Run("all scripts parse", func(t *testing.T) {
		write("ok.yaml", "scripts:\n  - path: good.star\n  - path: bad.star\n    enabled: false\n")
		out, err := run(t, "check", filepath.Join(dir, "ok.yaml"))
		require.NoError(t, err)
		assert.Contains(t, out, "ok   good.star")
		assert.Contains(t, out, "skip bad.star")
	})

	t.Run("syntax error", func(t *testing.T) {
		write("bad.yaml", "scripts:\n  - path: good.star\n  - path: bad.star\n")
		out, err := run(t, "check", filepath.Join(dir, "bad.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 scripts failed")
		assert.Contains(t, out, "FAIL bad.star")
	})

	t.Run("invalid manifest", func(t *testing.T) {
		write("invalid.yaml", "scripts: []\n")
		_, err := run(t, "check", filepath.Join(dir, "invalid.yaml"))
		assert.ErrorContains(t, err, "is invalid")
	})

	t.Run("bad log level", func(t *testing.T) {
		_, err := run(t, "--log-level", "loud", "check", filepath.Join(dir, "ok.yaml"))
		assert.ErrorContains(t, err, "unknown log level")
	})

	t.Run("missing argument", func(t *testing.T) {
		_, err := run(t, "check")
		assert.Error(t, err)
	})
}
