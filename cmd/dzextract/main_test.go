package main

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "dzextract")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// run executes the application with args and returns what it wrote to
// standard output and standard error and the exit status
func run(t *testing.T, args ...string) (string, string, int) {
	code := 0
	exiter := cli.OsExiter
	cli.OsExiter = func(c int) { code = c }
	t.Cleanup(func() { cli.OsExiter = exiter })

	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Writer = &stdout
	app.ErrWriter = &stderr

	app.Run(append([]string{"dzextract"}, args...))

	return stdout.String(), stderr.String(), code
}

func TestUsageErrors(t *testing.T) {
	dst := tempDir(t)
	missing := filepath.Join(tempDir(t), "missing")

	tables := []struct {
		name string
		args []string
	}{
		{"no arguments", nil},
		{"one argument", []string{dst}},
		{"missing source", []string{missing, dst}},
		{"batch missing source", []string{"batch", missing, dst}},
		{"list without database", []string{"list"}},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			stdout, stderr, code := run(t, table.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, stdout)
			assert.Contains(t, stderr, "USAGE")
		})
	}
}

func TestHelp(t *testing.T) {
	stdout, stderr, code := run(t, "--help")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "USAGE")
	assert.Empty(t, stderr)
}

func TestNothingToDo(t *testing.T) {
	stdout, stderr, code := run(t, tempDir(t), tempDir(t))
	assert.Equal(t, 0, code)
	assert.Equal(t, "Nothing to do\n", stdout)
	assert.Empty(t, stderr)
}
