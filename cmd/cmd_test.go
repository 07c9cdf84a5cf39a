package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleListing = "; header\n   \nSTART HERE\nX = 1\nY = 2\n"

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp("test", &stdout, &stderr)
	err := app.Run(context.Background(), append([]string{"renumber"}, args...))
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestApplyToFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", sampleListing)
	out := filepath.Join(dir, "out.mad")

	stdout, stderr, err := runApp(t, "--start-marker", "START HERE", "-o", out, "apply", in)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "numbers: 000080 .. 000100")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "; header      ", lines[0])
	assert.Equal(t, "START HERE    000080", lines[2])
	assert.Equal(t, "Y = 2         000100", lines[4])
}

func TestApplyToStdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", sampleListing)

	stdout, stderr, err := runApp(t, "--start-marker", "START HERE", "-q", "apply", in)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	assert.True(t, strings.HasSuffix(stdout, "X = 1         000090\nY = 2         000100"))
}

func TestShorthand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", sampleListing)

	stdout, _, err := runApp(t, "--start-marker", "START HERE", "--initial", "1000", "--step", "5", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "001000")
	assert.Contains(t, stdout, "001010")
}

func TestApplyProfileFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", "BEGIN\na\nb\nc\n")
	prof := writeFile(t, dir, "listing.yaml", `
start_marker: BEGIN
padding_margin: 1
number_width: 4
rules:
  - name: gap
    when: {counter: 90}
    jump: 500
`)

	stdout, stderr, err := runApp(t, "-p", prof, "apply", in)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN 0080\na     0500\nb     0510\nc     0520", stdout)
	assert.Contains(t, stderr, "no warnings")
}

func TestApplyStrictWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", "BEGIN\na\n")
	prof := writeFile(t, dir, "listing.yaml", "start_marker: BEGIN\nrules:\n  - when: {counter: 5000}\n    add: 10\n")
	out := filepath.Join(dir, "out.mad")

	_, stderr, err := runApp(t, "-p", prof, "-o", out, "--strict", "apply", in)
	require.ErrorIs(t, err, ErrRuleWarnings)
	assert.Contains(t, stderr, "never fired")
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))

	// Without --strict the warning is reported but output is written.
	_, _, err = runApp(t, "-p", prof, "-o", out, "apply", in)
	require.NoError(t, err)
	_, statErr = os.Stat(out)
	assert.NoError(t, statErr)
}

func TestApplyRefusesInPlace(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", sampleListing)

	_, _, err := runApp(t, "--start-marker", "START HERE", "-o", in, "apply", in)
	assert.ErrorContains(t, err, "refusing to overwrite")

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, sampleListing, string(data))
}

func TestApplyErrors(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", sampleListing)
	empty := writeFile(t, dir, "empty.mad", "")

	_, _, err := runApp(t, "apply")
	assert.ErrorContains(t, err, "usage:")

	_, _, err = runApp(t, "--start-marker", "NOPE", "apply", in)
	assert.ErrorContains(t, err, "start marker not found")

	_, _, err = runApp(t, "apply", empty)
	assert.ErrorContains(t, err, "empty input")

	_, _, err = runApp(t, "--builtin", "missing", "apply", in)
	assert.ErrorContains(t, err, `unknown built-in profile "missing"`)

	_, _, err = runApp(t, "--start-marker", "START HERE", "--encoding", "klingon", "apply", in)
	assert.ErrorContains(t, err, "unknown encoding")

	_, _, err = runApp(t, "--start-marker", "START HERE", "--step", "0", "apply", in)
	assert.ErrorContains(t, err, "step must be positive")
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", "LIST.(TEST)\nX\n")

	stdout, stderr, err := runApp(t, "check", in)
	require.NoError(t, err)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "keylst-loop")
	assert.Contains(t, stderr, "4 warning(s)")

	_, _, err = runApp(t, "--strict", "check", in)
	assert.ErrorIs(t, err, ErrRuleWarnings)
}

func TestVerboseTrace(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.mad", "BEGIN\na\nb\n")

	_, stderr, err := runApp(t, "--start-marker", "BEGIN", "--verbose", "-q", "check", in)
	require.NoError(t, err)
	assert.Contains(t, stderr, "resolved profile")
	assert.Contains(t, stderr, "numbering activated")
	assert.Contains(t, stderr, "rule table")
}

func TestProfileCommand(t *testing.T) {
	stdout, _, err := runApp(t, "profile", "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "eliza")

	stdout, _, err = runApp(t, "--step", "20", "profile")
	require.NoError(t, err)
	assert.Contains(t, stdout, "name: eliza")
	assert.Contains(t, stdout, "step: 20")
	assert.Contains(t, stdout, "jump: 2200")
	assert.Contains(t, stdout, "encoding: utf-8")
}
