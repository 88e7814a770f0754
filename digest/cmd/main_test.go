package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/byte4ever/hashdigest/digester"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hello       = "Hello world!\n"
	helloSHA256 = "0ba904eae8773b70c75333db4de2f3ac45a8ad4ddba1b242f0b3cfc199391dd8"
	helloSHA1   = "47a013e660d408619d894b20806b1d5086aab03b"
	helloMD5    = "59ca0efa9f5633cb0371bbc0355478d8"
)

func writeTemp(tb testing.TB, dir, name, content string) string {
	tb.Helper()

	pa := filepath.Join(dir, name)
	require.NoError(tb, os.WriteFile(pa, []byte(content), 0o600))

	return pa
}

// runCLI runs the command and returns its stdout. Tests in this
// file are not parallel because run replaces the default logger.
func runCLI(tb testing.TB, args ...string) (string, error) {
	tb.Helper()

	var stdout bytes.Buffer

	err := run(context.Background(), args, &stdout, io.Discard)

	return stdout.String(), err
}

func TestRun_text_default(t *testing.T) {
	pa := writeTemp(t, t.TempDir(), "hello.txt", hello)

	out, err := runCLI(t, pa)

	require.NoError(t, err)
	assert.Equal(t, helloSHA256+"  "+pa+"\n", out)
}

func TestRun_text_sha1_async(t *testing.T) {
	pa := writeTemp(t, t.TempDir(), "hello.txt", hello)

	out, err := runCLI(t, "-algorithm", "sha1", "-async", pa)

	require.NoError(t, err)
	assert.Equal(t, helloSHA1+"  "+pa+"\n", out)
}

func TestRun_template(t *testing.T) {
	pa := writeTemp(t, t.TempDir(), "hello.txt", hello)

	out, err := runCLI(
		t, "-format", "template", "-template", "{md5} {size}", pa,
	)

	require.NoError(t, err)
	assert.Equal(t, helloMD5+" 13\n", out)
}

func TestRun_output_file(t *testing.T) {
	dir := t.TempDir()
	pa := writeTemp(t, dir, "hello.txt", hello)
	outPath := filepath.Join(dir, "sums.json")

	out, err := runCLI(t, "-format", "json", "-output", outPath, pa)

	require.NoError(t, err)
	assert.Empty(t, out)

	by, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(by), helloSHA256)
}

func TestRun_missing_file_fails(t *testing.T) {
	dir := t.TempDir()
	good := writeTemp(t, dir, "hello.txt", hello)

	out, err := runCLI(t, good, filepath.Join(dir, "missing"))

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, out, helloSHA256)
}

func TestRun_check_roundtrip(t *testing.T) {
	dir := t.TempDir()
	pa := writeTemp(t, dir, "hello.txt", hello)
	sums := filepath.Join(dir, "sums.yaml")

	_, err := runCLI(t, "-format", "yaml", "-output", sums, pa, pa)
	require.NoError(t, err)

	out, err := runCLI(t, "-format", "yaml", "-check", sums)

	require.NoError(t, err)
	assert.Equal(t, pa+": OK\n"+pa+": OK\n", out)
}

func TestRun_check_detects_tampering(t *testing.T) {
	dir := t.TempDir()
	pa := writeTemp(t, dir, "hello.txt", hello)
	sums := writeTemp(t, dir, "SHA1SUMS", helloSHA1+"  "+pa+"\n")

	require.NoError(t, os.WriteFile(pa, []byte("tampered"), 0o600))

	out, err := runCLI(t, "-algorithm", "sha1", "-check", sums)

	require.ErrorIs(t, err, errChecksFailed)
	assert.Equal(t, pa+": FAILED\n", out)
}

func TestRun_sidecars(t *testing.T) {
	dir := t.TempDir()
	pa := writeTemp(t, dir, "hello.txt", hello)

	_, err := runCLI(t, "-save-sidecar", pa)
	require.NoError(t, err)

	_, found, err := digester.GetDigest(pa)
	require.NoError(t, err)
	assert.True(t, found)

	out, err := runCLI(t, "-verify-sidecar", pa)
	require.NoError(t, err)
	assert.Equal(t, pa+": OK\n", out)

	require.NoError(t, os.WriteFile(pa, []byte("tampered"), 0o600))

	out, err = runCLI(t, "-verify-sidecar", pa)
	require.ErrorIs(t, err, errChecksFailed)
	assert.Equal(t, pa+": FAILED\n", out)
}

func TestRun_flag_errors(t *testing.T) {
	for name, args := range map[string][]string{
		"no files":          nil,
		"bad format":        {"-format", "xml", "x"},
		"bad algorithm":     {"-algorithm", "sha512", "x"},
		"bad log level":     {"-log-level", "loud", "x"},
		"check and sidecar": {"-check", "x", "-verify-sidecar"},
		"check template":    {"-check", "x", "-format", "template"},
		"check and save":    {"-check", "x", "-save-sidecar"},
		"check with files":  {"-check", "x", "extra.txt"},
	} {
		_, err := runCLI(t, args...)

		require.Error(t, err, name)
		assert.True(
			t, strings.HasPrefix(err.Error(), "hashdigest: parsing flags"),
			name,
		)
	}
}

func TestRun_async_respects_jobs(t *testing.T) {
	dir := t.TempDir()

	args := []string{"-async", "-jobs", "1", "-algorithm", "md5"}

	var want strings.Builder

	for i := 0; i < 300; i++ {
		pa := writeTemp(t, dir, fmt.Sprintf("f%03d", i), hello)
		args = append(args, pa)
		want.WriteString(helloMD5 + "  " + pa + "\n")
	}

	out, err := runCLI(t, args...)

	require.NoError(t, err)
	assert.Equal(t, want.String(), out)
}

func TestRun_async_matches_blocking(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	for i := 0; i < 20; i++ {
		paths = append(paths, writeTemp(
			t, dir, fmt.Sprintf("f%02d", i), strings.Repeat("x", i),
		))
	}

	blocking, err := runCLI(t, append([]string{"-jobs", "3"}, paths...)...)
	require.NoError(t, err)

	async, err := runCLI(
		t, append([]string{"-async", "-jobs", "3"}, paths...)...,
	)
	require.NoError(t, err)

	assert.Equal(t, blocking, async)
}
