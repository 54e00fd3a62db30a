package cmd

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withTempRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/a.go", []byte("package a\n\nfunc Hello() {}\n"), 0o644))
	t.Setenv("CODEX_INDEXING", "0")
	prevDir, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prevDir) })
	return dir
}

func TestBuildStatusVerifyClean(t *testing.T) {
	withTempRepo(t)

	buildCmd := newBuildCmd()
	buildOut := &bytes.Buffer{}
	buildCmd.SetOut(buildOut)
	buildCmd.SetArgs([]string{})
	require.NoError(t, buildCmd.Execute())
	assert.Contains(t, buildOut.String(), "indexed")

	statusCmd := newStatusCmd()
	statusOut := &bytes.Buffer{}
	statusCmd.SetOut(statusOut)
	require.NoError(t, statusCmd.Execute())
	assert.Contains(t, statusOut.String(), "Ready")

	verifyCmd := newVerifyCmd()
	verifyOut := &bytes.Buffer{}
	verifyCmd.SetOut(verifyOut)
	require.NoError(t, verifyCmd.Execute())
	assert.Contains(t, verifyOut.String(), "ok")

	cleanCmd := newCleanCmd()
	cleanOut := &bytes.Buffer{}
	cleanCmd.SetOut(cleanOut)
	require.NoError(t, cleanCmd.Execute())

	statusAfterClean := newStatusCmd()
	afterOut := &bytes.Buffer{}
	statusAfterClean.SetOut(afterOut)
	require.NoError(t, statusAfterClean.Execute())
	assert.Contains(t, afterOut.String(), "Missing")
}

func TestQueryLowConfidenceReturnsSentinel(t *testing.T) {
	withTempRepo(t)

	buildCmd := newBuildCmd()
	buildCmd.SetOut(&bytes.Buffer{})
	require.NoError(t, buildCmd.Execute())

	queryCmd := newQueryCmd()
	out := &bytes.Buffer{}
	queryCmd.SetOut(out)
	queryCmd.SetArgs([]string{"something nobody would match"})
	queryCmd.SetContext(context.Background())
	require.NoError(t, queryCmd.Execute())
	assert.Contains(t, out.String(), "No information exists that matches the request.")
}

func TestIgnoreAddListReset(t *testing.T) {
	withTempRepo(t)

	add := newIgnoreCmd()
	add.SetOut(&bytes.Buffer{})
	add.SetArgs([]string{"--add", "docs/*"})
	require.NoError(t, add.Execute())

	list := newIgnoreCmd()
	out := &bytes.Buffer{}
	list.SetOut(out)
	list.SetArgs([]string{"--list"})
	require.NoError(t, list.Execute())
	assert.Contains(t, out.String(), "docs/*")

	reset := newIgnoreCmd()
	reset.SetOut(&bytes.Buffer{})
	reset.SetArgs([]string{"--reset"})
	require.NoError(t, reset.Execute())

	listAfter := newIgnoreCmd()
	afterOut := &bytes.Buffer{}
	listAfter.SetOut(afterOut)
	listAfter.SetArgs([]string{"--list"})
	require.NoError(t, listAfter.Execute())
	assert.NotContains(t, afterOut.String(), "docs/*")
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	indexCmd, _, err := root.Find([]string{"index", "build"})
	require.NoError(t, err)
	assert.Equal(t, "build", indexCmd.Name())

	searchCmd, _, err := root.Find([]string{"search-code"})
	require.NoError(t, err)
	assert.Equal(t, "search-code", searchCmd.Name())
}
