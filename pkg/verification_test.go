package pkg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"
)

func writePlist(t *testing.T, path string, info map[string]any) {
	t.Helper()
	data, err := plist.Marshal(info, plist.BinaryFormat)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func TestBundleProblems(t *testing.T) {
	app := filepath.Join(t.TempDir(), "Demo.app")
	contents := filepath.Join(app, "Contents")
	require.NoError(t, os.MkdirAll(filepath.Join(contents, "MacOS"), 0o755))

	assert.Len(t, BundleProblems(app), 1, "no Info.plist")

	writePlist(t, filepath.Join(contents, "Info.plist"), map[string]any{
		"CFBundleExecutable":         "Demo",
		"CFBundleIdentifier":         "org.example.demo",
		"CFBundleShortVersionString": "1.0",
		"CFBundleIconFile":           "demo.icns",
	})
	require.NoError(t, os.WriteFile(filepath.Join(contents, "MacOS", "Demo"), []byte("#!/bin/sh\n"), 0o644))

	assert.ElementsMatch(t, []string{
		"launcher Demo is not executable",
		"icon demo.icns referenced but missing",
		"Resources directory missing",
	}, BundleProblems(app))

	require.NoError(t, os.Chmod(filepath.Join(contents, "MacOS", "Demo"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(contents, "Resources"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(contents, "Resources", "demo.icns"), []byte("icns"), 0o644))
	assert.Empty(t, BundleProblems(app))
	assert.NoError(t, VerifyBundle(app, testLogger()))
}

func TestVerifyBundle_Missing(t *testing.T) {
	assert.Error(t, VerifyBundle(filepath.Join(t.TempDir(), "Nope.app"), testLogger()))
}
