package archive

import (
	"archive/tar"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []uint8
	}{
		{"plain tar", "tar", []uint8{OP_TAR}},
		{"gzip", "tar.gz", []uint8{OP_TAR, OP_GZIP}},
		{"gzip alias", "TGZ", []uint8{OP_TAR, OP_GZIP}},
		{"bzip2", "tar.bz2", []uint8{OP_TAR, OP_BZIP2}},
		{"xz", "tar.xz", []uint8{OP_TAR, OP_XZ}},
		{"pipe chain", "tar|xz", []uint8{OP_TAR, OP_XZ}},
		{"pipe chain with spaces", " tar | bzip2 ", []uint8{OP_TAR, OP_BZIP2}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ops, err := ParseFormat(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, ops)
		})
	}
}

func TestParseFormat_Errors(t *testing.T) {
	for _, input := range []string{"zip", "tar.zst", "gzip|tar", "tar|gz|xz", "tar|lz4", ""} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseFormat(input)
			assert.True(t, errors.Is(err, cerrors.ErrUnsupportedArchive), "got %v", err)
		})
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "tar", Extension([]uint8{OP_TAR}))
	assert.Equal(t, "tar.gz", Extension([]uint8{OP_TAR, OP_GZIP}))
	assert.Equal(t, "tar.bz2", Extension([]uint8{OP_TAR, OP_BZIP2}))
	assert.Equal(t, "tar.xz", Extension([]uint8{OP_TAR, OP_XZ}))
}

func makeApp(t *testing.T) string {
	t.Helper()
	app := filepath.Join(t.TempDir(), "Demo.app")
	require.NoError(t, os.MkdirAll(filepath.Join(app, "Contents", "MacOS"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(app, "Contents", "Resources", "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(app, "Contents", "MacOS", "Demo"), []byte("#!/usr/bin/env bash\n"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(app, "Contents", "Resources", "bin", "python3.11"), []byte("interpreter"), 0o755))
	require.NoError(t, os.Symlink("python3.11", filepath.Join(app, "Contents", "Resources", "bin", "python")))
	return app
}

func TestCreate_RoundTrip(t *testing.T) {
	logger := hclog.New(&hclog.LoggerOptions{Name: "archive_test", Level: hclog.Trace})

	for _, format := range []string{"tar", "tar.gz", "tar.bz2", "tar.xz"} {
		t.Run(format, func(t *testing.T) {
			app := makeApp(t)
			ops, err := ParseFormat(format)
			require.NoError(t, err)

			dst := filepath.Join(t.TempDir(), "Demo.app."+Extension(ops))
			require.NoError(t, Create(context.Background(), app, dst, ops, logger))

			entries, err := List(dst, ops)
			require.NoError(t, err)

			byName := make(map[string]Entry)
			for _, e := range entries {
				byName[e.Name] = e
			}
			require.Contains(t, byName, "Demo.app/")
			require.Contains(t, byName, "Demo.app/Contents/MacOS/Demo")
			assert.Equal(t, int64(0o755), byName["Demo.app/Contents/MacOS/Demo"].Mode&0o777)

			link := byName["Demo.app/Contents/Resources/bin/python"]
			assert.Equal(t, byte(tar.TypeSymlink), link.Type)
			assert.Equal(t, "python3.11", link.Linkname)
			assert.Equal(t, int64(len("interpreter")), byName["Demo.app/Contents/Resources/bin/python3.11"].Size)
		})
	}
}

func TestCreate_RemovesPartialOutputOnError(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "out.tar")
	err := Create(context.Background(), filepath.Join(t.TempDir(), "missing.app"), dst, []uint8{OP_TAR}, nil)
	require.Error(t, err)
	_, statErr := os.Stat(dst)
	assert.True(t, os.IsNotExist(statErr))
}
