package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

func testLogger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "config_test",
		Level: hclog.Trace,
	})
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "condapp.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func demoConfig(env string) string {
	return `
app_name: Demo
output_folder: ` + filepath.Join(filepath.Dir(env), "dist") + `
version: "1.0"
author: Demo Authors
env_path: ` + env + `
entry_script: demo
identifier: org.example.demo
`
}

func TestParse_MissingFieldsAggregated(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		missing []string
	}{
		{
			name:    "empty document",
			doc:     "",
			missing: RequiredKeys,
		},
		{
			name: "two absent",
			doc: `
app_name: Demo
output_folder: /tmp/out
version: "1.0"
env_path: /tmp/env
identifier: org.example.demo
`,
			missing: []string{"author", "entry_script"},
		},
		{
			name: "blank and null count as missing",
			doc: `
app_name: "  "
output_folder: /tmp/out
version: ~
author: someone
env_path: /tmp/env
entry_script: demo
identifier: org.example.demo
`,
			missing: []string{"app_name", "version"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, cerrors.ErrMissingFields))

			var mf *cerrors.MissingFieldsError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.missing, mf.Fields)
		})
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	doc := demoConfig("/tmp/env") + "colour: blue\n"
	_, err := Parse([]byte(doc))
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrConfigInvalid))
}

func TestParse_UnquotedVersionStaysLiteral(t *testing.T) {
	doc := `
app_name: Demo
output_folder: /tmp/out
version: 1.0
author: a
env_path: /tmp/env
entry_script: demo
identifier: org.example.demo
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.Version)
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(env, 0o755))

	cfg, err := Load(writeConfig(t, dir, demoConfig(env)), testLogger())
	require.NoError(t, err)

	assert.Equal(t, "1.0", cfg.LongVersion)
	assert.Equal(t, DefaultInstallDir, cfg.InstallDir)
	assert.Equal(t, DefaultRewriteExclusions, cfg.RewriteExclusions)
	assert.Equal(t, "-", cfg.Codesign.Identity)
	assert.Equal(t, "UDZO", cfg.DMG.Format)
	assert.Equal(t, "Demo.dmg", cfg.DMG.File)

	assert.Equal(t, filepath.Join(dir, "dist", "Demo.app"), cfg.AppPath())
	assert.Equal(t, filepath.Join(cfg.AppPath(), "Contents", "MacOS", "Demo"), cfg.LauncherPath())
	assert.Equal(t, filepath.Join(cfg.AppPath(), "Contents", "Resources"), cfg.ResourceDir())
	assert.Equal(t, filepath.Join(cfg.AppPath(), "Contents", "Info.plist"), cfg.PlistPath())
	assert.Equal(t, "/Applications/Demo.app/Contents/Resources", cfg.InstalledResourceDir())
}

func TestLoad_MissingEnvironment(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(writeConfig(t, dir, demoConfig(filepath.Join(dir, "nope"))), testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrEnvironmentNotFound))
}

func TestLoad_UnreadableFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), testLogger())
	assert.True(t, errors.Is(err, cerrors.ErrConfigUnreadable))
}

func TestLoad_ExpandsTilde(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.MkdirAll(filepath.Join(home, "envs", "demo"), 0o755))

	doc := `
app_name: Demo
output_folder: ~/dist
version: "1.0"
author: a
env_path: ~/envs/demo
entry_script: demo
identifier: org.example.demo
icon: ~/icons/demo.icns
`
	cfg, err := Load(writeConfig(t, home, doc), testLogger())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "envs", "demo"), cfg.EnvPath)
	assert.Equal(t, filepath.Join(home, "dist"), cfg.OutputFolder)
	assert.Equal(t, filepath.Join(home, "icons", "demo.icns"), cfg.Icon)
}

func TestLoad_VersionFrom(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	pkgDir := filepath.Join(env, "lib", "python3.11", "site-packages", "demo")
	require.NoError(t, os.MkdirAll(pkgDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pkgDir, "__init__.py"),
		[]byte("__version__ = '2.3.1'\n__codename__ = \"Otter\"\n"), 0o644))

	doc := demoConfig(env) + `
version_from:
  file: lib/python*/site-packages/demo/__init__.py
  codename_pattern: __codename__\s*=\s*"([^"]+)"
dmg:
  file: Demo-{version}.dmg
`
	cfg, err := Load(writeConfig(t, dir, doc), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "2.3.1", cfg.Version)
	assert.Equal(t, "2.3.1 Otter", cfg.LongVersion)
	assert.Equal(t, "Demo-2.3.1.dmg", cfg.DMG.File)
	assert.Equal(t, filepath.Join(dir, "dist", "Demo-2.3.1.dmg"), cfg.ImagePath())
}

func TestLoad_VersionFromMissingFileKeepsVersion(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(env, 0o755))

	doc := demoConfig(env) + `
version_from:
  file: lib/python*/site-packages/demo/__init__.py
`
	cfg, err := Load(writeConfig(t, dir, doc), testLogger())
	require.NoError(t, err)
	assert.Equal(t, "1.0", cfg.Version)
}

func TestLoad_VersionFromBadPattern(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(env, 0o755))

	doc := demoConfig(env) + `
version_from:
  file: VERSION
  pattern: "version"
`
	_, err := Load(writeConfig(t, dir, doc), testLogger())
	assert.True(t, errors.Is(err, cerrors.ErrInvalidVersionSource))
}

func TestLoad_HookWithoutType(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(env, 0o755))

	doc := demoConfig(env) + `
hooks:
  - kernel: python3
`
	_, err := Load(writeConfig(t, dir, doc), testLogger())
	assert.True(t, errors.Is(err, cerrors.ErrConfigInvalid))
}

func TestLoad_RejectsControlCharactersInAppName(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, "env")
	require.NoError(t, os.MkdirAll(env, 0o755))

	doc := strings.Replace(demoConfig(env), "app_name: Demo", `app_name: "Demo\nrm -rf ~"`, 1)
	_, err := Load(writeConfig(t, dir, doc), testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrConfigInvalid))
}
