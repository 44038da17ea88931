package hooks

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/condapp/pkg/config"
	cerrors "github.com/provide-io/condapp/pkg/errors"
)

const resources = "/out/Demo.app/Contents/Resources"

func newTarget(t *testing.T) Target {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(resources, "bin"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(resources, "bin", "demo"), []byte("#!/usr/bin/env python\n"), 0o755))
	return Target{
		Fs:          fs,
		ResourceDir: resources,
		EntryScript: "demo",
		Logger:      hclog.New(&hclog.LoggerOptions{Name: "hooks_test", Level: hclog.Trace}),
	}
}

func resolveOne(t *testing.T, spec config.HookSpec) Hook {
	t.Helper()
	hs, err := Resolve([]config.HookSpec{spec})
	require.NoError(t, err)
	require.Len(t, hs, 1)
	return hs[0]
}

func TestResolve_UnknownType(t *testing.T) {
	_, err := Resolve([]config.HookSpec{{Type: "entry_copy"}, {Type: "make_coffee"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, cerrors.ErrUnknownHook))
	assert.Contains(t, err.Error(), "make_coffee")
}

func TestResolve_UnknownOption(t *testing.T) {
	_, err := Resolve([]config.HookSpec{{Type: QtConf, Options: map[string]string{"prefix": ".."}}})
	assert.True(t, errors.Is(err, cerrors.ErrConfigInvalid))
}

func TestTypes(t *testing.T) {
	assert.Equal(t, []string{EntryCopy, JupyterKernel, QtConf}, Types())
}

func TestEntryCopy(t *testing.T) {
	target := newTarget(t)
	h := resolveOne(t, config.HookSpec{Type: EntryCopy})

	require.NoError(t, h.Run(target))

	dst := filepath.Join(resources, "bin", "demo.py")
	data, err := afero.ReadFile(target.Fs, dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/usr/bin/env python\n", string(data))

	info, err := target.Fs.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, 0o755, int(info.Mode().Perm()))
}

func TestEntryCopy_CustomExtension(t *testing.T) {
	target := newTarget(t)
	h := resolveOne(t, config.HookSpec{Type: EntryCopy, Options: map[string]string{"extension": "pyw"}})

	require.NoError(t, h.Run(target))
	ok, err := afero.Exists(target.Fs, filepath.Join(resources, "bin", "demo.pyw"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntryCopy_Mode(t *testing.T) {
	target := newTarget(t)
	h := resolveOne(t, config.HookSpec{Type: EntryCopy, Options: map[string]string{"mode": "0644"}})

	require.NoError(t, h.Run(target))
	info, err := target.Fs.Stat(filepath.Join(resources, "bin", "demo.py"))
	require.NoError(t, err)
	assert.Equal(t, 0o644, int(info.Mode().Perm()))

	_, err = Resolve([]config.HookSpec{{Type: EntryCopy, Options: map[string]string{"mode": "rwx"}}})
	assert.True(t, errors.Is(err, cerrors.ErrConfigInvalid))
}

func TestQtConf(t *testing.T) {
	target := newTarget(t)
	require.NoError(t, resolveOne(t, config.HookSpec{Type: QtConf}).Run(target))

	bin, err := afero.ReadFile(target.Fs, filepath.Join(resources, "bin", "qt.conf"))
	require.NoError(t, err)
	assert.Equal(t, qtConfBin, string(bin))
	assert.Contains(t, string(bin), "Plugins = plugins\n")

	libexec, err := afero.ReadFile(target.Fs, filepath.Join(resources, "libexec", "qt.conf"))
	require.NoError(t, err)
	assert.Equal(t, "[Paths]\nPrefix = ..\nTranslations = translations\n", string(libexec))
}

func TestJupyterKernel(t *testing.T) {
	target := newTarget(t)
	path := filepath.Join(resources, "share", "jupyter", "kernels", "python3", "kernel.json")
	require.NoError(t, target.Fs.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(target.Fs, path, []byte(`{
 "argv": ["/opt/envs/demo/bin/python", "-m", "ipykernel_launcher", "-f", "{connection_file}"],
 "display_name": "Python 3",
 "language": "python"
}`), 0o644))

	require.NoError(t, resolveOne(t, config.HookSpec{Type: JupyterKernel}).Run(target))

	data, err := afero.ReadFile(target.Fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"argv\": [\n    \"python\",")

	var spec struct {
		Argv        []string `json:"argv"`
		DisplayName string   `json:"display_name"`
	}
	require.NoError(t, json.Unmarshal(data, &spec))
	assert.Equal(t, []string{"python", "-m", "ipykernel_launcher", "-f", "{connection_file}"}, spec.Argv)
	assert.Equal(t, "Python 3", spec.DisplayName)
}

func TestJupyterKernel_AbsentSpecIsNoop(t *testing.T) {
	target := newTarget(t)
	assert.NoError(t, resolveOne(t, config.HookSpec{Type: JupyterKernel}).Run(target))
}

func TestRunAll_ContinuesAfterFailure(t *testing.T) {
	target := newTarget(t)
	target.EntryScript = "absent"

	hs, err := Resolve([]config.HookSpec{{Type: EntryCopy}, {Type: QtConf}})
	require.NoError(t, err)

	failures := RunAll(target, hs)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Error(), EntryCopy)

	ok, err := afero.Exists(target.Fs, filepath.Join(resources, "libexec", "qt.conf"))
	require.NoError(t, err)
	assert.True(t, ok, "later hooks still run")
}
