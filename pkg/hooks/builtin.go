package hooks

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/provide-io/condapp/pkg/utils/permissions"
)

const (
	EntryCopy     = "entry_copy"
	QtConf        = "qt_conf"
	JupyterKernel = "jupyter_kernel"
)

func init() {
	Register(EntryCopy, []string{"extension", "mode"}, func(opts map[string]string) (Hook, error) {
		ext := option(opts, "extension", ".py")
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if strings.ContainsRune(ext, '/') {
			return nil, fmt.Errorf("extension %q contains a path separator", ext)
		}
		// zero keeps the source file's mode
		mode, err := permissions.ParseOctal(opts["mode"], 0)
		if err != nil {
			return nil, err
		}
		return &entryCopy{ext: ext, mode: mode}, nil
	})
	Register(QtConf, nil, func(map[string]string) (Hook, error) {
		return qtConf{}, nil
	})
	Register(JupyterKernel, []string{"kernel", "interpreter"}, func(opts map[string]string) (Hook, error) {
		return &jupyterKernel{
			kernel:      option(opts, "kernel", "python3"),
			interpreter: option(opts, "interpreter", "python"),
		}, nil
	})
}

// entryCopy duplicates bin/<entry> under an extension, so that
// multiprocessing's spawn mode can re-import the entry point.
type entryCopy struct {
	ext  string
	mode os.FileMode
}

func (*entryCopy) Name() string { return EntryCopy }

func (h *entryCopy) Run(t Target) error {
	if t.EntryScript == "" {
		return fmt.Errorf("no entry script configured")
	}
	src := filepath.Join(t.ResourceDir, "bin", t.EntryScript)
	dst := src + h.ext

	info, err := t.Fs.Stat(src)
	if err != nil {
		return err
	}
	data, err := afero.ReadFile(t.Fs, src)
	if err != nil {
		return err
	}
	mode := info.Mode().Perm()
	if h.mode != 0 {
		mode = h.mode
	}
	if err := afero.WriteFile(t.Fs, dst, data, mode); err != nil {
		return err
	}
	// WriteFile keeps an existing file's mode
	if err := t.Fs.Chmod(dst, mode); err != nil {
		return err
	}
	t.log().Debug("Entry script copied", "to", dst, "mode", permissions.Format(mode))
	return nil
}

const qtConfBin = `[Paths]
Prefix = ..
Binaries = bin
Libraries = lib
Headers = include/qt
Plugins = plugins
Translations = translations
`

// QtWebEngineProcess reads its own qt.conf from libexec.
const qtConfLibexec = `[Paths]
Prefix = ..
Translations = translations
`

// qtConf points Qt at the plugins and translations inside the bundle.
type qtConf struct{}

func (qtConf) Name() string { return QtConf }

func (qtConf) Run(t Target) error {
	libexec := filepath.Join(t.ResourceDir, "libexec")
	if err := t.Fs.MkdirAll(libexec, 0o755); err != nil {
		return err
	}
	if err := afero.WriteFile(t.Fs, filepath.Join(t.ResourceDir, "bin", "qt.conf"), []byte(qtConfBin), 0o644); err != nil {
		return err
	}
	return afero.WriteFile(t.Fs, filepath.Join(libexec, "qt.conf"), []byte(qtConfLibexec), 0o644)
}

// jupyterKernel replaces the absolute interpreter path in a kernel spec
// with a bare command name resolved through PATH at run time.
type jupyterKernel struct {
	kernel      string
	interpreter string
}

func (*jupyterKernel) Name() string { return JupyterKernel }

func (h *jupyterKernel) Run(t Target) error {
	path := filepath.Join(t.ResourceDir, "share", "jupyter", "kernels", h.kernel, "kernel.json")

	info, err := t.Fs.Stat(path)
	if os.IsNotExist(err) {
		t.log().Debug("No kernel spec to fix", "path", path)
		return nil
	}
	if err != nil {
		return err
	}

	data, err := afero.ReadFile(t.Fs, path)
	if err != nil {
		return err
	}
	var spec map[string]any
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	argv, ok := spec["argv"].([]any)
	if !ok || len(argv) == 0 {
		return fmt.Errorf("%s has no argv", path)
	}
	argv[0] = h.interpreter

	out, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return err
	}
	return afero.WriteFile(t.Fs, path, out, info.Mode().Perm())
}
