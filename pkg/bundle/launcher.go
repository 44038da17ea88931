package bundle

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	cerrors "github.com/provide-io/condapp/pkg/errors"
	"github.com/provide-io/condapp/pkg/utils/shellquote"
)

// The launcher resolves the bundle from its own location at run time.
var launcherTemplate = template.Must(template.New("launcher").Funcs(template.FuncMap{
	"escape": shellquote.EscapeDouble,
}).Parse(`#!/usr/bin/env bash
# {{ .AppName }} launcher
DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"
CONTENTS_DIR="$(dirname "$DIR")"
RESOURCES_DIR="$CONTENTS_DIR/Resources"

export PATH="$RESOURCES_DIR/bin:$PATH"
export PYTHONHOME="$RESOURCES_DIR"
export PYTHONNOUSERSITE=1
export PYTHONUSERBASE=/dev/null

exec "$RESOURCES_DIR/bin/python" "$RESOURCES_DIR/bin/{{ escape .EntryScript }}" "$@"
`))

// Launcher renders the launcher script for the bundle.
func (b *Builder) Launcher() ([]byte, error) {
	var buf bytes.Buffer
	err := launcherTemplate.Execute(&buf, struct {
		AppName     string
		EntryScript string
	}{b.cfg.AppName, b.cfg.EntryScript})
	return buf.Bytes(), err
}

func (b *Builder) writeLauncher() error {
	script, err := b.Launcher()
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrLauncherFailed, err)
	}

	path := b.cfg.LauncherPath()
	if err := os.WriteFile(path, script, launcherMode); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrLauncherFailed, err)
	}
	// WriteFile applies the mode only on creation, and the umask may strip it
	if err := os.Chmod(path, launcherMode); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrLauncherFailed, err)
	}

	b.logger.Info("🚀 Launcher written", "path", path, "entry", b.cfg.EntryScript)
	return nil
}
