package bundle

import (
	"fmt"
	"path/filepath"

	"github.com/provide-io/condapp/internal/workenv"
	cerrors "github.com/provide-io/condapp/pkg/errors"
)

var bundleDirs = []workenv.DirectorySpec{
	{Path: filepath.Join("Contents", "MacOS")},
	{Path: filepath.Join("Contents", "Resources")},
}

// initStructure creates the MacOS and Resources directories. It is safe
// to call on an existing bundle.
func (b *Builder) initStructure() error {
	if err := workenv.CreateLayout(b.cfg.AppPath(), bundleDirs); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrBundleLayout, err)
	}
	b.logger.Debug("📁 Bundle structure ready", "macos", b.cfg.MacOSDir(), "resources", b.cfg.ResourceDir())
	return nil
}
