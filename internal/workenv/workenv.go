// Package workenv inspects the source environment and prepares directories
// the bundle builder writes into.
package workenv

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirectorySpec specifies a directory to create
type DirectorySpec struct {
	Path string
	Mode uint32
}

// CreateLayout creates root and every directory in dirs below it.
// Existing directories are left as they are.
func CreateLayout(root string, dirs []DirectorySpec) error {
	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", root, err)
	}

	for _, dir := range dirs {
		mode := dir.Mode
		if mode == 0 {
			mode = 0755
		}
		if err := os.MkdirAll(filepath.Join(root, dir.Path), os.FileMode(mode)); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir.Path, err)
		}
	}

	return nil
}

// Size returns the bytes held under root: regular files plus the link
// size of symlinks, which are never followed.
func Size(root string) (int64, error) {
	root, err := filepath.EvalSymlinks(root)
	if err != nil {
		return 0, err
	}
	var total int64
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if d.Type().IsRegular() || d.Type()&fs.ModeSymlink != 0 {
			info, err := d.Info() // Lstat semantics
			if err != nil {
				return err
			}
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// SpaceReport is the outcome of a disk space preflight.
type SpaceReport struct {
	Required  int64
	Available int64
}

// Sufficient reports whether the target has room for the copy.
func (r SpaceReport) Sufficient() bool {
	return r.Available >= r.Required
}

// CheckSpace compares the size of src with the free space on the volume
// holding dst. dst's nearest existing ancestor is queried.
func CheckSpace(src, dst string) (SpaceReport, error) {
	required, err := Size(src)
	if err != nil {
		return SpaceReport{}, err
	}

	probe := dst
	for {
		if _, err := os.Stat(probe); err == nil {
			break
		}
		parent := filepath.Dir(probe)
		if parent == probe {
			break
		}
		probe = parent
	}

	available, err := availableDiskSpace(probe)
	if err != nil {
		return SpaceReport{Required: required}, err
	}
	return SpaceReport{Required: required, Available: available}, nil
}
