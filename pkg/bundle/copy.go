package bundle

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// copyEnvironment copies the whole environment, or only the configured
// top-level folders, into Resources. Allowlisted entries missing from the
// environment are skipped.
func (b *Builder) copyEnvironment(ctx context.Context) error {
	src, dst := b.cfg.EnvPath, b.cfg.ResourceDir()

	if len(b.cfg.Folders) == 0 {
		b.logger.Info("📋 Copying environment", "from", src, "to", dst)
		if err := copyTree(ctx, src, dst); err != nil {
			return fmt.Errorf("%w: %v", cerrors.ErrCopyFailed, err)
		}
		return nil
	}

	for _, name := range b.cfg.Folders {
		from := filepath.Join(src, name)
		if _, err := os.Lstat(from); os.IsNotExist(err) {
			b.logger.Debug("Folder not in environment, skipping", "folder", name)
			continue
		}
		b.logger.Info("📋 Copying folder", "folder", name)
		if err := copyTree(ctx, from, filepath.Join(dst, name)); err != nil {
			return fmt.Errorf("%w: %s: %v", cerrors.ErrCopyFailed, name, err)
		}
	}
	return nil
}

// copyTree copies src to dst, merging into directories that already exist.
// A symlinked src is resolved first; symlinks below it are recreated with
// their original target, never followed.
func copyTree(ctx context.Context, src, dst string) error {
	src, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			return copySymlink(path, target)
		case d.IsDir():
			// keep the owner write bit so the tree can be filled and cleaned
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		default:
			// sockets, fifos and devices have no place in a bundle
			return nil
		}
	})
}

func copySymlink(src, dst string) error {
	link, err := os.Readlink(src)
	if err != nil {
		return err
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Symlink(link, dst)
}

func copyFile(src, dst string, mode fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	// an existing symlink at dst must be replaced, not written through
	if fi, err := os.Lstat(dst); err == nil && fi.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode|0o200)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Chmod(dst, mode)
}
