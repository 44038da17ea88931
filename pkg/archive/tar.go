package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-hclog"
)

// Entry describes one member of an archive.
type Entry struct {
	Name     string
	Type     byte
	Mode     int64
	Size     int64
	Linkname string
}

// Create writes src, a directory, to dst through the operation chain.
// Members are named relative to src's parent, so the archive unpacks to a
// single top-level directory. Symlinks are stored as links.
func Create(ctx context.Context, src, dst string, ops []uint8, logger hclog.Logger) (err error) {
	if err := validateChain(ops); err != nil {
		return err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	var out io.Writer = f
	var compressor io.WriteCloser
	if len(ops) == 2 {
		c, _ := Get(ops[1])
		if compressor, err = c.NewWriter(f); err != nil {
			return fmt.Errorf("creating %s writer: %w", c.Name(), err)
		}
		out = compressor
	}

	tw := tar.NewWriter(out)
	count, err := writeTree(ctx, tw, src)
	if err != nil {
		return err
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing tar writer: %w", err)
	}
	if compressor != nil {
		if err := compressor.Close(); err != nil {
			return fmt.Errorf("closing compressor: %w", err)
		}
	}

	logger.Info("🗜️ Archive written", "path", dst, "format", Extension(ops), "entries", count)
	return nil
}

func writeTree(ctx context.Context, tw *tar.Writer, src string) (int, error) {
	base := filepath.Dir(src)
	count := 0

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		} else if !info.Mode().IsRegular() && !info.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return fmt.Errorf("tar header for %s: %w", rel, err)
		}
		hdr.Name = filepath.ToSlash(rel)
		if info.IsDir() {
			hdr.Name += "/"
		}
		// ownership of the build machine means nothing on the target
		hdr.Uid, hdr.Gid, hdr.Uname, hdr.Gname = 0, 0, "", ""

		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("writing tar header: %w", err)
		}
		count++

		if !info.Mode().IsRegular() {
			return nil
		}
		in, err := os.Open(path)
		if err != nil {
			return err
		}
		defer in.Close()
		if _, err := io.Copy(tw, in); err != nil {
			return fmt.Errorf("writing tar data for %s: %w", rel, err)
		}
		return nil
	})
	return count, err
}

// List reads the member headers of an archive written by Create.
func List(path string, ops []uint8) ([]Entry, error) {
	if err := validateChain(ops); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var in io.Reader = f
	if len(ops) == 2 {
		c, _ := Get(ops[1])
		rc, err := c.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("creating %s reader: %w", c.Name(), err)
		}
		defer rc.Close()
		in = rc
	}

	var entries []Entry
	tr := tar.NewReader(in)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("reading tar header: %w", err)
		}
		entries = append(entries, Entry{
			Name:     hdr.Name,
			Type:     hdr.Typeflag,
			Mode:     hdr.Mode,
			Size:     hdr.Size,
			Linkname: hdr.Linkname,
		})
	}
}
