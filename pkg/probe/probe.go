// Package probe decides whether a file holds text the path rewriter may edit.
package probe

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-hclog"
)

// Prober reports the MIME type of a file.
type Prober interface {
	MIMEType(ctx context.Context, path string) (string, error)
}

// IsText reports whether mime names a textual type.
func IsText(mime string) bool {
	mime, _, _ = strings.Cut(mime, ";")
	return strings.HasPrefix(strings.TrimSpace(mime), "text/")
}

// FileCommand asks `file --mime-type -b`, the same probe macOS ships with.
type FileCommand struct {
	Path string // resolved location of the file(1) binary
}

func (f FileCommand) MIMEType(ctx context.Context, path string) (string, error) {
	out, err := exec.CommandContext(ctx, f.Path, "--mime-type", "-b", path).Output()
	if err != nil {
		return "", fmt.Errorf("file --mime-type %s: %w", path, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Sniffer detects the type in-process from the file's leading bytes.
type Sniffer struct{}

func (Sniffer) MIMEType(_ context.Context, path string) (string, error) {
	m, err := mimetype.DetectFile(path)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

// New returns the file(1) prober when the tool is on PATH, else the sniffer.
func New(logger hclog.Logger) Prober {
	if p, err := exec.LookPath("file"); err == nil {
		logger.Debug("Using file(1) for MIME detection", "path", p)
		return FileCommand{Path: p}
	}
	logger.Debug("file(1) not on PATH, sniffing MIME types in-process")
	return Sniffer{}
}
