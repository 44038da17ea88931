package bundle

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/condapp/pkg/probe"
)

// RewriteResult counts the outcome of a path rewrite.
type RewriteResult struct {
	Changed int
	Failed  []string
}

// Rewriter replaces the build-time environment path with the path the
// resources will have once installed.
type Rewriter struct {
	Search     string
	Replace    string
	Exclusions []string // substrings of the path relative to root's parent
	Prober     probe.Prober
	Logger     hclog.Logger
}

// Run visits every regular file under root. Files that are not text or do
// not contain Search are left alone. Symlinks are never followed or edited.
// Errors are logged per file and counted, never returned.
func (r *Rewriter) Run(ctx context.Context, root string) RewriteResult {
	var res RewriteResult
	logger := r.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if r.Search == "" {
		return res
	}
	search := []byte(r.Search)
	base := filepath.Dir(root)

	logger.Info("🔁 Rewriting environment paths", "from", r.Search, "to", r.Replace)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("⚠️ Cannot read", "path", path, "error", err)
			res.Failed = append(res.Failed, path)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if d.IsDir() {
			if r.excluded(base, path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		changed, err := r.rewriteFile(ctx, path, search)
		if err != nil {
			logger.Warn("⚠️ Could not rewrite file", "path", path, "error", err)
			res.Failed = append(res.Failed, path)
			return nil
		}
		if changed {
			logger.Trace("Rewrote", "path", path)
			res.Changed++
		}
		return nil
	})
	if err != nil {
		logger.Warn("⚠️ Path rewrite interrupted", "error", err)
	}

	logger.Info("🔁 Path rewrite finished", "changed", res.Changed, "failed", len(res.Failed))
	return res
}

func (r *Rewriter) excluded(base, dir string) bool {
	rel, err := filepath.Rel(base, dir)
	if err != nil {
		rel = dir
	}
	rel = filepath.ToSlash(rel)
	for _, ex := range r.Exclusions {
		if ex != "" && strings.Contains(rel, ex) {
			return true
		}
	}
	return false
}

func (r *Rewriter) rewriteFile(ctx context.Context, path string, search []byte) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	if !bytes.Contains(data, search) {
		return false, nil
	}

	mime, err := r.Prober.MIMEType(ctx, path)
	if err != nil {
		return false, err
	}
	if !probe.IsText(mime) {
		return false, nil
	}

	text := strings.ToValidUTF8(string(data), "")
	text = strings.ReplaceAll(text, r.Search, r.Replace)

	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	if err := os.WriteFile(path, []byte(text), info.Mode().Perm()); err != nil {
		return false, err
	}
	return true, nil
}
