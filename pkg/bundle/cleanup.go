package bundle

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// CleanupResult counts what a Cleaner removed.
type CleanupResult struct {
	Removed int
	Failed  []string
}

// Cleaner deletes everything under a root that matches its patterns.
//
// A pattern matches the trailing path components of an entry at any depth,
// so "share/doc" matches both share/doc and lib/x/share/doc. Each component
// is a filepath.Match pattern. A trailing slash restricts the pattern to
// directories.
type Cleaner struct {
	Patterns []string
	Logger   hclog.Logger
}

type cleanupPattern struct {
	raw     string
	parts   []string
	dirOnly bool
}

func parsePattern(p string) (cleanupPattern, bool) {
	cp := cleanupPattern{raw: p, dirOnly: strings.HasSuffix(p, "/")}
	trimmed := strings.Trim(filepath.ToSlash(p), "/")
	if trimmed == "" {
		return cp, false
	}
	cp.parts = strings.Split(trimmed, "/")
	for _, part := range cp.parts {
		if _, err := filepath.Match(part, ""); err != nil {
			return cp, false
		}
	}
	return cp, true
}

func (p cleanupPattern) match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	comps := strings.Split(filepath.ToSlash(rel), "/")
	if len(comps) < len(p.parts) {
		return false
	}
	tail := comps[len(comps)-len(p.parts):]
	for i, part := range p.parts {
		if ok, _ := filepath.Match(part, tail[i]); !ok {
			return false
		}
	}
	return true
}

// Run applies the patterns in order. Paths already removed by an earlier
// pattern are simply not found again.
func (c *Cleaner) Run(root string) CleanupResult {
	var res CleanupResult
	logger := c.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	for _, raw := range c.Patterns {
		p, ok := parsePattern(raw)
		if !ok {
			logger.Warn("⚠️ Ignoring invalid cleanup pattern", "pattern", raw)
			continue
		}

		for _, path := range c.collect(root, p, logger) {
			if err := remove(path); err != nil {
				logger.Warn("⚠️ Could not remove", "path", path, "error", err)
				res.Failed = append(res.Failed, path)
				continue
			}
			logger.Trace("Removed", "path", path, "pattern", raw)
			res.Removed++
		}
	}

	logger.Info("🧹 Cleanup finished", "removed", res.Removed, "failed", len(res.Failed))
	return res
}

// collect returns the entries matching p. Matched directories are not
// descended into.
func (c *Cleaner) collect(root string, p cleanupPattern, logger hclog.Logger) []string {
	var matches []string
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Debug("Skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if p.match(rel, d.IsDir()) {
			matches = append(matches, path)
			if d.IsDir() {
				return filepath.SkipDir
			}
		}
		return nil
	})
	return matches
}

func remove(path string) error {
	info, err := os.Lstat(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		return os.RemoveAll(path)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
