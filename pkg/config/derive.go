package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/hashicorp/go-hclog"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// deriveVersion applies VersionFrom. A missing file or a pattern that does
// not match keeps the static version and only warns.
func (c *Config) deriveVersion(logger hclog.Logger) error {
	src := c.VersionFrom
	if src.File == "" {
		return fmt.Errorf("%w: version_from.file is empty", cerrors.ErrInvalidVersionSource)
	}

	pattern := src.Pattern
	if pattern == "" {
		pattern = DefaultVersionPattern
	}
	versionRe, err := compileCapture(pattern)
	if err != nil {
		return err
	}
	var codenameRe *regexp.Regexp
	if src.CodenamePattern != "" {
		if codenameRe, err = compileCapture(src.CodenamePattern); err != nil {
			return err
		}
	}

	matches, err := filepath.Glob(filepath.Join(c.EnvPath, src.File))
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrInvalidVersionSource, err)
	}
	if len(matches) == 0 {
		logger.Warn("⚠️ Version source not found, keeping configured version", "file", src.File, "version", c.Version)
		return nil
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[0])
	if err != nil {
		logger.Warn("⚠️ Could not read version source", "file", matches[0], "error", err)
		return nil
	}

	m := versionRe.FindSubmatch(data)
	if m == nil {
		logger.Warn("⚠️ Version pattern did not match", "file", matches[0])
		return nil
	}
	c.Version = string(m[1])
	c.LongVersion = c.Version

	if codenameRe != nil {
		if cm := codenameRe.FindSubmatch(data); cm != nil {
			c.LongVersion = fmt.Sprintf("%s %s", c.Version, cm[1])
		}
	}

	logger.Info("🔍 Version derived from environment", "file", matches[0], "version", c.Version, "long_version", c.LongVersion)
	return nil
}

func compileCapture(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrInvalidVersionSource, err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("%w: %q has no capture group", cerrors.ErrInvalidVersionSource, pattern)
	}
	return re, nil
}
