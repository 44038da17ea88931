// Package config loads and validates the YAML description of an app bundle.
//
// The file is purely declarative. The dynamic parts a build sometimes needs,
// like reading the version out of the packaged application's own sources,
// are expressed through the enumerated VersionFrom hook rather than code.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/hashicorp/go-hclog"
	"gopkg.in/yaml.v3"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// Defaults applied to optional settings.
const (
	DefaultInstallDir      = "/Applications"
	DefaultSigningIdentity = "-" // ad-hoc
	DefaultImageFormat     = "UDZO"
	DefaultVersionPattern  = `__version__\s*=\s*u?['"]([^'"]*)['"]`
)

// RequiredKeys lists the settings every configuration must define, in the
// order they are reported when missing.
var RequiredKeys = []string{
	"app_name",
	"output_folder",
	"version",
	"author",
	"env_path",
	"entry_script",
	"identifier",
}

// DefaultRewriteExclusions are path substrings the path rewriter never enters.
var DefaultRewriteExclusions = []string{"site-packages", "doc", "Resources/lib/python"}

// Config is the validated, fully resolved description of one build.
// It is not modified after Load returns.
type Config struct {
	AppName      string `yaml:"app_name"`
	OutputFolder string `yaml:"output_folder"`
	Version      string `yaml:"version"`
	LongVersion  string `yaml:"long_version"`
	Author       string `yaml:"author"`
	EnvPath      string `yaml:"env_path"`
	EntryScript  string `yaml:"entry_script"`
	Identifier   string `yaml:"identifier"`

	Folders           []string       `yaml:"folders"`
	Exclude           []string       `yaml:"exclude"`
	Icon              string         `yaml:"icon"`
	SupportedFiles    map[string]any `yaml:"supported_files"`
	PlistAdditions    map[string]any `yaml:"plist_additions"`
	InstallDir        string         `yaml:"install_dir"`
	RewriteExclusions []string       `yaml:"rewrite_exclusions"`
	VersionFrom       *VersionSource `yaml:"version_from"`
	Hooks             []HookSpec     `yaml:"hooks"`
	Codesign          CodesignConfig `yaml:"codesign"`
	DMG               DMGConfig      `yaml:"dmg"`
	Archive           string         `yaml:"archive"`
}

// VersionSource derives the version from a file inside the environment.
type VersionSource struct {
	File            string `yaml:"file"` // relative to env_path, glob wildcards allowed
	Pattern         string `yaml:"pattern"`
	CodenamePattern string `yaml:"codename_pattern"`
}

// HookSpec names one post-processing hook and its options.
type HookSpec struct {
	Type    string            `yaml:"type"`
	Options map[string]string `yaml:",inline"`
}

// CodesignConfig controls the optional signing stage.
type CodesignConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Identity string `yaml:"identity"`
	Args     string `yaml:"args"`
	Verify   bool   `yaml:"verify"`
}

// DMGConfig holds the disk image settings.
type DMGConfig struct {
	File          string         `yaml:"file"`
	Format        string         `yaml:"format"`
	BadgeIcon     string         `yaml:"badge_icon"`
	Background    string         `yaml:"background"`
	IconSize      int            `yaml:"icon_size"`
	IconLocations map[string]any `yaml:"icon_locations"`
	WindowRect    []any          `yaml:"window_rect"`
}

// Load reads, validates and resolves the configuration at path.
// Every error it returns is fatal: no bundle work has started yet.
func Load(path string, logger hclog.Logger) (*Config, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrConfigUnreadable, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.resolve(logger); err != nil {
		return nil, err
	}

	logger.Debug("Configuration loaded", "path", path, "app", cfg.AppName, "version", cfg.Version)
	return cfg, nil
}

// Parse decodes a configuration document and checks required settings.
// It performs no filesystem access.
func Parse(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrConfigUnreadable, err)
	}

	if missing := missingKeys(raw); len(missing) > 0 {
		return nil, &cerrors.MissingFieldsError{Fields: missing}
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", cerrors.ErrConfigInvalid, err)
	}

	return cfg, nil
}

func missingKeys(raw map[string]any) []string {
	var missing []string
	for _, key := range RequiredKeys {
		value, ok := raw[key]
		if !ok || value == nil {
			missing = append(missing, key)
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			missing = append(missing, key)
		}
	}
	return missing
}

// resolve expands paths, checks the environment and applies defaults.
func (c *Config) resolve(logger hclog.Logger) error {
	var err error
	for _, p := range []*string{&c.EnvPath, &c.OutputFolder, &c.Icon, &c.DMG.Background, &c.DMG.BadgeIcon} {
		if *p, err = ExpandUser(*p); err != nil {
			return fmt.Errorf("%w: %v", cerrors.ErrConfigInvalid, err)
		}
	}
	c.EnvPath = filepath.Clean(c.EnvPath)

	if _, err := os.Stat(c.EnvPath); err != nil {
		return fmt.Errorf("%w: %s", cerrors.ErrEnvironmentNotFound, c.EnvPath)
	}

	if strings.ContainsRune(c.AppName, filepath.Separator) {
		return fmt.Errorf("%w: app_name %q must not contain a path separator", cerrors.ErrConfigInvalid, c.AppName)
	}
	if strings.IndexFunc(c.AppName, unicode.IsControl) >= 0 {
		return fmt.Errorf("%w: app_name %q must not contain control characters", cerrors.ErrConfigInvalid, c.AppName)
	}

	if c.VersionFrom != nil {
		if err := c.deriveVersion(logger); err != nil {
			return err
		}
	}

	if c.LongVersion == "" {
		c.LongVersion = c.Version
	}
	if c.InstallDir == "" {
		c.InstallDir = DefaultInstallDir
	}
	if c.RewriteExclusions == nil {
		c.RewriteExclusions = append([]string(nil), DefaultRewriteExclusions...)
	}
	if c.Codesign.Identity == "" {
		c.Codesign.Identity = DefaultSigningIdentity
	}
	if c.DMG.Format == "" {
		c.DMG.Format = DefaultImageFormat
	}
	if c.DMG.File == "" {
		c.DMG.File = c.AppName + ".dmg"
	}
	c.DMG.File = strings.ReplaceAll(c.DMG.File, "{version}", c.Version)

	for i, h := range c.Hooks {
		if h.Type == "" {
			return fmt.Errorf("%w: hooks[%d] has no type", cerrors.ErrConfigInvalid, i)
		}
	}

	return nil
}

// ExpandUser replaces a leading "~" with the current user's home directory.
func ExpandUser(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %q: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}
