// Package bundle turns a Python environment into a macOS application bundle.
//
// Builder.Create runs the stages strictly in order: existence check,
// structure, copy, icon, Info.plist, launcher, path rewrite, cleanup,
// hooks and finally signing. Failures in the first half leave no usable
// bundle and are returned. Failures from the rewrite onward are per item,
// logged as warnings and collected in the Report.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/provide-io/condapp/internal/workenv"
	"github.com/provide-io/condapp/pkg/config"
	"github.com/provide-io/condapp/pkg/hooks"
	"github.com/provide-io/condapp/pkg/probe"
)

// Report summarises one Create call.
type Report struct {
	Created      bool // false when an existing bundle was kept
	IconFile     string
	Rewrite      RewriteResult
	Cleanup      CleanupResult
	HookFailures []error
	Signed       bool
}

// Builder builds the bundle described by one configuration.
type Builder struct {
	cfg    *config.Config
	logger hclog.Logger
	prober probe.Prober
	signer Signer
	hooks  []hooks.Hook
	fs     afero.Fs
	now    func() time.Time
}

// Option customises a Builder.
type Option func(*Builder)

// WithProber replaces the MIME probe used by the path rewriter.
func WithProber(p probe.Prober) Option {
	return func(b *Builder) { b.prober = p }
}

// WithSigner replaces the signer. A nil signer disables signing.
func WithSigner(s Signer) Option {
	return func(b *Builder) { b.signer = s }
}

// WithClock sets the time source used for the copyright year.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) { b.now = now }
}

// WithFs sets the filesystem hooks run against.
func WithFs(fs afero.Fs) Option {
	return func(b *Builder) { b.fs = fs }
}

// New prepares a builder. Hook types are resolved here so that an unknown
// hook fails before anything is written.
func New(cfg *config.Config, logger hclog.Logger, opts ...Option) (*Builder, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	resolved, err := hooks.Resolve(cfg.Hooks)
	if err != nil {
		return nil, err
	}

	b := &Builder{
		cfg:    cfg,
		logger: logger.Named("bundle"),
		hooks:  resolved,
		fs:     afero.NewOsFs(),
		now:    time.Now,
	}
	if cfg.Codesign.Enabled {
		b.signer = NewCodesignSigner(cfg.Codesign, b.logger)
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.prober == nil {
		b.prober = probe.New(b.logger)
	}
	return b, nil
}

// Create builds the bundle. With clear unset an existing bundle is left
// untouched and the report has Created == false.
func (b *Builder) Create(ctx context.Context, clear bool) (*Report, error) {
	cfg := b.cfg
	appPath := cfg.AppPath()
	report := &Report{}

	if _, err := os.Lstat(appPath); err == nil {
		if !clear {
			b.logger.Info("⏭️ Bundle already exists, skipping (use --clear to rebuild)", "path", appPath)
			return report, nil
		}
		b.logger.Info("🧹 Removing existing bundle", "path", appPath)
		if err := os.RemoveAll(appPath); err != nil {
			return nil, fmt.Errorf("remove existing bundle: %w", err)
		}
	}

	b.preflight()

	b.logger.Info("📦 Creating bundle", "app", cfg.AppName, "path", appPath)
	if err := b.initStructure(); err != nil {
		return nil, err
	}

	if err := b.copyEnvironment(ctx); err != nil {
		return nil, err
	}

	iconFile, err := b.installIcon()
	if err != nil {
		b.logger.Warn("⚠️ Icon not installed", "icon", cfg.Icon, "error", err)
	}
	report.IconFile = iconFile

	if err := b.writeInfoPlist(iconFile); err != nil {
		return nil, err
	}

	if err := b.writeLauncher(); err != nil {
		return nil, err
	}

	rw := &Rewriter{
		Replace:    cfg.InstalledResourceDir(),
		Exclusions: cfg.RewriteExclusions,
		Prober:     b.prober,
		Logger:     b.logger,
	}
	for _, search := range envPrefixes(cfg.EnvPath) {
		rw.Search = search
		res := rw.Run(ctx, cfg.ResourceDir())
		report.Rewrite.Changed += res.Changed
		report.Rewrite.Failed = append(report.Rewrite.Failed, res.Failed...)
	}

	cl := &Cleaner{
		Patterns: append(append([]string(nil), cfg.Exclude...), DefaultCleanupPatterns...),
		Logger:   b.logger,
	}
	report.Cleanup = cl.Run(cfg.ResourceDir())

	if len(b.hooks) > 0 {
		report.HookFailures = hooks.RunAll(hooks.Target{
			Fs:          b.fs,
			ResourceDir: cfg.ResourceDir(),
			EntryScript: cfg.EntryScript,
			Logger:      b.logger.Named("hooks"),
		}, b.hooks)
	}

	// signing must see the final content
	if b.signer != nil {
		if err := b.signer.Sign(ctx, appPath); err != nil {
			b.logger.Warn("⚠️ Code signing failed, bundle left unsigned", "error", err)
		} else {
			report.Signed = true
		}
	}

	report.Created = true
	b.logger.Info("✅ Bundle created", "path", appPath,
		"rewritten", report.Rewrite.Changed,
		"rewrite_failures", len(report.Rewrite.Failed),
		"removed", report.Cleanup.Removed,
		"signed", report.Signed,
	)
	return report, nil
}

// preflight warns about a source environment that looks incomplete or a
// target volume without room for it. Neither stops the build.
func (b *Builder) preflight() {
	in := workenv.Inspect(b.cfg.EnvPath, b.cfg.EntryScript)
	for _, problem := range in.Problems {
		b.logger.Warn("⚠️ Source environment", "path", in.Path, "problem", problem)
	}
	if !in.IsConda {
		b.logger.Debug("No conda-meta in source environment", "path", in.Path)
	}

	space, err := workenv.CheckSpace(b.cfg.EnvPath, b.cfg.OutputFolder)
	if err != nil {
		b.logger.Debug("Disk space check skipped", "error", err)
		return
	}
	b.logger.Debug("💾 Disk space", "required", space.Required, "available", space.Available)
	if !space.Sufficient() {
		b.logger.Warn("⚠️ Output volume may be too small for the environment",
			"required_mb", space.Required/(1024*1024),
			"available_mb", space.Available/(1024*1024))
	}
}

// envPrefixes returns the configured environment path and, when it goes
// through a symlink, the resolved path files may have been installed under.
func envPrefixes(envPath string) []string {
	prefixes := []string{envPath}
	if resolved, err := filepath.EvalSymlinks(envPath); err == nil && resolved != envPath {
		prefixes = append(prefixes, resolved)
	}
	return prefixes
}
