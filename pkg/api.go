// Package pkg is the library entry point used by the condapp command.
package pkg

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/condapp/pkg/archive"
	"github.com/provide-io/condapp/pkg/bundle"
	"github.com/provide-io/condapp/pkg/config"
	"github.com/provide-io/condapp/pkg/dmg"
	"github.com/provide-io/condapp/pkg/logging"
)

// Options selects what Run does. With neither Build nor DMG set only the
// configuration is loaded and validated.
type Options struct {
	ConfigPath string
	Build      bool
	DMG        bool
	Clear      bool
	Verify     bool
	Archive    string // overrides the configured archive format

	BundleOptions []bundle.Option
	ImageOptions  []dmg.Option
}

// Result reports what Run produced.
type Result struct {
	Config  *config.Config
	Bundle  *bundle.Report
	Image   string
	Archive string
}

// Run loads the configuration and performs the requested stages. Errors it
// returns are fatal. Per-item problems inside a stage are only logged.
func Run(ctx context.Context, opts Options, logger hclog.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.Discard()
	}

	cfg, err := config.Load(opts.ConfigPath, logger)
	if err != nil {
		return nil, err
	}
	res := &Result{Config: cfg}

	format := cfg.Archive
	if opts.Archive != "" {
		format = opts.Archive
	}
	var archiveOps []uint8
	if format != "" {
		if archiveOps, err = archive.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	var builder *bundle.Builder
	if opts.Build {
		// resolves hooks, so configuration errors surface before any work
		if builder, err = bundle.New(cfg, logger, opts.BundleOptions...); err != nil {
			return nil, err
		}
	}

	if !opts.Build && !opts.DMG {
		logger.Info("✅ Configuration valid", "app", cfg.AppName, "version", cfg.Version, "bundle", cfg.AppPath())
		return res, nil
	}

	if builder != nil {
		if res.Bundle, err = builder.Create(ctx, opts.Clear); err != nil {
			return res, err
		}

		if opts.Verify {
			if err := VerifyBundle(cfg.AppPath(), logger); err != nil {
				return res, err
			}
		}

		if archiveOps != nil {
			dst := filepath.Join(cfg.OutputFolder, fmt.Sprintf("%s.app.%s", cfg.AppName, archive.Extension(archiveOps)))
			if err := archive.Create(ctx, cfg.AppPath(), dst, archiveOps, logger.Named("archive")); err != nil {
				return res, err
			}
			res.Archive = dst
		}
	}

	if opts.DMG {
		if res.Image, err = dmg.New(cfg, logger, opts.ImageOptions...).Create(ctx, opts.Clear); err != nil {
			return res, err
		}
	}

	return res, nil
}
