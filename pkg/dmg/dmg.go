// Package dmg packs a finished bundle into a compressed disk image with
// dmgbuild.
package dmg

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/condapp/internal/workenv"
	"github.com/provide-io/condapp/pkg/config"
	cerrors "github.com/provide-io/condapp/pkg/errors"
	"github.com/provide-io/condapp/pkg/utils/command"
)

const mebibyte = 1024 * 1024

// ImageSize returns ceil(total * 1.3 / MiB), the image size in MiB.
func ImageSize(total int64) int64 {
	const denom = 10 * mebibyte // 1.3 == 13/10
	return (total*13 + denom - 1) / denom
}

// Imager builds a disk image from a settings file.
type Imager interface {
	Build(ctx context.Context, settingsPath, volumeName, output string) error
}

// Dmgbuild runs the dmgbuild command line tool.
type Dmgbuild struct {
	Tool string
	Run  command.Runner
}

func (d Dmgbuild) Build(ctx context.Context, settingsPath, volumeName, output string) error {
	tool, run := d.Tool, d.Run
	if tool == "" {
		tool = "dmgbuild"
	}
	if run == nil {
		run = command.Exec
	}
	out, err := run(ctx, tool, "-s", settingsPath, volumeName, output)
	if err != nil {
		return fmt.Errorf("%w: %s", cerrors.ErrImageFailed, command.Failure(err, out))
	}
	return nil
}

// Builder creates the disk image for one configuration.
type Builder struct {
	cfg    *config.Config
	logger hclog.Logger
	imager Imager
	tmpDir string // "" means os.TempDir()
}

// Option customises a Builder.
type Option func(*Builder)

// WithImager replaces the dmgbuild invocation.
func WithImager(i Imager) Option {
	return func(b *Builder) { b.imager = i }
}

// WithTempDir sets where the settings file is created.
func WithTempDir(dir string) Option {
	return func(b *Builder) { b.tmpDir = dir }
}

// New returns a disk image builder.
func New(cfg *config.Config, logger hclog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &Builder{cfg: cfg, logger: logger.Named("dmg"), imager: Dmgbuild{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Settings computes the dmgbuild settings for the current bundle.
func (b *Builder) Settings() (Settings, error) {
	cfg := b.cfg
	total, err := workenv.Size(cfg.AppPath())
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", cerrors.ErrBundleNotFound, err)
	}

	return Settings{
		Filename:      cfg.ImagePath(),
		VolumeName:    cfg.AppName,
		Size:          fmt.Sprintf("%dM", ImageSize(total)),
		Files:         []string{cfg.AppPath()},
		Symlinks:      map[string]string{"Applications": "/Applications"},
		Format:        cfg.DMG.Format,
		BadgeIcon:     cfg.DMG.BadgeIcon,
		Background:    cfg.DMG.Background,
		IconSize:      cfg.DMG.IconSize,
		IconLocations: cfg.DMG.IconLocations,
		WindowRect:    cfg.DMG.WindowRect,
	}, nil
}

// Create builds the image and returns its path. With clear set an existing
// image is removed first. The temporary settings file never outlives the
// call.
func (b *Builder) Create(ctx context.Context, clear bool) (string, error) {
	cfg := b.cfg
	if _, err := os.Stat(cfg.AppPath()); err != nil {
		return "", fmt.Errorf("%w: %s (run with --build first)", cerrors.ErrBundleNotFound, cfg.AppPath())
	}

	output := cfg.ImagePath()
	if clear {
		if err := os.Remove(output); err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("remove existing image: %w", err)
		}
	}

	settings, err := b.Settings()
	if err != nil {
		return "", err
	}
	b.logger.Info("💿 Creating disk image", "path", output, "size", settings.Size, "format", settings.Format)

	tmp, err := os.CreateTemp(b.tmpDir, "condapp-dmg-*.py")
	if err != nil {
		return "", fmt.Errorf("create settings file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := settings.Encode(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write settings file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write settings file: %w", err)
	}
	b.logger.Debug("dmgbuild settings", "path", tmp.Name())

	if err := b.imager.Build(ctx, tmp.Name(), cfg.AppName, output); err != nil {
		return "", err
	}

	if sum, err := fileSHA256(output); err == nil {
		b.logger.Info("✅ Disk image created", "path", output, "sha256", sum)
	} else {
		b.logger.Warn("⚠️ Disk image created but could not be hashed", "path", output, "error", err)
	}
	return output, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}
