package bundle

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/provide-io/condapp/pkg/icns"
)

var rasterIcons = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

// installIcon places the configured icon in Resources and returns the file
// name Info.plist should reference. Raster images are converted to icns.
// An empty name with a nil error means no icon was configured.
func (b *Builder) installIcon() (string, error) {
	src := b.cfg.Icon
	if src == "" {
		return "", nil
	}
	info, err := os.Stat(src)
	if err != nil {
		return "", err
	}

	base := filepath.Base(src)
	ext := strings.ToLower(filepath.Ext(base))

	if !rasterIcons[ext] {
		dst := filepath.Join(b.cfg.ResourceDir(), base)
		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			return "", err
		}
		b.logger.Info("🎨 Icon copied", "icon", base)
		return base, nil
	}

	name := strings.TrimSuffix(base, filepath.Ext(base)) + ".icns"
	if err := convertIcon(src, filepath.Join(b.cfg.ResourceDir(), name)); err != nil {
		return "", err
	}
	b.logger.Info("🎨 Icon converted", "from", base, "icon", name)
	return name, nil
}

func convertIcon(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	img, format, err := icns.Decode(in)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := icns.Encode(out, img); err != nil {
		out.Close()
		return fmt.Errorf("encode %s icon: %w", format, err)
	}
	return out.Close()
}
