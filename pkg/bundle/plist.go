package bundle

import (
	"fmt"
	"os"

	"howett.net/plist"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// InfoPlist returns the Info.plist dictionary for the bundle. supported_files
// and then plist_additions are merged over the generated keys.
func (b *Builder) InfoPlist(iconFile string) map[string]any {
	cfg := b.cfg
	info := map[string]any{
		"CFBundleDevelopmentRegion":            developmentRegion,
		"CFBundleExecutable":                   cfg.AppName,
		"CFBundleIdentifier":                   cfg.Identifier,
		"CFBundleInfoDictionaryVersion":        infoDictionaryVersion,
		"CFBundleName":                         cfg.AppName,
		"CFBundleDisplayName":                  cfg.AppName,
		"CFBundlePackageType":                  "APPL",
		"CFBundleVersion":                      cfg.LongVersion,
		"CFBundleShortVersionString":           cfg.Version,
		"CFBundleSignature":                    "????",
		"LSMinimumSystemVersion":               minimumSystemVersion,
		"LSUIElement":                          false,
		"NSHighResolutionCapable":              true,
		"NSSupportsAutomaticGraphicsSwitching": true,
		"NSHumanReadableCopyright":             fmt.Sprintf("© %d %s", b.now().Year(), cfg.Author),
	}
	if iconFile != "" {
		info["CFBundleIconFile"] = iconFile
	}
	for k, v := range cfg.SupportedFiles {
		info[k] = v
	}
	for k, v := range cfg.PlistAdditions {
		info[k] = v
	}
	return info
}

// writeInfoPlist serialises InfoPlist in binary format.
func (b *Builder) writeInfoPlist(iconFile string) error {
	path := b.cfg.PlistPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, plistMode)
	if err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrPlistFailed, err)
	}

	enc := plist.NewEncoderForFormat(f, plist.BinaryFormat)
	if err := enc.Encode(b.InfoPlist(iconFile)); err != nil {
		f.Close()
		return fmt.Errorf("%w: %v", cerrors.ErrPlistFailed, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: %v", cerrors.ErrPlistFailed, err)
	}

	b.logger.Info("📝 Info.plist written", "path", path, "identifier", b.cfg.Identifier)
	return nil
}

// ReadInfoPlist decodes an Info.plist in any format.
func ReadInfoPlist(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var info map[string]any
	if _, err := plist.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return info, nil
}
