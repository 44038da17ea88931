// Package errors holds the sentinel errors shared by the condapp packages.
package errors

import (
	"errors"
	"strings"
)

var (
	// Configuration errors ⚙️ (fatal, nothing has been written yet)
	ErrConfigUnreadable     = errors.New("❌ configuration file unreadable")
	ErrConfigInvalid        = errors.New("❌ configuration invalid")
	ErrMissingFields        = errors.New("❌ missing required configuration variables")
	ErrEnvironmentNotFound  = errors.New("❌ source environment not found")
	ErrUnknownHook          = errors.New("❌ unknown post-processing hook")
	ErrUnsupportedArchive   = errors.New("❌ unsupported archive format")
	ErrInvalidVersionSource = errors.New("❌ invalid version_from pattern")

	// Bundle errors 📦
	ErrBundleLayout   = errors.New("❌ bundle layout could not be created")
	ErrBundleNotFound = errors.New("❌ bundle not found")
	ErrCopyFailed     = errors.New("❌ environment copy failed")
	ErrPlistFailed    = errors.New("❌ Info.plist could not be written")
	ErrLauncherFailed = errors.New("❌ launcher script could not be written")

	// External tool errors 🔧
	ErrToolNotFound  = errors.New("❌ external tool not found")
	ErrSigningFailed = errors.New("❌ code signing failed")
	ErrImageFailed   = errors.New("❌ disk image build failed")
)

// MissingFieldsError lists every required setting absent from a configuration.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return ErrMissingFields.Error() + ": " + strings.Join(e.Fields, ", ")
}

// Unwrap lets errors.Is match ErrMissingFields.
func (e *MissingFieldsError) Unwrap() error {
	return ErrMissingFields
}
