package pkg

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/condapp/pkg/bundle"
	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// BundleProblems inspects a built .app and describes everything that would
// stop macOS from launching it.
func BundleProblems(appPath string) []string {
	problems := []string{}
	contents := filepath.Join(appPath, "Contents")

	info, err := bundle.ReadInfoPlist(filepath.Join(contents, "Info.plist"))
	if err != nil {
		return append(problems, fmt.Sprintf("Info.plist unreadable: %v", err))
	}

	executable, _ := info["CFBundleExecutable"].(string)
	if executable == "" {
		problems = append(problems, "Info.plist has no CFBundleExecutable")
	} else {
		launcher := filepath.Join(contents, "MacOS", executable)
		st, err := os.Stat(launcher)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("launcher %s missing", executable))
		case st.Mode().Perm()&0o111 == 0:
			problems = append(problems, fmt.Sprintf("launcher %s is not executable", executable))
		}
	}

	for _, key := range []string{"CFBundleIdentifier", "CFBundleShortVersionString"} {
		if v, _ := info[key].(string); v == "" {
			problems = append(problems, "Info.plist has no "+key)
		}
	}

	if icon, _ := info["CFBundleIconFile"].(string); icon != "" {
		if _, err := os.Stat(filepath.Join(contents, "Resources", icon)); err != nil {
			problems = append(problems, fmt.Sprintf("icon %s referenced but missing", icon))
		}
	}

	if st, err := os.Stat(filepath.Join(contents, "Resources")); err != nil || !st.IsDir() {
		problems = append(problems, "Resources directory missing")
	}
	return problems
}

// VerifyBundle logs each check and returns an error listing all problems.
func VerifyBundle(appPath string, logger hclog.Logger) error {
	if _, err := os.Stat(appPath); err != nil {
		return fmt.Errorf("%w: %s", cerrors.ErrBundleNotFound, appPath)
	}
	logger.Info("Verifying bundle", "path", appPath)

	problems := BundleProblems(appPath)
	if len(problems) == 0 {
		logger.Info("✓ Bundle verification passed")
		return nil
	}

	logger.Error("✗ Bundle verification failed", "error_count", len(problems))
	for _, p := range problems {
		logger.Error("  Verification error", "details", p)
	}
	return fmt.Errorf("bundle verification failed: %s", strings.Join(problems, "; "))
}
