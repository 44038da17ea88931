// Package command runs the external macOS tools condapp drives.
package command

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// Exec runs commands with os/exec. A missing binary is reported as
// ErrToolNotFound.
func Exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", cerrors.ErrToolNotFound, name)
	}
	return exec.CommandContext(ctx, path, args...).CombinedOutput()
}

// Failure formats a failed command's error together with its trimmed output.
func Failure(err error, out []byte) string {
	msg := strings.TrimSpace(string(out))
	if msg == "" {
		return err.Error()
	}
	return fmt.Sprintf("%v: %s", err, msg)
}
