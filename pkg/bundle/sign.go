package bundle

import (
	"bytes"
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/provide-io/condapp/pkg/config"
	cerrors "github.com/provide-io/condapp/pkg/errors"
	"github.com/provide-io/condapp/pkg/utils/command"
	"github.com/provide-io/condapp/pkg/utils/shellquote"
)

// Signer signs a finished bundle.
type Signer interface {
	Sign(ctx context.Context, appPath string) error
}

// CodesignSigner signs with Apple's codesign tool.
type CodesignSigner struct {
	Identity string
	Args     string // extra arguments, shell quoted
	Verify   bool
	Tool     string
	Run      command.Runner
	Logger   hclog.Logger
}

// NewCodesignSigner builds a signer from the codesign settings.
func NewCodesignSigner(cfg config.CodesignConfig, logger hclog.Logger) *CodesignSigner {
	return &CodesignSigner{
		Identity: cfg.Identity,
		Args:     cfg.Args,
		Verify:   cfg.Verify,
		Tool:     "codesign",
		Run:      command.Exec,
		Logger:   logger,
	}
}

// Sign signs appPath recursively and optionally verifies the result.
func (s *CodesignSigner) Sign(ctx context.Context, appPath string) error {
	extra, err := shellquote.Split(s.Args)
	if err != nil {
		return fmt.Errorf("%w: codesign args: %v", cerrors.ErrSigningFailed, err)
	}

	identity := s.Identity
	if identity == "" {
		identity = config.DefaultSigningIdentity
	}

	args := append([]string{"--force", "--deep", "--sign", identity}, extra...)
	args = append(args, appPath)

	s.Logger.Info("🔏 Signing bundle", "identity", identity)
	s.Logger.Debug("Running", "command", shellquote.Join(append([]string{s.Tool}, args...)))
	if out, err := s.Run(ctx, s.Tool, args...); err != nil {
		return fmt.Errorf("%w: %s", cerrors.ErrSigningFailed, command.Failure(err, out))
	}

	if !s.Verify {
		return nil
	}
	out, err := s.Run(ctx, s.Tool, "--verify", "--deep", "--strict", "--verbose=2", appPath)
	if err != nil {
		return fmt.Errorf("%w: verify: %s", cerrors.ErrSigningFailed, command.Failure(err, out))
	}
	s.Logger.Info("✅ Signature verified", "output", string(bytes.TrimSpace(out)))
	return nil
}
