// Package hooks implements the post-processing steps a configuration can
// request after the environment has been copied and cleaned.
//
// Hooks are looked up by type name in a registry. Each one receives the
// finished resource directory through an afero.Fs, so the production
// builder passes the OS filesystem and tests pass an in-memory one.
package hooks

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/provide-io/condapp/pkg/config"
	cerrors "github.com/provide-io/condapp/pkg/errors"
)

// Target is what a hook operates on.
type Target struct {
	Fs          afero.Fs
	ResourceDir string
	EntryScript string
	Logger      hclog.Logger
}

func (t Target) log() hclog.Logger {
	if t.Logger == nil {
		return hclog.NewNullLogger()
	}
	return t.Logger
}

// Hook is a single post-processing step.
type Hook interface {
	// Name returns the registered type name
	Name() string

	// Run applies the hook to the resource directory
	Run(t Target) error
}

// Factory builds a hook from its configured options.
type Factory func(opts map[string]string) (Hook, error)

type registration struct {
	factory Factory
	options []string // accepted option keys
}

var registry = make(map[string]registration)

// Register makes a hook type available under name.
func Register(name string, options []string, f Factory) {
	registry[name] = registration{factory: f, options: options}
}

// Types returns the registered hook type names, sorted.
func Types() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve turns configured hook specs into runnable hooks. Unknown types
// and unknown options are configuration errors.
func Resolve(specs []config.HookSpec) ([]Hook, error) {
	resolved := make([]Hook, 0, len(specs))
	for i, spec := range specs {
		reg, ok := registry[spec.Type]
		if !ok {
			return nil, fmt.Errorf("%w: hooks[%d] %q (known: %s)",
				cerrors.ErrUnknownHook, i, spec.Type, strings.Join(Types(), ", "))
		}
		for key := range spec.Options {
			if !contains(reg.options, key) {
				return nil, fmt.Errorf("%w: hook %q does not accept option %q",
					cerrors.ErrConfigInvalid, spec.Type, key)
			}
		}
		h, err := reg.factory(spec.Options)
		if err != nil {
			return nil, fmt.Errorf("%w: hook %q: %v", cerrors.ErrConfigInvalid, spec.Type, err)
		}
		resolved = append(resolved, h)
	}
	return resolved, nil
}

// RunAll runs hooks in order. A failing hook is logged and the rest still
// run; the failures are returned together.
func RunAll(t Target, hooks []Hook) []error {
	logger := t.log()

	var failures []error
	for _, h := range hooks {
		logger.Debug("🪝 Running hook", "hook", h.Name())
		if err := h.Run(t); err != nil {
			logger.Warn("⚠️ Hook failed", "hook", h.Name(), "error", err)
			failures = append(failures, fmt.Errorf("hook %s: %w", h.Name(), err))
			continue
		}
		logger.Info("✅ Hook applied", "hook", h.Name())
	}
	return failures
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func option(opts map[string]string, key, fallback string) string {
	if v, ok := opts[key]; ok && v != "" {
		return v
	}
	return fallback
}
