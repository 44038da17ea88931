package bundle

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/condapp/pkg/config"
	cerrors "github.com/provide-io/condapp/pkg/errors"
	"github.com/provide-io/condapp/pkg/utils/command"
)

type call struct {
	name string
	args []string
}

func fakeRunner(calls *[]call, fail map[string]error) command.Runner {
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, call{name, args})
		if err, ok := fail[args[0]]; ok {
			return []byte("boom"), err
		}
		return []byte("valid on disk"), nil
	}
}

func TestCodesignSigner_Arguments(t *testing.T) {
	var calls []call
	s := NewCodesignSigner(config.CodesignConfig{
		Identity: "Developer ID Application: Demo (ABC123)",
		Args:     `--timestamp --options runtime --entitlements "My App.plist"`,
		Verify:   true,
	}, testLogger())
	s.Run = fakeRunner(&calls, nil)

	require.NoError(t, s.Sign(context.Background(), "/out/Demo.app"))
	require.Len(t, calls, 2)
	assert.Equal(t, "codesign", calls[0].name)
	assert.Equal(t, []string{
		"--force", "--deep", "--sign", "Developer ID Application: Demo (ABC123)",
		"--timestamp", "--options", "runtime", "--entitlements", "My App.plist",
		"/out/Demo.app",
	}, calls[0].args)
	assert.Equal(t, []string{"--verify", "--deep", "--strict", "--verbose=2", "/out/Demo.app"}, calls[1].args)
}

func TestCodesignSigner_DefaultsToAdHoc(t *testing.T) {
	var calls []call
	s := NewCodesignSigner(config.CodesignConfig{}, testLogger())
	s.Run = fakeRunner(&calls, nil)

	require.NoError(t, s.Sign(context.Background(), "/out/Demo.app"))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"--force", "--deep", "--sign", "-", "/out/Demo.app"}, calls[0].args)
}

func TestCodesignSigner_Failures(t *testing.T) {
	var calls []call
	s := NewCodesignSigner(config.CodesignConfig{Verify: true}, testLogger())
	s.Run = fakeRunner(&calls, map[string]error{"--force": errors.New("exit status 1")})

	err := s.Sign(context.Background(), "/out/Demo.app")
	assert.True(t, errors.Is(err, cerrors.ErrSigningFailed))
	assert.Contains(t, err.Error(), "boom")
	assert.Len(t, calls, 1, "no verify after a failed sign")

	s.Args = `--entitlements "unterminated`
	err = s.Sign(context.Background(), "/out/Demo.app")
	assert.True(t, errors.Is(err, cerrors.ErrSigningFailed))
}
