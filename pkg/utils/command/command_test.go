package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	cerrors "github.com/provide-io/condapp/pkg/errors"
)

func TestExec_MissingTool(t *testing.T) {
	_, err := Exec(context.Background(), "condapp-no-such-tool-xyz")
	assert.True(t, errors.Is(err, cerrors.ErrToolNotFound))
}

func TestFailure(t *testing.T) {
	err := errors.New("exit status 1")
	assert.Equal(t, "exit status 1", Failure(err, []byte("  \n")))
	assert.Equal(t, "exit status 1: bad identity", Failure(err, []byte("bad identity\n")))
}
