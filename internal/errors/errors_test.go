package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
	}{
		{ConfigError("bad path %s", "/x"), KindConfig},
		{NotFound("/missing"), KindNotFound},
		{IOError(fs.ErrPermission, "reading %s", "/f"), KindIO},
		{ValidationError("not a file"), KindValidation},
	}

	for _, tt := range tests {
		assert.True(t, IsKind(tt.err, tt.kind))
		assert.False(t, IsKind(tt.err, Kind("OTHER")))
	}
}

func TestUnwrap(t *testing.T) {
	err := IOError(fs.ErrPermission, "reading %s", "/f")
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), "/f")
	assert.Contains(t, err.Error(), fs.ErrPermission.Error())
}

func TestIsKindThroughWrapping(t *testing.T) {
	inner := NotFound("/gone")
	wrapped := fmt.Errorf("comparing files: %w", inner)

	require.Error(t, wrapped)
	assert.True(t, IsKind(wrapped, KindNotFound))
	assert.False(t, IsKind(stderrors.New("plain"), KindNotFound))
}
