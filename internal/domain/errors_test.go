package domain

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorClassification(t *testing.T) {
	wrapped := errors.Wrap(ErrOutOfStock, "purchase")
	assert.ErrorIs(t, wrapped, ErrOutOfStock)
	assert.NotErrorIs(t, wrapped, ErrExceedsStock)
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, KindNotFound, KindOf(ErrProductNotFound))
	assert.Equal(t, KindInternal, KindOf(io.ErrUnexpectedEOF))
}

func TestInternalKeepsCause(t *testing.T) {
	err := Internal(io.ErrClosedPipe)
	assert.ErrorIs(t, err, io.ErrClosedPipe)
	assert.Contains(t, err.Error(), io.ErrClosedPipe.Error())
	assert.Same(t, err, AsError(err))
	assert.Nil(t, AsError(nil))
}
