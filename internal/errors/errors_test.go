package errors

import (
	"io/fs"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPersistenceFailedClassification(t *testing.T) {
	perm := &os.PathError{Op: "open", Path: "x", Err: os.ErrPermission}
	err := PersistenceFailed("write config", perm)
	assert.True(t, Is(err, ErrPersistence))
	assert.Contains(t, err.Error(), "access denied")

	missing := &os.PathError{Op: "open", Path: "x", Err: fs.ErrNotExist}
	err = PersistenceFailed("write config", missing)
	assert.True(t, Is(err, ErrPersistence))
	assert.Contains(t, err.Error(), "missing directory")

	err = PersistenceFailed("write config", os.ErrClosed)
	assert.True(t, Is(err, ErrPersistence))
	assert.Contains(t, err.Error(), "io failure")
}

func TestPersistenceFailedKeepsCause(t *testing.T) {
	err := PersistenceFailed("write", os.ErrPermission)
	assert.True(t, Is(err, os.ErrPermission))
}

func TestValidationAndNotFoundKinds(t *testing.T) {
	assert.True(t, Is(InvalidArg("username"), ErrValidation))
	assert.True(t, Is(ShardNotFound("foo"), ErrNotFound))
	assert.False(t, Is(ShardNotFound("foo"), ErrValidation))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidArg("x").HTTPStatus())
	assert.Equal(t, http.StatusNotFound, ShardNotFound("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, New("boom").HTTPStatus())
}

func TestErrPreservesTypedError(t *testing.T) {
	orig := InvalidArg("x")
	assert.Same(t, orig, Err(orig))

	wrapped := Err(os.ErrClosed)
	assert.Equal(t, http.StatusInternalServerError, wrapped.HTTPStatus())
}
