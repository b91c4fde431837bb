package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func abortWith(err error) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Abort(c, err)
	return rec
}

func TestAbort_AppError(t *testing.T) {
	rec := abortWith(ErrNotFound.WithMessage("product not found"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "product not found", body["error"])
}

func TestAbort_PlainErrorIsInternal(t *testing.T) {
	rec := abortWith(errors.New("connection reset by peer"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestWrap_DoesNotMutateShared(t *testing.T) {
	cause := errors.New("boom")
	wrapped := ErrConflict.Wrap(cause)

	assert.Nil(t, ErrConflict.Err)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "Conflict: boom", wrapped.Error())
}
