package response

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

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	return c, w
}

func TestList(t *testing.T) {
	c, w := newContext()
	List(c, []string{"a", "b"}, 7)

	var body struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
		Meta    Meta     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, body.Success)
	assert.Equal(t, 7, body.Meta.Total)
}

func TestInternalError_HidesCause(t *testing.T) {
	c, w := newContext()
	InternalError(c, errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	require.Len(t, c.Errors, 1)
}

func TestAbort(t *testing.T) {
	c, w := newContext()
	Abort(c, http.StatusConflict, "NOT_ENOUGH_SPOTS", "Not enough spots available")

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, c.IsAborted())
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_ENOUGH_SPOTS", body.Error.Code)
}
