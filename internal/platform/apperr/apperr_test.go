package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func respond(t *testing.T, err error) (*httptest.ResponseRecorder, HTTPError) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	Respond(c, err)

	var body HTTPError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestRespondWithHTTPError(t *testing.T) {
	w, body := respond(t, BadRequest("Password is too short."))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "BAD_REQUEST", body.Code)
	assert.Equal(t, "Password is too short.", body.Message)
}

func TestRespondUnwrapsWrappedHTTPError(t *testing.T) {
	err := fmt.Errorf("context: %w", NotFound("no deck"))
	w, body := respond(t, err)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestRespondHidesInternalErrors(t *testing.T) {
	w, body := respond(t, errors.New("sql: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", body.Message)
}
