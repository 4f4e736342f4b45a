package common

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

func TestHandleError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		err     error
		status  int
		message string
		details []string
	}{
		{"not found", NewNotFoundError("recipient", "u9"), http.StatusNotFound, "recipient with id 'u9' not found", nil},
		{"validation", NewValidationError("Invalid request data: x", "x"), http.StatusBadRequest, "Invalid request data: x", []string{"x"}},
		{"unauthorized", NewUnauthorizedError(""), http.StatusUnauthorized, "unauthorized", nil},
		{"wrapped dispatch", fmt.Errorf("sending: %w", NewDispatchError("audit write", errors.New("disk full"))), http.StatusInternalServerError, "Notification processing failed", nil},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal server error", nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			HandleError(c, tc.err)

			require.Equal(t, tc.status, w.Code)

			var resp APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tc.message, resp.Message)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tc.status, resp.Error.Code)
			assert.Equal(t, tc.details, resp.Error.Details)
		})
	}
}

func TestDispatchError_Unwrap(t *testing.T) {
	cause := errors.New("directory offline")
	err := NewDispatchError("directory lookup", cause)

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "dispatch directory lookup: directory offline", err.Error())
}
