//go:build unit || e2e

package httptest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	resdto "parcel-booking/internal/handler/dto/response"
	"parcel-booking/internal/handler/httperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertErrorResponse checks the status and the {"error":{"message":...}} body written by httperr.
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedMsg string) {
	t.Helper()

	assert.Equal(t, expectedStatus, w.Code, "response: %s", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var resp httperr.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "error body: %s", w.Body.String())
	if expectedMsg != "" {
		assert.Contains(t, resp.Error.Message, expectedMsg)
	}
}

// AssertWebhookAck checks that a webhook delivery was acknowledged with 200 and returns the body.
func AssertWebhookAck(t *testing.T, w *httptest.ResponseRecorder) resdto.WebhookResponse {
	t.Helper()

	require.Equal(t, http.StatusOK, w.Code, "webhook must always be acknowledged: %s", w.Body.String())

	var resp resdto.WebhookResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if resp.Success {
		assert.Empty(t, resp.Error)
	} else {
		assert.NotEmpty(t, resp.Error)
	}
	return resp
}
