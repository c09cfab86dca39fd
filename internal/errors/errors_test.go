package errors

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Error(t *testing.T) {
	assert.Equal(t, "Lead export failed", ErrExportFailed.Error())
	assert.Equal(t, "", New(http.StatusTeapot, "X", "").Error())
}

func TestNewWithDetails(t *testing.T) {
	got := NewWithDetails(http.StatusBadRequest, "INVALID_PARAMETER", "bad", map[string]int{"min_score": 101})
	assert.Equal(t, http.StatusBadRequest, got.StatusCode)
	assert.Equal(t, "INVALID_PARAMETER", got.ErrorCode)
	assert.Equal(t, map[string]int{"min_score": 101}, got.Details)
}

func TestHelperConstructors(t *testing.T) {
	inv := InvalidParameter("min_score", "abc")
	assert.Equal(t, http.StatusBadRequest, inv.StatusCode)
	assert.Contains(t, inv.Message, `"abc"`)
	assert.Equal(t, "min_score", inv.Details)

	req := InvalidRequestWithError(errors.New("unexpected EOF"))
	assert.Equal(t, http.StatusBadRequest, req.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", req.ErrorCode)
	assert.Equal(t, "unexpected EOF", req.Details)

	assert.Equal(t, http.StatusInternalServerError, ErrExportFailed.StatusCode)
	assert.Equal(t, "EXPORT_FAILED", ErrExportFailed.ErrorCode)
}

func TestNewValidationErrors(t *testing.T) {
	errs := []ValidationError{{Field: "min_score", Message: "must be at least 0"}}
	got := NewValidationErrors(errs)
	assert.Equal(t, http.StatusBadRequest, got.StatusCode)
	assert.Equal(t, ValidationErrors{Errors: errs}, got.Details)
}

func TestAPIErrorsIntegrationWithRender(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/data/summary", nil)

	require.NoError(t, render.Render(w, r, NewErrorResponse(InvalidParameter("limit", "0"))))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "INVALID_PARAMETER", resp.Error.ErrorCode)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	pd := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found", "", "/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, float64(http.StatusNotFound), got["status"], "standard fields win over extensions")
	assert.NotContains(t, got, "detail")
	assert.Equal(t, "/x", got["instance"])

	var zero ProblemDetails
	zero.WithExtension("k", 1)
	assert.Equal(t, 1, zero.Extensions["k"])
}
