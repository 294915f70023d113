package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docseal/pkg/apperrors"
)

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteErrorBadRequestIncludesDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperrors.New(apperrors.CodeInvalidFormat, "file is not a PDF document"))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "invalid_format", body["error"])
	assert.Equal(t, "file is not a PDF document", body["error_description"])
}

func TestWriteErrorInternalOmitsDescription(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, apperrors.New(apperrors.CodeInternal, "db failed"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "internal", body["error"])
	_, present := body["error_description"]
	assert.False(t, present)
}

func TestWriteErrorUncodedErrorBecomesInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("query failed: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "internal", body["error"])
	_, present := body["error_description"]
	assert.False(t, present)
}

func TestWriteErrorWrappedCodedError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, fmt.Errorf("register: %w", apperrors.New(apperrors.CodeMissingInput, "provide a file")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing_input", decodeBody(t, w)["error"])
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"n": 1})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, w.Body.String())
}
