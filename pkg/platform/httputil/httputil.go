// Package httputil centralizes JSON response writing so every handler emits
// the same envelopes and the same error translation.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	"docseal/pkg/apperrors"
)

// WriteJSON serializes v with the given status. Encoding failures are not
// recoverable mid-response and are swallowed.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates an error into the JSON error envelope. Coded errors
// map to their HTTP status; anything else is an opaque 500. Internal errors
// never expose their message to the client.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		appErr = apperrors.New(apperrors.CodeInternal, "internal error")
	}

	body := map[string]string{"error": string(appErr.Code)}
	if appErr.Code != apperrors.CodeInternal {
		body["error_description"] = appErr.Message
	}
	WriteJSON(w, apperrors.ToHTTPStatus(appErr.Code), body)
}
