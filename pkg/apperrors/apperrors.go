// Package apperrors defines coded application errors and their HTTP mapping.
// Services return these for caller mistakes; the transport layer translates
// codes into status lines without inspecting error strings.
package apperrors

import "net/http"

// Code classifies an application error.
type Code string

const (
	CodeInvalidFormat Code = "invalid_format"
	CodeMissingInput  Code = "missing_input"
	CodeNotFound      Code = "not_found"
	CodeInternal      Code = "internal"
)

// Error carries a machine code and a human message.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return string(e.Code) + ": " + e.Message
}

// New builds a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// ToHTTPStatus maps an error code to an HTTP status. Unknown codes degrade to
// 500 so a missing mapping never leaks a 200.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidFormat, CodeMissingInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
