// Package shared holds the JSON response helpers every handler uses.
package shared

import (
	"encoding/json"
	"net/http"

	dErrors "caseflow/pkg/domain-errors"
)

// ErrorResponse is the wire shape for every error the API returns.
type ErrorResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// WriteError maps a domain error to its HTTP status and writes the coded
// response. Uncoded errors surface as internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := ErrorResponse{
		Code:    string(code),
		Message: err.Error(),
		Details: dErrors.DetailsOf(err),
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}
