package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// maxBodyBytes fits several base64 encoded photos.
const maxBodyBytes = 32 << 20

type errorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

// validationError is a client mistake that maps to 400.
type validationError struct {
	msg     string
	details []FieldError
}

func (e *validationError) Error() string {
	if len(e.details) == 0 {
		return e.msg
	}
	return fmt.Sprintf("%s: %s %s", e.msg, e.details[0].Field, e.details[0].Message)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; a failed encode only means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.msg, Details: ve.details})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// readBody reads and schema-checks a JSON request body. The raw bytes are
// returned for typed decoding.
func readBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, &validationError{msg: "request body too large or unreadable"}
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, &validationError{msg: "request body is not valid JSON"}
	}
	if schema != nil {
		if err := schema.Validate(doc); err != nil {
			return nil, &validationError{msg: "invalid request", details: validationDetails(err)}
		}
	}
	return body, nil
}
