package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// maxBodyBytes caps request bodies; every request DTO is a handful of fields.
const maxBodyBytes = 1 << 20

// Validator is implemented by request DTOs that support validation.
// Validate returns a slice of error messages; nil or empty means valid.
type Validator interface {
	Validate() []string
}

// DecodeAndValidate decodes the request body into dest (with DisallowUnknownFields)
// and, if dest implements Validator, runs Validate(). An empty body is accepted
// when allowEmpty is true and leaves dest at its zero value before validation.
// On failure it writes a 400 JSON error and returns false.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dest any, allowEmpty bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if !errors.Is(err, io.EOF) || !allowEmpty {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, decodeMessage(err))
			return false
		}
	}
	if v, ok := dest.(Validator); ok {
		if errs := v.Validate(); len(errs) > 0 {
			WriteJSONError(w, http.StatusBadRequest, ErrCodeBadRequest, strings.Join(errs, "; "))
			return false
		}
	}
	return true
}

func decodeMessage(err error) string {
	if errors.Is(err, io.EOF) {
		return "request body is required"
	}
	return err.Error()
}
