package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	apperrors "tripfare/pkg/errors"
)

// QueryInt reads an integer query parameter, applying fallback when absent and clamping to [min, max].
func QueryInt(r *http.Request, name string, fallback, min, max int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	if v < min {
		return 0, apperrors.InvalidInput(name + " must be at least " + strconv.Itoa(min))
	}
	if v > max {
		v = max
	}
	return v, nil
}

// DecodeJSON decodes the request body into dst, rejecting unknown fields and trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return apperrors.InvalidInput("request body is empty")
		}
		return apperrors.InvalidInput("invalid JSON: " + err.Error())
	}
	if dec.More() {
		return apperrors.InvalidInput("request body must contain a single JSON object")
	}
	return nil
}
