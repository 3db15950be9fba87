package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// APIError is any answer with status >= 400. Errors is only filled for 422.
type APIError struct {
	Status  int
	Message string
	Errors  ValidationErrors
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

func (e *APIError) IsValidation() bool {
	return e.Status == http.StatusUnprocessableEntity
}

// StatusOf returns the API status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// AsValidation reports whether err is a 422 answer and returns its field errors.
func AsValidation(err error) (ValidationErrors, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsValidation() {
		return apiErr.Errors, true
	}
	return nil, false
}

// MessageOf prefers the API message over the generic error text.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

type errorBody struct {
	Message string           `json:"message"`
	Errors  ValidationErrors `json:"errors"`
}

func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return apiErr
	}
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return apiErr
	}
	apiErr.Message = body.Message
	if resp.StatusCode == http.StatusUnprocessableEntity {
		apiErr.Errors = body.Errors
	}
	return apiErr
}
