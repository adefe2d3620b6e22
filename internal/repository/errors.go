package repository

import (
	"fmt"
	"strings"
)

const (
	networkErrorMessage = "Network error. Please check your connection."
	unknownErrorMessage = "Unknown error occurred"
)

// NetworkError covers transport failures (StatusCode 0) and non-2xx responses.
type NetworkError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode == 0 {
		return networkErrorMessage
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is a failure the joke API reported itself with error:true.
type APIError struct {
	Message string
	Code    int
	Details []string
}

func (e *APIError) Error() string {
	return e.Message
}

// Detail joins the causes the API listed, if any.
func (e *APIError) Detail() string {
	return strings.Join(e.Details, "; ")
}

// UnrecognizedTypeError means the payload could not be classified as a joke.
// Type is the raw type tag, empty when the body did not decode at all.
type UnrecognizedTypeError struct {
	Type string
	Err  error
}

func (e *UnrecognizedTypeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unrecognized joke payload: %v", e.Err)
	}
	return fmt.Sprintf("unknown joke type: %s", e.Type)
}

func (e *UnrecognizedTypeError) Unwrap() error {
	return e.Err
}
