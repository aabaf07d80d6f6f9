package billingclient

import (
	"fmt"
)

type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("billing functions error (%d %s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("billing functions error (%d): %s", e.Status, e.Message)
}

// DecodeError wraps a response body that could not be parsed.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "decode billing functions response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
