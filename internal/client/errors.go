package client

import (
	"errors"
	"fmt"
)

// AuthError is a failed sign-in, sign-up or session refresh. Its message is
// the backend's, unchanged.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// StoreError is a failed document store call.
type StoreError struct {
	Op  string
	ID  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Detail is the error with the operation spelled out, for logs.
func (e *StoreError) Detail() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrWrongAccount = errors.New("records belong to a different account than the signed-in one")
)

// Code extracts the backend error code from err, or "".
func Code(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return ""
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
