package models

import "fmt"

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// ErrorResponse is the machine-checkable error body returned by handlers
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// NotFoundError indicates a missing car, booking, user or service code
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// ConflictError indicates a uniqueness violation, such as a duplicate service
// code or a duplicate (car, serviceCode) pairing
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// ForbiddenError indicates the actor lacks the capability for the requested
// operation or transition
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	return e.Reason
}

// ValidationError indicates missing or malformed required fields, an inverted
// date range, or an invalid lifecycle transition
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// StaleWriteError indicates the caller's version token no longer matches the
// stored document; the caller should re-fetch and retry
type StaleWriteError struct {
	Resource string
	ID       string
}

func (e *StaleWriteError) Error() string {
	return fmt.Sprintf("%s %q was modified by another request, re-fetch and retry", e.Resource, e.ID)
}
