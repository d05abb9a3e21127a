package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrTriggerNotFound     = errors.New("trigger event not found")
	ErrDuplicateTrigger    = errors.New("trigger event already exists")
	ErrTriggerAlreadyBound = errors.New("trigger event already bound to a tab")

	// ErrCancelled marks a request aborted by its session's cancellation token.
	ErrCancelled = errors.New("request cancelled")
)

// Condition strings surfaced to the user.
const (
	MsgEmptyThread        = "IT'S IMPOSSIBLE TO ASK FOLLOW-UPS ON EMPTY TABS"
	MsgUnsupportedContext = "SORRY, WE CANNOT HELP WITH THE SELECTED LANGUAGE CODE SNIPPET"
	MsgDefaultFailure     = "Failed to get response"
)

// TextError is a plain text failure. Its message is shown as-is after
// canonical upper-casing.
type TextError string

func (e TextError) Error() string {
	return string(e)
}

var (
	ErrEmptyThread        = TextError(MsgEmptyThread)
	ErrUnsupportedContext = TextError(MsgUnsupportedContext)
)

// RawResponse is the part of a backend payload carried by a parse failure.
type RawResponse struct {
	Reason *string `json:"reason,omitempty"`
}

// MalformedResponseError reports a backend payload that could not be decoded.
type MalformedResponseError struct {
	Response *RawResponse
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e.Err == nil {
		return "malformed backend response"
	}
	return fmt.Sprintf("malformed backend response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Reason returns the embedded response reason, if any.
func (e *MalformedResponseError) Reason() (string, bool) {
	if e.Response == nil || e.Response.Reason == nil {
		return "", false
	}
	return *e.Response.Reason, true
}

// ParseMalformedResponse builds a MalformedResponseError from a raw body
// shaped like {"$response": {"reason": "..."}}. Bodies without that shape
// yield an error with no embedded response.
func ParseMalformedResponse(body []byte, cause error) *MalformedResponseError {
	var envelope struct {
		Response *RawResponse `json:"$response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return &MalformedResponseError{Err: cause}
	}
	return &MalformedResponseError{Response: envelope.Response, Err: cause}
}

// ServiceError is a structured backend failure.
type ServiceError struct {
	Message    string
	RequestID  string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("backend error (status %d, request %s): %s", e.HTTPStatus, e.RequestID, e.Message)
	}
	return fmt.Sprintf("backend error (status %d): %s", e.HTTPStatus, e.Message)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// HTTPStatusOf returns the backend HTTP status carried by err, or 0.
func HTTPStatusOf(err error) int {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr.HTTPStatus
	}
	return 0
}
