package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Error is a provider call failure. Retryable distinguishes transient faults
// (5xx, network) from provider rejections (4xx). Unknown marks calls whose
// outcome could not be determined (timeouts, connection drops after send):
// callers must re-poll rather than treat the operation as failed, because the
// provider may have processed it.
type Error struct {
	Status    int
	Message   string
	Retryable bool
	Unknown   bool
	Err       error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("gateway error: status %d: %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("gateway error: %s: %v", e.Message, e.Err)
	}
	return "gateway error: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a gateway error worth retrying.
func IsRetryable(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Retryable
	}
	return false
}

// OutcomeUnknown reports whether the call's effect on the provider side is
// undetermined.
func OutcomeUnknown(err error) bool {
	var gerr *Error
	if errors.As(err, &gerr) {
		return gerr.Unknown
	}
	return false
}

// providerMessage pulls a human-readable message out of a provider error
// body. The two providers use different envelope field names.
func providerMessage(body []byte) string {
	var envelope struct {
		Message         string `json:"message"`
		ResponseMessage string `json:"responseMessage"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.ResponseMessage != "" {
			return envelope.ResponseMessage
		}
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return string(body)
}
