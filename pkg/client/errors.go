package client

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrRetryExhausted wraps the last transport error once MaxAttempts is spent.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when ctx ends between attempts.
	ErrContextCancelled = errors.New("context cancelled")
)

// WMSError describes a failed WMS request. StatusCode is 0 when no
// response was received.
type WMSError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

func (e *WMSError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "wms %s failure", e.ErrorClass)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " [HTTP %d]", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *WMSError) Unwrap() error {
	return e.Err
}

// IsTransport reports whether the request never produced a usable response.
func (e *WMSError) IsTransport() bool {
	return e.ErrorClass == ErrorClassNetwork || e.ErrorClass == ErrorClassDecode
}

// Retryable reports whether another attempt may succeed. Only failures to
// reach the server qualify; every answered request is final.
func (c ErrorClass) Retryable() bool {
	return c == ErrorClassNetwork
}

// classifyError returns the class carried by a *WMSError in err's chain,
// or "" for anything else.
func classifyError(err error) ErrorClass {
	var wmsErr *WMSError
	if errors.As(err, &wmsErr) {
		return wmsErr.ErrorClass
	}
	return ""
}
