package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrAuthenticationFailed matches every token acquisition failure.
var ErrAuthenticationFailed = errors.New("authentication failed")

var errMissingAccessToken = errors.New("access_token absent or not a string")

// Kind classifies why a token could not be obtained.
type Kind string

const (
	KindMissingCredentials Kind = "missing_credentials"
	KindTimeout            Kind = "timeout"
	KindDNS                Kind = "dns"
	KindTransport          Kind = "transport"
	KindStatus             Kind = "status"
	KindMalformed          Kind = "malformed"
)

// AuthError is a token acquisition failure with its reason preserved.
type AuthError struct {
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	switch {
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: token endpoint returned status %d", ErrAuthenticationFailed, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s (%s): %v", ErrAuthenticationFailed, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s (%s)", ErrAuthenticationFailed, e.Kind)
	}
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Is makes every AuthError match ErrAuthenticationFailed.
func (e *AuthError) Is(target error) bool {
	return target == ErrAuthenticationFailed
}

// kindOf classifies a transport-level error.
func kindOf(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindTransport
}
