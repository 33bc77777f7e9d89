package sessionserver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransport is returned when the identity service could not be reached.
	ErrTransport = errors.New("session server unreachable")

	// ErrAuthentication is returned when the identity service answers with a non-2xx status.
	ErrAuthentication = errors.New("session server rejected request")

	// ErrVerification is returned when hasJoined succeeds at HTTP level but carries no profile id.
	ErrVerification = errors.New("failed to verify username")

	// ErrConfig is returned for invalid client configuration.
	ErrConfig = errors.New("invalid config")
)

// TransportError wraps a network-level failure. It unwraps to both ErrTransport and the cause,
// so errors.Is(err, context.DeadlineExceeded) keeps working.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Op, ErrTransport, e.Err)
}

func (e *TransportError) Unwrap() []error { return []error{ErrTransport, e.Err} }

// AuthenticationError reports a non-success HTTP status from the identity service.
// Upstream and Message are filled when the service sent its JSON error body.
type AuthenticationError struct {
	Op         string
	StatusCode int
	Status     string

	Upstream string
	Message  string
}

func (e *AuthenticationError) Error() string {
	msg := fmt.Sprintf("%s: %v: HTTP Error: %d %s", e.Op, ErrAuthentication, e.StatusCode, e.Status)
	if e.Message != "" {
		msg += " (" + e.Message + ")"
	}
	return strings.TrimSpace(msg)
}

func (e *AuthenticationError) Unwrap() error { return ErrAuthentication }

// VerificationError reports that the identity service did not confirm the username.
type VerificationError struct {
	Op       string
	Username string
	Reason   string
	Err      error
}

func (e *VerificationError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, ErrVerification)
	if e.Username != "" {
		msg += fmt.Sprintf(" %q", e.Username)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *VerificationError) Unwrap() error { return ErrVerification }

// IsTransport reports whether err represents ErrTransport.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// IsAuthentication reports whether err represents ErrAuthentication.
func IsAuthentication(err error) bool { return errors.Is(err, ErrAuthentication) }

// IsVerification reports whether err represents ErrVerification.
func IsVerification(err error) bool { return errors.Is(err, ErrVerification) }

// StatusCode returns the upstream HTTP status carried by an AuthenticationError.
func StatusCode(err error) (int, bool) {
	var ae *AuthenticationError
	if errors.As(err, &ae) {
		return ae.StatusCode, true
	}
	return 0, false
}
