package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrSecretNotFound  = errors.New("secret not found")

	// ErrUnauthenticated reports missing credentials, or expired credentials that a
	// reauthentication could not renew.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUnreachable reports that no response reached the client.
	ErrUnreachable = errors.New("remote unreachable")
)

// RemoteRejectedError is returned when the server answered with a failure status.
type RemoteRejectedError struct {
	StatusCode int
	Body       []byte
}

func (e *RemoteRejectedError) Error() string {
	body := strings.TrimSpace(string(e.Body))
	if body == "" {
		return fmt.Sprintf("remote rejected request: status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote rejected request: status %d: %s", e.StatusCode, body)
}
