package ports

import (
	"context"
	"net/http"
)

// CredentialProvider supplies per-request authentication context.
type CredentialProvider interface {
	// AttachCredentials decorates req, or fails with domain.ErrUnauthenticated when no
	// credentials are available.
	AttachCredentials(ctx context.Context, req *http.Request) error
	Reauthenticate(ctx context.Context) error
}
