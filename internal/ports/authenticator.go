package ports

import (
	"context"

	"github.com/bnema/guac-console/internal/domain"
)

type Authenticator interface {
	Login(ctx context.Context, username, password, dataSource string) (domain.Session, error)
	Logout(ctx context.Context, token string) error
}
