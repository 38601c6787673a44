package ports

import (
	"context"

	"github.com/bnema/guac-console/internal/domain"
)

type Requester interface {
	Request(ctx context.Context, descriptor domain.RequestDescriptor) (domain.Response, error)
}
