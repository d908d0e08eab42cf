package elements

import (
	"context"

	"github.com/goliatone/go-cms-inline/internal/domain"
)

// Repository persists content element rows. Implementations never hard delete.
type Repository interface {
	Get(ctx context.Context, ref domain.ElementRef) (*Element, error)
	Create(ctx context.Context, element *Element) (*Element, error)
	Update(ctx context.Context, element *Element) (*Element, error)
	ListByPage(ctx context.Context, pageKey string) ([]*Element, error)
}
