package sales

import (
	"context"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
)

// SaleRepository defines persistence operations for sales
type SaleRepository interface {
	// FindByID finds a sale by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)
	// FindAll lists sales, newest first, honoring the filter's status and
	// counterparty_id entries
	FindAll(ctx context.Context, filter shared.Filter) ([]Sale, int64, error)
	// Save creates or updates a sale. Updates use the aggregate version for
	// optimistic locking and must fail with ErrConcurrentModification when
	// the stored version has moved on.
	Save(ctx context.Context, sale *Sale) error
}
