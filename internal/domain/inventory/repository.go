package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
)

// StockBatchRepository defines persistence operations for stock batches.
//
// FindAvailable is the FEFO contract at the storage level: batches with
// remaining quantity, ordered ascending by expiry date and tie-broken by
// receipt time. The allocator re-applies the same ordering in memory, so the
// two can never disagree.
type StockBatchRepository interface {
	// FindByID finds a stock batch by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*StockBatch, error)
	// FindByProduct finds all batches for a product, including drained ones
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) ([]StockBatch, int64, error)
	// FindAvailable finds batches with remaining quantity in FEFO order
	FindAvailable(ctx context.Context, productID uuid.UUID) ([]StockBatch, error)
	// FindExpiring finds available batches expiring within the given number of days
	FindExpiring(ctx context.Context, withinDays int, filter shared.Filter) ([]StockBatch, int64, error)
	// Save creates or updates a stock batch
	Save(ctx context.Context, batch *StockBatch) error
	// SaveAll creates or updates multiple stock batches
	SaveAll(ctx context.Context, batches []*StockBatch) error
}
