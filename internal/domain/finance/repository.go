package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
)

// LedgerAccountRepository defines persistence operations for ledger accounts.
// The (counterparty, direction) pair is the natural identity; at most one
// account exists per pair.
type LedgerAccountRepository interface {
	// FindByCounterparty finds the account for a counterparty and direction.
	// Returns shared.ErrNotFound when no billing event has created one yet.
	FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, direction Direction) (*LedgerAccount, error)
	// FindAll lists accounts, honoring the filter's direction and
	// outstanding_only entries
	FindAll(ctx context.Context, filter shared.Filter) ([]LedgerAccount, int64, error)
	// Save creates or updates an account. Updates use the aggregate version
	// for optimistic locking and must fail with ErrConcurrentModification
	// when the stored version has moved on.
	Save(ctx context.Context, account *LedgerAccount) error
}
