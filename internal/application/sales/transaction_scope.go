package sales

import (
	"context"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
)

// TransactionScope provides transactional access to the repositories a sale
// commit touches. When a function is executed within a transaction scope, all
// repository operations are part of the same database transaction and commit
// or roll back atomically.
//
// This is the atomicity boundary for a sale: batch deductions, the sale row
// and the ledger billing either all land or none do.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type TransactionalRepositories interface {
	// BatchRepo returns the stock batch repository scoped to the current transaction
	BatchRepo() inventory.StockBatchRepository
	// SaleRepo returns the sale repository scoped to the current transaction
	SaleRepo() sales.SaleRepository
	// LedgerRepo returns the ledger account repository scoped to the current transaction
	LedgerRepo() finance.LedgerAccountRepository
}

// NoOpTransactionScope runs the function against the given repositories
// without a real transaction. Useful for tests with in-memory repositories.
type NoOpTransactionScope struct {
	batchRepo  inventory.StockBatchRepository
	saleRepo   sales.SaleRepository
	ledgerRepo finance.LedgerAccountRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories
func NewNoOpTransactionScope(
	batchRepo inventory.StockBatchRepository,
	saleRepo sales.SaleRepository,
	ledgerRepo finance.LedgerAccountRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		batchRepo:  batchRepo,
		saleRepo:   saleRepo,
		ledgerRepo: ledgerRepo,
	}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

// BatchRepo returns the stock batch repository
func (s *NoOpTransactionScope) BatchRepo() inventory.StockBatchRepository {
	return s.batchRepo
}

// SaleRepo returns the sale repository
func (s *NoOpTransactionScope) SaleRepo() sales.SaleRepository {
	return s.saleRepo
}

// LedgerRepo returns the ledger account repository
func (s *NoOpTransactionScope) LedgerRepo() finance.LedgerAccountRepository {
	return s.ledgerRepo
}

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
