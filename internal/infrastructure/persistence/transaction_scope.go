package persistence

import (
	"context"

	"gorm.io/gorm"

	appsales "github.com/poscore/backend/internal/application/sales"
	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
)

// GormTransactionScope implements TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction. All
// repositories handed to fn operate on the same transaction, so a returned
// error rolls back every write made inside it.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appsales.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides repositories bound to a single
// transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) BatchRepo() inventory.StockBatchRepository {
	return NewGormStockBatchRepository(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) LedgerRepo() finance.LedgerAccountRepository {
	return NewGormLedgerAccountRepository(r.tx)
}

var (
	_ appsales.TransactionScope          = (*GormTransactionScope)(nil)
	_ appsales.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
