package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/shared"
)

// GormLedgerAccountRepository implements LedgerAccountRepository using GORM
type GormLedgerAccountRepository struct {
	db *gorm.DB
}

// NewGormLedgerAccountRepository creates a new GormLedgerAccountRepository
func NewGormLedgerAccountRepository(db *gorm.DB) *GormLedgerAccountRepository {
	return &GormLedgerAccountRepository{db: db}
}

// FindByCounterparty finds the account for a counterparty and direction
func (r *GormLedgerAccountRepository) FindByCounterparty(ctx context.Context, counterpartyID uuid.UUID, direction finance.Direction) (*finance.LedgerAccount, error) {
	var account finance.LedgerAccount
	if err := r.db.WithContext(ctx).
		Where("counterparty_id = ? AND direction = ?", counterpartyID, direction).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAll lists ledger accounts
func (r *GormLedgerAccountRepository) FindAll(ctx context.Context, filter shared.Filter) ([]finance.LedgerAccount, int64, error) {
	query := r.db.WithContext(ctx).Model(&finance.LedgerAccount{})
	if direction, ok := filter.Filters["direction"]; ok {
		query = query.Where("direction = ?", direction)
	}
	if outstanding, ok := filter.Filters["outstanding_only"]; ok && outstanding == true {
		query = query.Where("total_billed > total_paid")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	orderBy := "created_at"
	if filter.OrderBy != "" {
		orderBy = filter.OrderBy
	}
	orderDir := "DESC"
	if strings.ToLower(filter.OrderDir) == "asc" {
		orderDir = "ASC"
	}

	var accounts []finance.LedgerAccount
	if err := query.Order(orderBy + " " + orderDir).Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}

// Save creates or updates a ledger account. Updates guard on the previous
// version. A lost insert race on the (counterparty_id, direction) unique
// index also surfaces as ErrConcurrentModification so callers can reload
// and retry.
func (r *GormLedgerAccountRepository) Save(ctx context.Context, account *finance.LedgerAccount) error {
	result := r.db.WithContext(ctx).
		Model(account).
		Where("id = ? AND version = ?", account.ID, account.Version-1).
		Updates(map[string]interface{}{
			"total_billed": account.TotalBilled,
			"total_paid":   account.TotalPaid,
			"payment_log":  account.PaymentLog,
			"version":      account.Version,
			"updated_at":   account.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&finance.LedgerAccount{}).
		Where("id = ?", account.ID).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return shared.ErrConcurrentModification
	}

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if isUniqueViolation(err) {
			return shared.ErrConcurrentModification
		}
		return err
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint violation
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ finance.LedgerAccountRepository = (*GormLedgerAccountRepository)(nil)
