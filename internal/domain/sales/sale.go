package sales

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleStatus represents the status of a persisted sale.
//
// A sale only reaches storage once every line has a committed allocation, so
// the transient PENDING/COMMITTING states of the commit sequence never
// appear here: a failed commit persists nothing.
type SaleStatus string

const (
	SaleStatusCompleted SaleStatus = "COMPLETED"
	SaleStatusCanceled  SaleStatus = "CANCELED"
)

// IsValid checks if the status is a valid SaleStatus
func (s SaleStatus) IsValid() bool {
	return s == SaleStatusCompleted || s == SaleStatusCanceled
}

// String returns the string representation
func (s SaleStatus) String() string {
	return string(s)
}

// PaymentMode represents how a sale is settled
type PaymentMode string

const (
	PaymentModeCash   PaymentMode = "CASH"
	PaymentModeCredit PaymentMode = "CREDIT"
)

// IsValid checks if the payment mode is valid
func (m PaymentMode) IsValid() bool {
	return m == PaymentModeCash || m == PaymentModeCredit
}

// String returns the string representation
func (m PaymentMode) String() string {
	return string(m)
}

// SaleLine is one line of a sale: the requested quantity of a product at a
// selling price, together with the batch allocations that fulfilled it. The
// allocations are the permanent cost-of-goods-sold lineage and keep pointing
// at their source batches even after those batches drain.
type SaleLine struct {
	ProductID         uuid.UUID                   `json:"product_id"`
	QuantityRequested decimal.Decimal             `json:"quantity_requested"`
	UnitPrice         decimal.Decimal             `json:"unit_price"`
	Allocations       []inventory.BatchAllocation `json:"allocations"`
}

// LineTotal returns the selling total for this line
func (l SaleLine) LineTotal() decimal.Decimal {
	return l.QuantityRequested.Mul(l.UnitPrice)
}

// CostOfGoods returns the allocated cost total for this line
func (l SaleLine) CostOfGoods() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.Allocations {
		total = total.Add(a.TotalCost())
	}
	return total
}

// AllocatedQuantity returns the quantity covered by allocations
func (l SaleLine) AllocatedQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, a := range l.Allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// SaleLines is a slice of SaleLine stored as a JSONB column
type SaleLines []SaleLine

// Value implements driver.Valuer for JSONB storage
func (l SaleLines) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner for JSONB retrieval
func (l *SaleLines) Scan(value interface{}) error {
	if value == nil {
		*l = SaleLines{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan SaleLines: unsupported type")
	}

	if len(bytes) == 0 {
		*l = SaleLines{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Sale is an immutable record of a committed sale. The only mutation it
// permits after creation is the status transition to CANCELED.
type Sale struct {
	shared.BaseAggregateRoot
	Status         SaleStatus
	PaymentMode    PaymentMode
	CounterpartyID *uuid.UUID
	Lines          SaleLines `gorm:"type:jsonb"`
	CanceledAt     *time.Time
	CancelReason   string
}

// TableName returns the database table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// NewSale creates a completed sale from fully allocated lines.
// Every line must carry allocations summing exactly to its requested
// quantity: a sale is never partially fulfilled.
func NewSale(lines []SaleLine, counterpartyID *uuid.UUID, paymentMode PaymentMode) (*Sale, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A sale requires at least one line")
	}
	if !paymentMode.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment mode is not valid")
	}
	if paymentMode == PaymentModeCredit && (counterpartyID == nil || *counterpartyID == uuid.Nil) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A credit sale requires a counterparty")
	}

	for i, line := range lines {
		if line.ProductID == uuid.Nil {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Line %d has no product", i))
		}
		if line.QuantityRequested.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Line %d quantity must be positive", i))
		}
		if line.UnitPrice.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError(shared.CodeInvalidInput,
				fmt.Sprintf("Line %d unit price must be positive", i))
		}
		if !line.AllocatedQuantity().Equal(line.QuantityRequested) {
			return nil, shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("Line %d allocations cover %s of requested %s",
					i, line.AllocatedQuantity().String(), line.QuantityRequested.String()))
		}
	}

	sale := &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            SaleStatusCompleted,
		PaymentMode:       paymentMode,
		CounterpartyID:    counterpartyID,
		Lines:             lines,
	}

	sale.AddDomainEvent(NewSaleCompletedEvent(sale))

	return sale, nil
}

// Total returns the selling total across all lines
func (s *Sale) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.LineTotal())
	}
	return total
}

// TotalCost returns the cost-of-goods-sold total across all lines
func (s *Sale) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.CostOfGoods())
	}
	return total
}

// IsCredit returns true if the sale was made on credit
func (s *Sale) IsCredit() bool {
	return s.PaymentMode == PaymentModeCredit
}

// IsCanceled returns true if the sale has been canceled
func (s *Sale) IsCanceled() bool {
	return s.Status == SaleStatusCanceled
}

// Cancel marks the sale canceled. A second cancel is a clean error, never a
// double restoration.
func (s *Sale) Cancel(reason string) error {
	if s.Status == SaleStatusCanceled {
		return shared.NewDomainError(shared.CodeSaleAlreadyCanceled,
			fmt.Sprintf("Sale %s is already canceled", s.ID))
	}

	now := time.Now()
	s.Status = SaleStatusCanceled
	s.CanceledAt = &now
	s.CancelReason = reason
	s.UpdatedAt = now
	s.IncrementVersion()

	s.AddDomainEvent(NewSaleCanceledEvent(s, reason))

	return nil
}
