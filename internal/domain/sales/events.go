package sales

import (
	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the sales domain
const (
	EventTypeSaleCompleted = "sales.sale_completed"
	EventTypeSaleCanceled  = "sales.sale_canceled"
)

// SaleCompletedEvent is emitted when a sale commits
type SaleCompletedEvent struct {
	shared.BaseDomainEvent
	PaymentMode    PaymentMode     `json:"payment_mode"`
	CounterpartyID *uuid.UUID      `json:"counterparty_id,omitempty"`
	LineCount      int             `json:"line_count"`
	Total          decimal.Decimal `json:"total"`
	TotalCost      decimal.Decimal `json:"total_cost"`
}

// NewSaleCompletedEvent creates a SaleCompletedEvent
func NewSaleCompletedEvent(sale *Sale) *SaleCompletedEvent {
	return &SaleCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCompleted, sale.ID, "Sale"),
		PaymentMode:     sale.PaymentMode,
		CounterpartyID:  sale.CounterpartyID,
		LineCount:       len(sale.Lines),
		Total:           sale.Total(),
		TotalCost:       sale.TotalCost(),
	}
}

// SaleCanceledEvent is emitted when a sale is reversed
type SaleCanceledEvent struct {
	shared.BaseDomainEvent
	PaymentMode PaymentMode     `json:"payment_mode"`
	Total       decimal.Decimal `json:"total"`
	Reason      string          `json:"reason,omitempty"`
}

// NewSaleCanceledEvent creates a SaleCanceledEvent
func NewSaleCanceledEvent(sale *Sale, reason string) *SaleCanceledEvent {
	return &SaleCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCanceled, sale.ID, "Sale"),
		PaymentMode:     sale.PaymentMode,
		Total:           sale.Total(),
		Reason:          reason,
	}
}
