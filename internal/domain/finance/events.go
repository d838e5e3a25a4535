package finance

import (
	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the finance domain
const (
	EventTypeAccountBilled   = "finance.account_billed"
	EventTypeBillingReversed = "finance.billing_reversed"
	EventTypePaymentApplied  = "finance.payment_applied"
)

// AccountBilledEvent is emitted when an account's billed total increases
type AccountBilledEvent struct {
	shared.BaseDomainEvent
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// NewAccountBilledEvent creates an AccountBilledEvent
func NewAccountBilledEvent(account *LedgerAccount, amount decimal.Decimal) *AccountBilledEvent {
	return &AccountBilledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAccountBilled, account.ID, "LedgerAccount"),
		CounterpartyID:  account.CounterpartyID,
		Direction:       account.Direction,
		Amount:          amount,
		Outstanding:     account.Outstanding(),
	}
}

// BillingReversedEvent is emitted when a billing is backed out
type BillingReversedEvent struct {
	shared.BaseDomainEvent
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	Direction      Direction       `json:"direction"`
	Amount         decimal.Decimal `json:"amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
}

// NewBillingReversedEvent creates a BillingReversedEvent
func NewBillingReversedEvent(account *LedgerAccount, amount decimal.Decimal) *BillingReversedEvent {
	return &BillingReversedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBillingReversed, account.ID, "LedgerAccount"),
		CounterpartyID:  account.CounterpartyID,
		Direction:       account.Direction,
		Amount:          amount,
		Outstanding:     account.Outstanding(),
	}
}

// PaymentAppliedEvent is emitted when a payment record is appended
type PaymentAppliedEvent struct {
	shared.BaseDomainEvent
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	Direction      Direction       `json:"direction"`
	PaymentID      uuid.UUID       `json:"payment_id"`
	Amount         decimal.Decimal `json:"amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Settled        bool            `json:"settled"`
}

// NewPaymentAppliedEvent creates a PaymentAppliedEvent
func NewPaymentAppliedEvent(account *LedgerAccount, record *PaymentRecord) *PaymentAppliedEvent {
	return &PaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentApplied, account.ID, "LedgerAccount"),
		CounterpartyID:  account.CounterpartyID,
		Direction:       account.Direction,
		PaymentID:       record.ID,
		Amount:          record.Amount,
		Outstanding:     account.Outstanding(),
		Settled:         account.Settled(),
	}
}
