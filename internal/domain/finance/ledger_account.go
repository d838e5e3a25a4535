package finance

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Direction distinguishes money owed to us from money we owe
type Direction string

const (
	DirectionReceivable Direction = "RECEIVABLE" // customer owes us
	DirectionPayable    Direction = "PAYABLE"    // we owe a supplier
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionReceivable || d == DirectionPayable
}

// String returns the string representation
func (d Direction) String() string {
	return string(d)
}

// PaymentRecord is one payment applied against a ledger account. Records are
// append-only: corrections are new entries, never edits of existing ones.
type PaymentRecord struct {
	ID     uuid.UUID       `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// PaymentRecords is a slice of PaymentRecord stored as a JSONB column
type PaymentRecords []PaymentRecord

// Value implements driver.Valuer for JSONB storage
func (p PaymentRecords) Value() (driver.Value, error) {
	if p == nil {
		return "[]", nil
	}
	return json.Marshal(p)
}

// Scan implements sql.Scanner for JSONB retrieval
func (p *PaymentRecords) Scan(value interface{}) error {
	if value == nil {
		*p = PaymentRecords{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan PaymentRecords: unsupported type")
	}

	if len(bytes) == 0 {
		*p = PaymentRecords{}
		return nil
	}

	return json.Unmarshal(bytes, p)
}

// TotalAmount sums all payment record amounts
func (p PaymentRecords) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, r := range p {
		total = total.Add(r.Amount)
	}
	return total
}

// LedgerAccount tracks the running balance for one counterparty in one
// direction. Outstanding is always derived from the billed and paid totals
// rather than stored, so it cannot drift from the payment log.
//
// Total paid changes only through ApplyPayment; total billed only through
// Bill and ReverseBilling. Both totals never go below zero and outstanding
// never goes negative.
type LedgerAccount struct {
	shared.BaseAggregateRoot
	CounterpartyID uuid.UUID
	Direction      Direction
	TotalBilled    decimal.Decimal
	TotalPaid      decimal.Decimal
	PaymentLog     PaymentRecords `gorm:"type:jsonb"`
}

// TableName returns the database table name for GORM
func (LedgerAccount) TableName() string {
	return "ledger_accounts"
}

// NewLedgerAccount creates an empty ledger account for a counterparty.
// Accounts are created lazily by the first billing event.
func NewLedgerAccount(counterpartyID uuid.UUID, direction Direction) (*LedgerAccount, error) {
	if counterpartyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Counterparty ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Direction is not valid")
	}

	return &LedgerAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CounterpartyID:    counterpartyID,
		Direction:         direction,
		TotalBilled:       decimal.Zero,
		TotalPaid:         decimal.Zero,
		PaymentLog:        PaymentRecords{},
	}, nil
}

// Outstanding returns the unpaid remainder (billed minus paid)
func (a *LedgerAccount) Outstanding() decimal.Decimal {
	return a.TotalBilled.Sub(a.TotalPaid)
}

// Settled returns true when everything billed has been paid. This is purely
// derived, never a stored flag.
func (a *LedgerAccount) Settled() bool {
	return a.TotalBilled.GreaterThan(decimal.Zero) && a.Outstanding().IsZero()
}

// Bill increases the billed total by a positive amount
func (a *LedgerAccount) Bill(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Billing amount must be positive")
	}

	a.TotalBilled = a.TotalBilled.Add(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewAccountBilledEvent(a, amount))

	return nil
}

// ReverseBilling backs out a previous billing, typically because the credit
// sale behind it was canceled. If payments already received would leave the
// account overpaid, the reversal is refused with REVERSAL_REQUIRES_REFUND
// instead of silently driving outstanding negative; settling that refund is
// a business decision outside this ledger.
func (a *LedgerAccount) ReverseBilling(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidInput, "Reversal amount must be positive")
	}
	if amount.GreaterThan(a.TotalBilled) {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot reverse %s: only %s has been billed", amount.String(), a.TotalBilled.String()))
	}
	if a.TotalBilled.Sub(amount).LessThan(a.TotalPaid) {
		return shared.NewDomainError(shared.CodeReversalRequiresRefund,
			fmt.Sprintf("Reversing %s would leave paid total %s above billed total %s; a refund is required first",
				amount.String(), a.TotalPaid.String(), a.TotalBilled.Sub(amount).String()))
	}

	a.TotalBilled = a.TotalBilled.Sub(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewBillingReversedEvent(a, amount))

	return nil
}

// ApplyPayment appends a payment record and increases the paid total.
// The amount is re-validated here against the current outstanding balance
// regardless of what the caller computed: client-side amounts are untrusted.
func (a *LedgerAccount) ApplyPayment(amount decimal.Decimal, date time.Time, note string) (*PaymentRecord, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment amount must be positive")
	}
	if amount.GreaterThan(a.Outstanding()) {
		return nil, shared.NewDomainError(shared.CodeOverpaymentRejected,
			fmt.Sprintf("Payment %s exceeds outstanding balance %s", amount.String(), a.Outstanding().String()))
	}
	if date.IsZero() {
		date = time.Now()
	}

	record := PaymentRecord{
		ID:     uuid.New(),
		Date:   date,
		Amount: amount,
		Note:   note,
	}
	a.PaymentLog = append(a.PaymentLog, record)
	a.TotalPaid = a.TotalPaid.Add(amount)
	a.UpdatedAt = time.Now()
	a.IncrementVersion()

	a.AddDomainEvent(NewPaymentAppliedEvent(a, &record))

	return &record, nil
}
