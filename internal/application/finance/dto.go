package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/poscore/backend/internal/domain/finance"
)

// ApplyPaymentRequest represents a payment against a ledger account
type ApplyPaymentRequest struct {
	CounterpartyID uuid.UUID       `json:"counterparty_id" binding:"required"`
	Direction      string          `json:"direction" binding:"required,oneof=RECEIVABLE PAYABLE"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	Date           time.Time       `json:"date"`
	Note           string          `json:"note" binding:"max=500"`
}

// RecordBillingRequest bills a counterparty's account directly: supplier
// invoices land on the PAYABLE side, manual receivable adjustments on the
// RECEIVABLE side. Credit sales bill their receivable account themselves.
type RecordBillingRequest struct {
	CounterpartyID uuid.UUID       `json:"counterparty_id" binding:"required"`
	Direction      string          `json:"direction" binding:"required,oneof=RECEIVABLE PAYABLE"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
}

// PaymentRecordResponse is one payment record in API responses
type PaymentRecordResponse struct {
	ID     uuid.UUID       `json:"id"`
	Date   time.Time       `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note,omitempty"`
}

// LedgerAccountResponse represents a ledger account in API responses
type LedgerAccountResponse struct {
	ID             uuid.UUID       `json:"id"`
	CounterpartyID uuid.UUID       `json:"counterparty_id"`
	Direction      string          `json:"direction"`
	TotalBilled    decimal.Decimal `json:"total_billed"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Settled        bool            `json:"settled"`
	PaymentCount   int             `json:"payment_count"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// PaymentAppliedResponse is returned after a payment is applied
type PaymentAppliedResponse struct {
	Account LedgerAccountResponse `json:"account"`
	Payment PaymentRecordResponse `json:"payment"`
}

// AccountListFilter represents filter options for account listings
type AccountListFilter struct {
	Direction       string `form:"direction" binding:"omitempty,oneof=RECEIVABLE PAYABLE"`
	OutstandingOnly bool   `form:"outstanding_only"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ToPaymentRecordResponse converts a domain payment record
func ToPaymentRecordResponse(record *finance.PaymentRecord) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:     record.ID,
		Date:   record.Date,
		Amount: record.Amount,
		Note:   record.Note,
	}
}

// ToPaymentRecordResponses converts a slice of payment records
func ToPaymentRecordResponses(records finance.PaymentRecords) []PaymentRecordResponse {
	responses := make([]PaymentRecordResponse, len(records))
	for i := range records {
		responses[i] = ToPaymentRecordResponse(&records[i])
	}
	return responses
}

// ToLedgerAccountResponse converts a domain ledger account
func ToLedgerAccountResponse(account *finance.LedgerAccount) LedgerAccountResponse {
	return LedgerAccountResponse{
		ID:             account.ID,
		CounterpartyID: account.CounterpartyID,
		Direction:      account.Direction.String(),
		TotalBilled:    account.TotalBilled,
		TotalPaid:      account.TotalPaid,
		Outstanding:    account.Outstanding(),
		Settled:        account.Settled(),
		PaymentCount:   len(account.PaymentLog),
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
		Version:        account.Version,
	}
}

// ToLedgerAccountResponses converts a slice of ledger accounts
func ToLedgerAccountResponses(accounts []finance.LedgerAccount) []LedgerAccountResponse {
	responses := make([]LedgerAccountResponse, len(accounts))
	for i := range accounts {
		responses[i] = ToLedgerAccountResponse(&accounts[i])
	}
	return responses
}
