package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/shared"
)

// maxApplyRetries bounds retries after an optimistic locking conflict
const maxApplyRetries = 3

// LedgerService bills ledger accounts, applies payments against them, and
// answers balance queries. Credit sales bill their receivable account inside
// the sale commit; RecordBilling covers the rest, supplier invoices on the
// payable side in particular.
type LedgerService struct {
	accountRepo    finance.LedgerAccountRepository
	locks          *shared.KeyedMutex
	eventPublisher shared.EventPublisher
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(accountRepo finance.LedgerAccountRepository) *LedgerService {
	return &LedgerService{
		accountRepo: accountRepo,
		locks:       shared.NewKeyedMutex(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func accountKey(counterpartyID uuid.UUID, direction finance.Direction) string {
	return fmt.Sprintf("ledger:%s:%s", counterpartyID, direction)
}

func isConcurrentModification(err error) bool {
	de, ok := shared.AsDomainError(err)
	return ok && de.Code == shared.CodeConcurrentModification
}

// ApplyPayment records a partial or full payment against the counterparty's
// account. The amount is validated against the live outstanding balance, so
// two racing payments can never jointly overpay: the second is re-checked
// against the balance the first one left behind.
func (s *LedgerService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*PaymentAppliedResponse, error) {
	direction := finance.Direction(req.Direction)
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Direction is not valid")
	}
	if req.CounterpartyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Counterparty ID cannot be empty")
	}

	key := accountKey(req.CounterpartyID, direction)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var (
		response *PaymentAppliedResponse
		lastErr  error
	)
	for attempt := 0; attempt < maxApplyRetries; attempt++ {
		account, err := s.accountRepo.FindByCounterparty(ctx, req.CounterpartyID, direction)
		if err != nil {
			return nil, err
		}

		record, err := account.ApplyPayment(req.Amount, req.Date, req.Note)
		if err != nil {
			return nil, err
		}

		if err := s.accountRepo.Save(ctx, account); err != nil {
			lastErr = err
			if isConcurrentModification(err) {
				continue
			}
			return nil, err
		}

		if s.eventPublisher != nil {
			events := account.GetDomainEvents()
			if len(events) > 0 {
				_ = s.eventPublisher.Publish(ctx, events...)
			}
		}
		account.ClearDomainEvents()

		response = &PaymentAppliedResponse{
			Account: ToLedgerAccountResponse(account),
			Payment: ToPaymentRecordResponse(record),
		}
		break
	}
	if response == nil {
		return nil, lastErr
	}
	return response, nil
}

// RecordBilling adds billed debt to the counterparty's account for the given
// direction, creating the account on first billing. This is the only path
// that reaches the payable side: supplier invoices are recorded here and then
// settled through ApplyPayment.
func (s *LedgerService) RecordBilling(ctx context.Context, req RecordBillingRequest) (*LedgerAccountResponse, error) {
	direction := finance.Direction(req.Direction)
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Direction is not valid")
	}
	if req.CounterpartyID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Counterparty ID cannot be empty")
	}

	key := accountKey(req.CounterpartyID, direction)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	var (
		response *LedgerAccountResponse
		lastErr  error
	)
	for attempt := 0; attempt < maxApplyRetries; attempt++ {
		account, err := s.accountRepo.FindByCounterparty(ctx, req.CounterpartyID, direction)
		if err != nil {
			de, ok := shared.AsDomainError(err)
			if !ok || de.Code != shared.CodeNotFound {
				return nil, err
			}
			account, err = finance.NewLedgerAccount(req.CounterpartyID, direction)
			if err != nil {
				return nil, err
			}
		}

		if err := account.Bill(req.Amount); err != nil {
			return nil, err
		}

		if err := s.accountRepo.Save(ctx, account); err != nil {
			lastErr = err
			if isConcurrentModification(err) {
				continue
			}
			return nil, err
		}

		if s.eventPublisher != nil {
			events := account.GetDomainEvents()
			if len(events) > 0 {
				_ = s.eventPublisher.Publish(ctx, events...)
			}
		}
		account.ClearDomainEvents()

		resp := ToLedgerAccountResponse(account)
		response = &resp
		break
	}
	if response == nil {
		return nil, lastErr
	}
	return response, nil
}

// GetAccount retrieves the ledger account for a counterparty and direction
func (s *LedgerService) GetAccount(ctx context.Context, counterpartyID uuid.UUID, direction finance.Direction) (*LedgerAccountResponse, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Direction is not valid")
	}

	account, err := s.accountRepo.FindByCounterparty(ctx, counterpartyID, direction)
	if err != nil {
		return nil, err
	}

	response := ToLedgerAccountResponse(account)
	return &response, nil
}

// ListAccounts lists ledger accounts, optionally restricted to one direction
// or to accounts that still have an outstanding balance
func (s *LedgerService) ListAccounts(ctx context.Context, filter AccountListFilter) (*shared.Paginated[LedgerAccountResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Direction != "" {
		domainFilter.Filters["direction"] = filter.Direction
	}
	if filter.OutstandingOnly {
		domainFilter.Filters["outstanding_only"] = true
	}

	accounts, total, err := s.accountRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToLedgerAccountResponses(accounts), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// ListPayments returns the full payment history of an account, oldest first
func (s *LedgerService) ListPayments(ctx context.Context, counterpartyID uuid.UUID, direction finance.Direction) ([]PaymentRecordResponse, error) {
	if !direction.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Direction is not valid")
	}

	account, err := s.accountRepo.FindByCounterparty(ctx, counterpartyID, direction)
	if err != nil {
		return nil, err
	}

	return ToPaymentRecordResponses(account.PaymentLog), nil
}
