package sales

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
	"github.com/poscore/backend/internal/domain/shared"
)

// maxCommitRetries bounds how many times an operation is retried after an
// optimistic locking conflict before giving up. Conflicts from other
// processes are rare; in-process contention is already serialized by the
// keyed locks.
const maxCommitRetries = 3

// SaleService commits and cancels sales. A commit is the only path that
// consumes stock and a cancel is the only path that restores it, so all
// inventory movement driven by selling is concentrated here.
type SaleService struct {
	txScope        TransactionScope
	saleRepo       sales.SaleRepository
	allocator      *inventory.FEFOAllocator
	locks          *shared.KeyedMutex
	eventPublisher shared.EventPublisher
}

// NewSaleService creates a new SaleService
func NewSaleService(txScope TransactionScope, saleRepo sales.SaleRepository) *SaleService {
	return &SaleService{
		txScope:   txScope,
		saleRepo:  saleRepo,
		allocator: inventory.NewFEFOAllocator(),
		locks:     shared.NewKeyedMutex(),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

func productKey(productID uuid.UUID) string {
	return "product:" + productID.String()
}

func ledgerKey(counterpartyID uuid.UUID, direction finance.Direction) string {
	return fmt.Sprintf("ledger:%s:%s", counterpartyID, direction)
}

func isConcurrentModification(err error) bool {
	de, ok := shared.AsDomainError(err)
	return ok && de.Code == shared.CodeConcurrentModification
}

// CommitSale allocates stock for every line in expiry order, records the
// sale, and for credit sales bills the counterparty's receivable account.
// The whole commit is atomic: if any line cannot be covered, or the ledger
// update fails, nothing is persisted.
func (s *SaleService) CommitSale(ctx context.Context, req CommitSaleRequest) (*SaleResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A sale requires at least one line")
	}
	paymentMode := sales.PaymentMode(req.PaymentMode)
	if !paymentMode.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Payment mode is not valid")
	}
	if paymentMode == sales.PaymentModeCredit && (req.CounterpartyID == nil || *req.CounterpartyID == uuid.Nil) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "A credit sale requires a counterparty")
	}

	keys := make([]string, 0, len(req.Lines)+1)
	for _, line := range req.Lines {
		keys = append(keys, productKey(line.ProductID))
	}
	if paymentMode == sales.PaymentModeCredit {
		keys = append(keys, ledgerKey(*req.CounterpartyID, finance.DirectionReceivable))
	}
	s.locks.LockAll(keys)
	defer s.locks.UnlockAll(keys)

	var (
		committed *sales.Sale
		lastErr   error
	)
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		sale, events, err := s.commitOnce(ctx, req, paymentMode)
		if err == nil {
			committed = sale
			s.publish(ctx, events)
			break
		}
		lastErr = err
		if !isConcurrentModification(err) {
			return nil, err
		}
	}
	if committed == nil {
		return nil, lastErr
	}

	response := ToSaleResponse(committed)
	return &response, nil
}

// commitOnce runs one transactional commit attempt
func (s *SaleService) commitOnce(
	ctx context.Context,
	req CommitSaleRequest,
	paymentMode sales.PaymentMode,
) (*sales.Sale, []shared.DomainEvent, error) {
	var (
		sale   *sales.Sale
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Load each product's available batches once; lines for the same
		// product draw from the same in-memory view so a later line sees
		// the deductions of an earlier one.
		batchesByProduct := make(map[uuid.UUID][]*inventory.StockBatch)
		loadBatches := func(productID uuid.UUID) ([]*inventory.StockBatch, error) {
			if loaded, ok := batchesByProduct[productID]; ok {
				return loaded, nil
			}
			found, err := repos.BatchRepo().FindAvailable(ctx, productID)
			if err != nil {
				return nil, err
			}
			loaded := make([]*inventory.StockBatch, len(found))
			for i := range found {
				batch := found[i]
				loaded[i] = &batch
			}
			batchesByProduct[productID] = loaded
			return loaded, nil
		}

		type deduction struct {
			batch    *inventory.StockBatch
			quantity inventory.BatchAllocation
		}
		var deductions []deduction

		lines := make([]sales.SaleLine, 0, len(req.Lines))
		for _, lineReq := range req.Lines {
			loaded, err := loadBatches(lineReq.ProductID)
			if err != nil {
				return err
			}

			view := make([]inventory.StockBatch, len(loaded))
			for i, b := range loaded {
				view[i] = *b
			}

			plan, err := s.allocator.Allocate(lineReq.ProductID, view, lineReq.Quantity)
			if err != nil {
				return err
			}

			byID := make(map[uuid.UUID]*inventory.StockBatch, len(loaded))
			for _, b := range loaded {
				byID[b.ID] = b
			}
			for _, alloc := range plan.Allocations {
				batch, ok := byID[alloc.BatchID]
				if !ok {
					return shared.NewDomainError(shared.CodeBatchNotFound,
						fmt.Sprintf("Batch %s disappeared during allocation", alloc.BatchID))
				}
				if err := batch.Deduct(alloc.Quantity); err != nil {
					return err
				}
				deductions = append(deductions, deduction{batch: batch, quantity: alloc})
			}

			lines = append(lines, sales.SaleLine{
				ProductID:         lineReq.ProductID,
				QuantityRequested: lineReq.Quantity,
				UnitPrice:         lineReq.UnitPrice,
				Allocations:       plan.Allocations,
			})
		}

		created, err := sales.NewSale(lines, req.CounterpartyID, paymentMode)
		if err != nil {
			return err
		}

		touched := make([]*inventory.StockBatch, 0, len(deductions))
		seen := make(map[uuid.UUID]bool, len(deductions))
		for _, d := range deductions {
			if !seen[d.batch.ID] {
				seen[d.batch.ID] = true
				touched = append(touched, d.batch)
			}
		}
		if err := repos.BatchRepo().SaveAll(ctx, touched); err != nil {
			return err
		}
		if err := repos.SaleRepo().Save(ctx, created); err != nil {
			return err
		}

		events = append(events, created.GetDomainEvents()...)
		created.ClearDomainEvents()
		for _, d := range deductions {
			events = append(events, inventory.NewStockDeductedEvent(d.batch, created.ID, d.quantity.Quantity))
		}

		if created.IsCredit() {
			account, err := s.billAccount(ctx, repos, *req.CounterpartyID, created)
			if err != nil {
				return err
			}
			events = append(events, account.GetDomainEvents()...)
			account.ClearDomainEvents()
		}

		sale = created
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, events, nil
}

// billAccount records a credit sale's total on the counterparty's receivable
// account, creating the account on first billing.
func (s *SaleService) billAccount(
	ctx context.Context,
	repos TransactionalRepositories,
	counterpartyID uuid.UUID,
	sale *sales.Sale,
) (*finance.LedgerAccount, error) {
	account, err := repos.LedgerRepo().FindByCounterparty(ctx, counterpartyID, finance.DirectionReceivable)
	if err != nil {
		de, ok := shared.AsDomainError(err)
		if !ok || de.Code != shared.CodeNotFound {
			return nil, err
		}
		account, err = finance.NewLedgerAccount(counterpartyID, finance.DirectionReceivable)
		if err != nil {
			return nil, err
		}
	}

	if err := account.Bill(sale.Total()); err != nil {
		return nil, err
	}
	if err := repos.LedgerRepo().Save(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// CancelSale reverses a committed sale: every allocation is restored to the
// exact batch it was drawn from and, for credit sales, the billing is backed
// out of the receivable account. A sale whose billing has already been
// partially paid cannot be canceled until the payments are refunded.
func (s *SaleService) CancelSale(ctx context.Context, saleID uuid.UUID, reason string) (*SaleResponse, error) {
	existing, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if de, ok := shared.AsDomainError(err); ok && de.Code == shared.CodeNotFound {
			return nil, shared.NewDomainError(shared.CodeSaleNotFound,
				fmt.Sprintf("Sale %s not found", saleID))
		}
		return nil, err
	}

	keys := make([]string, 0, len(existing.Lines)+1)
	for _, line := range existing.Lines {
		keys = append(keys, productKey(line.ProductID))
	}
	if existing.IsCredit() {
		keys = append(keys, ledgerKey(*existing.CounterpartyID, finance.DirectionReceivable))
	}
	s.locks.LockAll(keys)
	defer s.locks.UnlockAll(keys)

	var (
		canceled *sales.Sale
		lastErr  error
	)
	for attempt := 0; attempt < maxCommitRetries; attempt++ {
		sale, events, err := s.cancelOnce(ctx, saleID, reason)
		if err == nil {
			canceled = sale
			s.publish(ctx, events)
			break
		}
		lastErr = err
		if !isConcurrentModification(err) {
			return nil, err
		}
	}
	if canceled == nil {
		return nil, lastErr
	}

	response := ToSaleResponse(canceled)
	return &response, nil
}

// cancelOnce runs one transactional cancellation attempt
func (s *SaleService) cancelOnce(ctx context.Context, saleID uuid.UUID, reason string) (*sales.Sale, []shared.DomainEvent, error) {
	var (
		sale   *sales.Sale
		events []shared.DomainEvent
	)

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		// Reload inside the transaction: the sale may have been canceled
		// while this request waited on the locks.
		loaded, err := repos.SaleRepo().FindByID(ctx, saleID)
		if err != nil {
			return err
		}

		if err := loaded.Cancel(reason); err != nil {
			return err
		}

		// Two lines of the same product can hold allocations against the
		// same batch. Load each batch once so every restore lands on the
		// same in-memory copy instead of re-reading the pre-restore row.
		batchesByID := make(map[uuid.UUID]*inventory.StockBatch)
		restored := make([]*inventory.StockBatch, 0)
		for _, line := range loaded.Lines {
			for _, alloc := range line.Allocations {
				batch, ok := batchesByID[alloc.BatchID]
				if !ok {
					found, err := repos.BatchRepo().FindByID(ctx, alloc.BatchID)
					if err != nil {
						if de, ok := shared.AsDomainError(err); ok && de.Code == shared.CodeNotFound {
							return shared.NewDomainError(shared.CodeBatchNotFound,
								fmt.Sprintf("Batch %s from sale %s no longer exists", alloc.BatchID, saleID))
						}
						return err
					}
					batch = found
					batchesByID[alloc.BatchID] = batch
					restored = append(restored, batch)
				}
				if err := batch.Restore(alloc.Quantity); err != nil {
					return err
				}
				events = append(events, inventory.NewStockRestoredEvent(batch, loaded.ID, alloc.Quantity))
			}
		}

		if loaded.IsCredit() {
			account, err := repos.LedgerRepo().FindByCounterparty(ctx, *loaded.CounterpartyID, finance.DirectionReceivable)
			if err != nil {
				return err
			}
			if err := account.ReverseBilling(loaded.Total()); err != nil {
				return err
			}
			if err := repos.LedgerRepo().Save(ctx, account); err != nil {
				return err
			}
			events = append(events, account.GetDomainEvents()...)
			account.ClearDomainEvents()
		}

		if err := repos.BatchRepo().SaveAll(ctx, restored); err != nil {
			return err
		}
		if err := repos.SaleRepo().Save(ctx, loaded); err != nil {
			return err
		}

		events = append(events, loaded.GetDomainEvents()...)
		loaded.ClearDomainEvents()

		sale = loaded
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, events, nil
}

// GetSale retrieves a sale by ID
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		if de, ok := shared.AsDomainError(err); ok && de.Code == shared.CodeNotFound {
			return nil, shared.NewDomainError(shared.CodeSaleNotFound,
				fmt.Sprintf("Sale %s not found", saleID))
		}
		return nil, err
	}

	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales lists sales newest first
func (s *SaleService) ListSales(ctx context.Context, filter SaleListFilter) (*shared.Paginated[SaleResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CounterpartyID != nil {
		domainFilter.Filters["counterparty_id"] = *filter.CounterpartyID
	}

	items, total, err := s.saleRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToSaleResponses(items), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	// Errors are logged by the event bus, not propagated
	_ = s.eventPublisher.Publish(ctx, events...)
}
