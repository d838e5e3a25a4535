package sales

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/poscore/backend/internal/domain/finance"
	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/sales"
	"github.com/poscore/backend/internal/domain/shared"
)

// In-memory repositories backing the NoOp transaction scope in tests. They
// store copies, so service-side mutations only become visible through Save,
// the same contract the database repositories give.

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]inventory.StockBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]inventory.StockBatch)}
}

func (r *fakeBatchRepo) seed(batch *inventory.StockBatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = *batch
}

func (r *fakeBatchRepo) get(id uuid.UUID) inventory.StockBatch {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.batches[id]
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &batch, nil
}

func (r *fakeBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID, _ shared.Filter) ([]inventory.StockBatch, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockBatch
	for _, b := range r.batches {
		if productID == uuid.Nil || b.ProductID == productID {
			out = append(out, b)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeBatchRepo) FindAvailable(_ context.Context, productID uuid.UUID) ([]inventory.StockBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []inventory.StockBatch
	for _, b := range r.batches {
		if b.ProductID == productID && !b.Archived && b.HasStock() {
			out = append(out, b)
		}
	}
	return inventory.SortFEFO(out), nil
}

func (r *fakeBatchRepo) FindExpiring(_ context.Context, _ int, _ shared.Filter) ([]inventory.StockBatch, int64, error) {
	return nil, 0, nil
}

func (r *fakeBatchRepo) Save(_ context.Context, batch *inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(batch)
}

func (r *fakeBatchRepo) SaveAll(_ context.Context, batches []*inventory.StockBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range batches {
		if err := r.saveLocked(b); err != nil {
			return err
		}
	}
	return nil
}

// saveLocked mimics the database repository's version guard: updates must
// carry the stored version and advance it on success.
func (r *fakeBatchRepo) saveLocked(batch *inventory.StockBatch) error {
	if stored, ok := r.batches[batch.ID]; ok {
		if stored.Version != batch.Version {
			return shared.ErrConcurrentModification
		}
		batch.Version++
	}
	r.batches[batch.ID] = *batch
	return nil
}

type fakeSaleRepo struct {
	mu    sync.Mutex
	sales map[uuid.UUID]sales.Sale
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{sales: make(map[uuid.UUID]sales.Sale)}
}

func (r *fakeSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*sales.Sale, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sale, ok := r.sales[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &sale, nil
}

func (r *fakeSaleRepo) FindAll(_ context.Context, filter shared.Filter) ([]sales.Sale, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []sales.Sale
	for _, s := range r.sales {
		if status, ok := filter.Filters["status"]; ok && s.Status.String() != status {
			continue
		}
		out = append(out, s)
	}
	return out, int64(len(out)), nil
}

func (r *fakeSaleRepo) Save(_ context.Context, sale *sales.Sale) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.sales[sale.ID]; ok && sale.Version <= stored.Version {
		return shared.ErrConcurrentModification
	}
	r.sales[sale.ID] = *sale
	return nil
}

type ledgerEntry struct {
	counterpartyID uuid.UUID
	direction      finance.Direction
}

type fakeLedgerRepo struct {
	mu       sync.Mutex
	accounts map[ledgerEntry]finance.LedgerAccount
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{accounts: make(map[ledgerEntry]finance.LedgerAccount)}
}

func (r *fakeLedgerRepo) seed(account *finance.LedgerAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts[ledgerEntry{account.CounterpartyID, account.Direction}] = *account
}

func (r *fakeLedgerRepo) FindByCounterparty(_ context.Context, counterpartyID uuid.UUID, direction finance.Direction) (*finance.LedgerAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[ledgerEntry{counterpartyID, direction}]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &account, nil
}

func (r *fakeLedgerRepo) FindAll(_ context.Context, _ shared.Filter) ([]finance.LedgerAccount, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []finance.LedgerAccount
	for _, a := range r.accounts {
		out = append(out, a)
	}
	return out, int64(len(out)), nil
}

func (r *fakeLedgerRepo) Save(_ context.Context, account *finance.LedgerAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := ledgerEntry{account.CounterpartyID, account.Direction}
	if stored, ok := r.accounts[key]; ok && account.Version <= stored.Version {
		return shared.ErrConcurrentModification
	}
	r.accounts[key] = *account
	return nil
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}
