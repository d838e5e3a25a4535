package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/shared"
)

// DefaultExpiryWindowDays is the lookahead used by the expiring-stock report
// when the caller does not specify one.
const DefaultExpiryWindowDays = 30

// StockService handles stock receipt and batch queries. Consumption goes
// through the sales service; this service never deducts.
type StockService struct {
	batchRepo       inventory.StockBatchRepository
	eventPublisher  shared.EventPublisher
	expiryTolerance time.Duration
}

// NewStockService creates a new StockService
func NewStockService(batchRepo inventory.StockBatchRepository, expiryTolerance time.Duration) *StockService {
	return &StockService{
		batchRepo:       batchRepo,
		expiryTolerance: expiryTolerance,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// ReceiveBatch records a new stock receipt as a fresh batch. Receipts are
// never merged into existing batches: each keeps its own cost and expiry.
func (s *StockService) ReceiveBatch(ctx context.Context, req ReceiveBatchRequest) (*BatchResponse, error) {
	batch, err := inventory.NewStockBatch(req.ProductID, req.Quantity, req.UnitCost, req.ExpiryDate, s.expiryTolerance)
	if err != nil {
		return nil, err
	}

	if err := s.batchRepo.Save(ctx, batch); err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, inventory.NewBatchReceivedEvent(batch))
	}

	response := ToBatchResponse(batch)
	return &response, nil
}

// GetBatch retrieves a single batch by ID
func (s *StockService) GetBatch(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}

	response := ToBatchResponse(batch)
	return &response, nil
}

// ListBatches lists batches, optionally restricted to one product or to
// batches that still have stock.
func (s *StockService) ListBatches(ctx context.Context, filter BatchListFilter) (*shared.Paginated[BatchResponse], error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.AvailableOnly {
		domainFilter.Filters["available_only"] = true
	}

	var productID uuid.UUID
	if filter.ProductID != nil {
		productID = *filter.ProductID
	}

	batches, total, err := s.batchRepo.FindByProduct(ctx, productID, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToBatchResponses(batches), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// ListExpiring lists available batches that expire within the filter window
func (s *StockService) ListExpiring(ctx context.Context, filter ExpiringBatchFilter) (*shared.Paginated[BatchResponse], error) {
	withinDays := filter.WithinDays
	if withinDays <= 0 {
		withinDays = DefaultExpiryWindowDays
	}

	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}

	batches, total, err := s.batchRepo.FindExpiring(ctx, withinDays, domainFilter)
	if err != nil {
		return nil, err
	}

	result := shared.NewPaginated(ToBatchResponses(batches), total, domainFilter.Page, domainFilter.PageSize)
	return &result, nil
}

// CheckAvailability reports the total quantity available for a product
func (s *StockService) CheckAvailability(ctx context.Context, productID uuid.UUID) (*StockAvailabilityResponse, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}

	batches, err := s.batchRepo.FindAvailable(ctx, productID)
	if err != nil {
		return nil, err
	}

	return &StockAvailabilityResponse{
		ProductID:         productID,
		AvailableQuantity: inventory.AvailableQuantity(batches),
		BatchCount:        len(batches),
	}, nil
}
