package inventory

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BatchAllocation is one slice of an allocation plan: how much to take from
// a single batch and at what unit cost. The unit cost is captured here so the
// cost-of-goods-sold lineage survives after the batch itself is drained.
type BatchAllocation struct {
	BatchID  uuid.UUID       `json:"batch_id"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// TotalCost returns Quantity * UnitCost for this slice
func (a BatchAllocation) TotalCost() decimal.Decimal {
	return a.Quantity.Mul(a.UnitCost)
}

// AllocationPlan is the read-only result of running the FEFO allocator for
// one product. Nothing is deducted until the caller applies the plan.
type AllocationPlan struct {
	ProductID           uuid.UUID         `json:"product_id"`
	Allocations         []BatchAllocation `json:"allocations"`
	TotalQuantity       decimal.Decimal   `json:"total_quantity"`
	TotalCost           decimal.Decimal   `json:"total_cost"`
	WeightedAverageCost decimal.Decimal   `json:"weighted_average_cost"`
}

// SortFEFO orders batches for consumption: earliest expiry first, ties broken
// by receipt time (oldest receipt wins), then by ID so the order is fully
// deterministic on identical state. Determinism is what makes allocation
// reproducible for audits.
func SortFEFO(batches []StockBatch) []StockBatch {
	sorted := make([]StockBatch, len(batches))
	copy(sorted, batches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].ExpiryDate.Equal(sorted[j].ExpiryDate) {
			return sorted[i].ExpiryDate.Before(sorted[j].ExpiryDate)
		}
		if !sorted[i].ReceivedAt.Equal(sorted[j].ReceivedAt) {
			return sorted[i].ReceivedAt.Before(sorted[j].ReceivedAt)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}

// AvailableQuantity sums the remaining quantity across batches
func AvailableQuantity(batches []StockBatch) decimal.Decimal {
	total := decimal.Zero
	for _, b := range batches {
		if b.HasStock() {
			total = total.Add(b.QuantityRemaining)
		}
	}
	return total
}

// FEFOAllocator selects batches in First-Expired-First-Out order and computes
// how much to take from each. It is a pure computation over batch state.
type FEFOAllocator struct{}

// NewFEFOAllocator creates a new FEFO allocator
func NewFEFOAllocator() *FEFOAllocator {
	return &FEFOAllocator{}
}

// Allocate computes an allocation plan for quantityNeeded units of the
// product across the given batches. The batches are expected to be the
// product's available set; ordering is re-applied here so callers cannot
// accidentally feed an unsorted slice.
//
// If the total available quantity is less than quantityNeeded the call fails
// with INSUFFICIENT_STOCK and no plan is produced; the allocator itself never
// mutates batch state.
func (a *FEFOAllocator) Allocate(
	productID uuid.UUID,
	batches []StockBatch,
	quantityNeeded decimal.Decimal,
) (*AllocationPlan, error) {
	if quantityNeeded.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Requested quantity must be positive")
	}

	available := AvailableQuantity(batches)
	if available.LessThan(quantityNeeded) {
		shortfall := quantityNeeded.Sub(available)
		return nil, shared.NewDomainError(shared.CodeInsufficientStock,
			fmt.Sprintf("Insufficient stock for product %s: requested %s, available %s, short %s",
				productID, quantityNeeded.String(), available.String(), shortfall.String()))
	}

	plan := &AllocationPlan{
		ProductID:   productID,
		Allocations: make([]BatchAllocation, 0, len(batches)),
	}

	remaining := quantityNeeded
	for _, batch := range SortFEFO(batches) {
		if remaining.IsZero() {
			break
		}
		if !batch.HasStock() {
			continue
		}

		take := decimal.Min(remaining, batch.QuantityRemaining)
		plan.Allocations = append(plan.Allocations, BatchAllocation{
			BatchID:  batch.ID,
			Quantity: take,
			UnitCost: batch.UnitCost,
		})
		plan.TotalQuantity = plan.TotalQuantity.Add(take)
		plan.TotalCost = plan.TotalCost.Add(take.Mul(batch.UnitCost))
		remaining = remaining.Sub(take)
	}

	if plan.TotalQuantity.GreaterThan(decimal.Zero) {
		plan.WeightedAverageCost = plan.TotalCost.Div(plan.TotalQuantity).Round(4)
	}

	return plan, nil
}
