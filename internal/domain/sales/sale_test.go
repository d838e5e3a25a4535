package sales

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poscore/backend/internal/domain/inventory"
	"github.com/poscore/backend/internal/domain/shared"
)

func fullyAllocatedLine(qty int64, price int64, cost int64) SaleLine {
	return SaleLine{
		ProductID:         uuid.New(),
		QuantityRequested: decimal.NewFromInt(qty),
		UnitPrice:         decimal.NewFromInt(price),
		Allocations: []inventory.BatchAllocation{
			{BatchID: uuid.New(), Quantity: decimal.NewFromInt(qty), UnitCost: decimal.NewFromInt(cost)},
		},
	}
}

func TestNewSale(t *testing.T) {
	t.Run("cash sale without counterparty", func(t *testing.T) {
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(3, 5000, 3000)}, nil, PaymentModeCash)
		require.NoError(t, err)
		assert.Equal(t, SaleStatusCompleted, sale.Status)
		assert.Nil(t, sale.CounterpartyID)
		assert.False(t, sale.IsCredit())
		assert.Equal(t, 1, sale.Version)
	})

	t.Run("credit sale requires a counterparty", func(t *testing.T) {
		_, err := NewSale([]SaleLine{fullyAllocatedLine(3, 5000, 3000)}, nil, PaymentModeCredit)
		require.Error(t, err)

		counterparty := uuid.New()
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(3, 5000, 3000)}, &counterparty, PaymentModeCredit)
		require.NoError(t, err)
		assert.True(t, sale.IsCredit())
	})

	t.Run("rejects empty lines", func(t *testing.T) {
		_, err := NewSale(nil, nil, PaymentModeCash)
		assert.Error(t, err)
	})

	t.Run("rejects unknown payment mode", func(t *testing.T) {
		_, err := NewSale([]SaleLine{fullyAllocatedLine(1, 100, 50)}, nil, PaymentMode("TRANSFER"))
		assert.Error(t, err)
	})

	t.Run("rejects line with partial allocation", func(t *testing.T) {
		line := fullyAllocatedLine(5, 5000, 3000)
		line.Allocations[0].Quantity = decimal.NewFromInt(4)

		_, err := NewSale([]SaleLine{line}, nil, PaymentModeCash)
		domainErr, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, shared.CodeInvalidState, domainErr.Code)
	})

	t.Run("rejects non-positive quantity and price", func(t *testing.T) {
		line := fullyAllocatedLine(1, 100, 50)
		line.QuantityRequested = decimal.Zero
		_, err := NewSale([]SaleLine{line}, nil, PaymentModeCash)
		assert.Error(t, err)

		line = fullyAllocatedLine(1, 100, 50)
		line.UnitPrice = decimal.Zero
		_, err = NewSale([]SaleLine{line}, nil, PaymentModeCash)
		assert.Error(t, err)
	})

	t.Run("emits a completed event", func(t *testing.T) {
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(2, 1500, 900)}, nil, PaymentModeCash)
		require.NoError(t, err)

		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSaleCompleted, events[0].EventType())
	})
}

func TestSaleTotals(t *testing.T) {
	lines := []SaleLine{
		fullyAllocatedLine(3, 5000, 3000), // 15000 revenue, 9000 cost
		fullyAllocatedLine(2, 2000, 1100), // 4000 revenue, 2200 cost
	}
	sale, err := NewSale(lines, nil, PaymentModeCash)
	require.NoError(t, err)

	assert.True(t, sale.Total().Equal(decimal.NewFromInt(19000)))
	assert.True(t, sale.TotalCost().Equal(decimal.NewFromInt(11200)))
}

func TestSaleCancel(t *testing.T) {
	t.Run("transitions to canceled once", func(t *testing.T) {
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(2, 1500, 900)}, nil, PaymentModeCash)
		require.NoError(t, err)

		require.NoError(t, sale.Cancel("customer returned goods"))
		assert.True(t, sale.IsCanceled())
		assert.NotNil(t, sale.CanceledAt)
		assert.Equal(t, "customer returned goods", sale.CancelReason)
		assert.Equal(t, 2, sale.Version)
	})

	t.Run("second cancel fails without mutating", func(t *testing.T) {
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(2, 1500, 900)}, nil, PaymentModeCash)
		require.NoError(t, err)
		require.NoError(t, sale.Cancel("first"))
		firstCanceledAt := *sale.CanceledAt

		err = sale.Cancel("second")
		domainErr, ok := shared.AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, shared.CodeSaleAlreadyCanceled, domainErr.Code)
		assert.Equal(t, "first", sale.CancelReason)
		assert.Equal(t, firstCanceledAt, *sale.CanceledAt)
	})

	t.Run("emits a canceled event", func(t *testing.T) {
		sale, err := NewSale([]SaleLine{fullyAllocatedLine(2, 1500, 900)}, nil, PaymentModeCash)
		require.NoError(t, err)
		sale.ClearDomainEvents()

		require.NoError(t, sale.Cancel("damaged"))
		events := sale.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypeSaleCanceled, events[0].EventType())
	})
}
