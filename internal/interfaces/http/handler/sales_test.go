package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	salesapp "github.com/poscore/backend/internal/application/sales"
	"github.com/poscore/backend/internal/domain/shared"
	"github.com/poscore/backend/internal/interfaces/http/dto"
)

type salesTestEnv struct {
	router     *gin.Engine
	batchRepo  *fakeBatchRepo
	saleRepo   *fakeSaleRepo
	ledgerRepo *fakeLedgerRepo
}

func setupSalesRouter() *salesTestEnv {
	gin.SetMode(gin.TestMode)

	batchRepo := newFakeBatchRepo()
	saleRepo := newFakeSaleRepo()
	ledgerRepo := newFakeLedgerRepo()

	txScope := salesapp.NewNoOpTransactionScope(batchRepo, saleRepo, ledgerRepo)
	service := salesapp.NewSaleService(txScope, saleRepo)
	handler := NewSalesHandler(service)

	router := gin.New()
	api := router.Group("/api/v1")
	handler.RegisterRoutes(api)

	return &salesTestEnv{
		router:     router,
		batchRepo:  batchRepo,
		saleRepo:   saleRepo,
		ledgerRepo: ledgerRepo,
	}
}

func (e *salesTestEnv) post(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	e.router.ServeHTTP(w, req)
	return w
}

func commitSaleBody(productID uuid.UUID, quantity string) map[string]any {
	return map[string]any{
		"lines": []map[string]any{
			{"product_id": productID.String(), "quantity": quantity, "unit_price": "500"},
		},
		"payment_mode": "CASH",
	}
}

func TestSalesHandler_CommitSale(t *testing.T) {
	t.Run("commits a sale and deducts stock in expiry order", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		early := seedBatch(t, env.batchRepo, productID, 5, 7)
		late := seedBatch(t, env.batchRepo, productID, 5, 30)

		w := env.post(t, "/api/v1/sales", commitSaleBody(productID, "6"))

		assert.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, "COMPLETED", data["status"])
		assert.Equal(t, "3000", data["total"])

		assert.True(t, env.batchRepo.get(early.ID).QuantityRemaining.IsZero())
		assert.True(t, env.batchRepo.get(early.ID).Archived)
		assert.True(t, env.batchRepo.get(late.ID).QuantityRemaining.Equal(decimal.NewFromInt(4)))
	})

	t.Run("returns 422 when stock is insufficient", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		seedBatch(t, env.batchRepo, productID, 3, 7)

		w := env.post(t, "/api/v1/sales", commitSaleBody(productID, "5"))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeInsufficientStock, resp.Error.Code)
	})

	t.Run("rejects a credit sale without a counterparty", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		seedBatch(t, env.batchRepo, productID, 5, 7)

		body := commitSaleBody(productID, "2")
		body["payment_mode"] = "CREDIT"

		w := env.post(t, "/api/v1/sales", body)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bills the counterparty account on a credit sale", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		counterpartyID := uuid.New()
		seedBatch(t, env.batchRepo, productID, 5, 7)

		body := commitSaleBody(productID, "2")
		body["payment_mode"] = "CREDIT"
		body["counterparty_id"] = counterpartyID.String()

		w := env.post(t, "/api/v1/sales", body)

		assert.Equal(t, http.StatusCreated, w.Code)

		account, err := env.ledgerRepo.FindByCounterparty(context.Background(), counterpartyID, "RECEIVABLE")
		require.NoError(t, err)
		assert.True(t, account.TotalBilled.Equal(decimal.NewFromInt(1000)))
	})
}

func TestSalesHandler_CancelSale(t *testing.T) {
	commit := func(t *testing.T, env *salesTestEnv, productID uuid.UUID) uuid.UUID {
		t.Helper()
		w := env.post(t, "/api/v1/sales", commitSaleBody(productID, "4"))
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		saleID, err := uuid.Parse(resp.Data.(map[string]any)["id"].(string))
		require.NoError(t, err)
		return saleID
	}

	t.Run("cancels a sale and restores its batches", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		batch := seedBatch(t, env.batchRepo, productID, 5, 7)
		saleID := commit(t, env, productID)

		w := env.post(t, "/api/v1/sales/"+saleID.String()+"/cancel",
			map[string]any{"reason": "customer returned goods"})

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "CANCELED", resp.Data.(map[string]any)["status"])
		assert.True(t, env.batchRepo.get(batch.ID).QuantityRemaining.Equal(decimal.NewFromInt(5)))
	})

	t.Run("cancels without a request body", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		batch := seedBatch(t, env.batchRepo, productID, 5, 7)
		saleID := commit(t, env, productID)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sales/"+saleID.String()+"/cancel", nil)
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "CANCELED", resp.Data.(map[string]any)["status"])
		assert.True(t, env.batchRepo.get(batch.ID).QuantityRemaining.Equal(decimal.NewFromInt(5)))
	})

	t.Run("returns 422 when the sale is already canceled", func(t *testing.T) {
		env := setupSalesRouter()
		productID := uuid.New()
		seedBatch(t, env.batchRepo, productID, 5, 7)
		saleID := commit(t, env, productID)

		first := env.post(t, "/api/v1/sales/"+saleID.String()+"/cancel", map[string]any{"reason": "oops"})
		require.Equal(t, http.StatusOK, first.Code)

		second := env.post(t, "/api/v1/sales/"+saleID.String()+"/cancel", map[string]any{"reason": "again"})

		assert.Equal(t, http.StatusUnprocessableEntity, second.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(second.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, shared.CodeSaleAlreadyCanceled, resp.Error.Code)
	})

	t.Run("returns 404 for an unknown sale", func(t *testing.T) {
		env := setupSalesRouter()

		w := env.post(t, "/api/v1/sales/"+uuid.New().String()+"/cancel", map[string]any{"reason": "n/a"})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestSalesHandler_GetSale(t *testing.T) {
	t.Run("returns 404 for an unknown sale", func(t *testing.T) {
		env := setupSalesRouter()

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/"+uuid.New().String(), nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
