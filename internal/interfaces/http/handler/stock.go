package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/poscore/backend/internal/application/inventory"
	"github.com/poscore/backend/internal/interfaces/http/dto"
)

// StockHandler handles stock batch API endpoints
type StockHandler struct {
	BaseHandler
	stockService *inventoryapp.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stockService *inventoryapp.StockService) *StockHandler {
	return &StockHandler{stockService: stockService}
}

// RegisterRoutes registers stock routes on the given router group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.POST("/batches", h.ReceiveBatch)
		stock.GET("/batches", h.ListBatches)
		stock.GET("/batches/:id", h.GetBatch)
		stock.GET("/expiring", h.ListExpiring)
		stock.GET("/availability/:productId", h.CheckAvailability)
	}
}

// ReceiveBatch records a stock receipt as a new batch
func (h *StockHandler) ReceiveBatch(c *gin.Context) {
	var req inventoryapp.ReceiveBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	batch, err := h.stockService.ReceiveBatch(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// GetBatch returns a single batch by ID
func (h *StockHandler) GetBatch(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}
	batchID := uuid.MustParse(idReq.ID)

	batch, err := h.stockService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// ListBatches lists batches, optionally scoped to a product
func (h *StockHandler) ListBatches(c *gin.Context) {
	var filter inventoryapp.BatchListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.stockService.ListBatches(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListExpiring lists available batches nearing their expiry date
func (h *StockHandler) ListExpiring(c *gin.Context) {
	var filter inventoryapp.ExpiringBatchFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.stockService.ListExpiring(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// CheckAvailability reports the total available quantity for a product
func (h *StockHandler) CheckAvailability(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("productId"))
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	availability, err := h.stockService.CheckAvailability(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, availability)
}
