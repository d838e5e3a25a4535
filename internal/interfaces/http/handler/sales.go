package handler

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	salesapp "github.com/poscore/backend/internal/application/sales"
	"github.com/poscore/backend/internal/interfaces/http/dto"
)

// SalesHandler handles sale API endpoints
type SalesHandler struct {
	BaseHandler
	saleService *salesapp.SaleService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(saleService *salesapp.SaleService) *SalesHandler {
	return &SalesHandler{saleService: saleService}
}

// RegisterRoutes registers sale routes on the given router group
func (h *SalesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sales := rg.Group("/sales")
	{
		sales.POST("", h.CommitSale)
		sales.GET("", h.ListSales)
		sales.GET("/:id", h.GetSale)
		sales.POST("/:id/cancel", h.CancelSale)
	}
}

// CommitSale commits a sale: allocates stock FEFO, records the sale, and
// bills the counterparty's account on credit sales
func (h *SalesHandler) CommitSale(c *gin.Context) {
	var req salesapp.CommitSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.CommitSale(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, sale)
}

// CancelSale cancels a completed sale and restores its batch allocations
func (h *SalesHandler) CancelSale(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}
	saleID := uuid.MustParse(idReq.ID)

	// The reason is optional, so a body-less cancel is fine
	var req salesapp.CancelSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BindingError(c, err)
		return
	}

	sale, err := h.saleService.CancelSale(c.Request.Context(), saleID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// GetSale returns a single sale by ID
func (h *SalesHandler) GetSale(c *gin.Context) {
	var idReq dto.IDRequest
	if err := c.ShouldBindUri(&idReq); err != nil {
		h.BadRequest(c, "Invalid sale ID")
		return
	}
	saleID := uuid.MustParse(idReq.ID)

	sale, err := h.saleService.GetSale(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sale)
}

// ListSales lists sales, newest first
func (h *SalesHandler) ListSales(c *gin.Context) {
	var filter salesapp.SaleListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.saleService.ListSales(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}
