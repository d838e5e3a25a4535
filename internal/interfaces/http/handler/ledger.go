package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	financeapp "github.com/poscore/backend/internal/application/finance"
	"github.com/poscore/backend/internal/domain/finance"
)

// LedgerHandler handles receivable/payable ledger API endpoints
type LedgerHandler struct {
	BaseHandler
	ledgerService *financeapp.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledgerService *financeapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

// RegisterRoutes registers ledger routes on the given router group
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger")
	{
		ledger.POST("/billings", h.RecordBilling)
		ledger.POST("/payments", h.ApplyPayment)
		ledger.GET("/accounts", h.ListAccounts)
		ledger.GET("/accounts/:counterpartyId", h.GetAccount)
		ledger.GET("/accounts/:counterpartyId/payments", h.ListPayments)
	}
}

// bindAccountKey extracts the counterparty ID and direction identifying
// one ledger account
func (h *LedgerHandler) bindAccountKey(c *gin.Context) (uuid.UUID, finance.Direction, bool) {
	counterpartyID, err := uuid.Parse(c.Param("counterpartyId"))
	if err != nil {
		h.BadRequest(c, "Invalid counterparty ID")
		return uuid.Nil, "", false
	}

	direction := finance.Direction(c.DefaultQuery("direction", string(finance.DirectionReceivable)))
	if !direction.IsValid() {
		h.BadRequest(c, "Direction must be RECEIVABLE or PAYABLE")
		return uuid.Nil, "", false
	}

	return counterpartyID, direction, true
}

// RecordBilling bills a counterparty's ledger account directly. Supplier
// invoices are recorded here against the PAYABLE direction.
func (h *LedgerHandler) RecordBilling(c *gin.Context) {
	var req financeapp.RecordBillingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	account, err := h.ledgerService.RecordBilling(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, account)
}

// ApplyPayment applies a payment against a counterparty's ledger account
func (h *LedgerHandler) ApplyPayment(c *gin.Context) {
	var req financeapp.ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.ledgerService.ApplyPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// GetAccount returns one ledger account with its derived outstanding balance
func (h *LedgerHandler) GetAccount(c *gin.Context) {
	counterpartyID, direction, ok := h.bindAccountKey(c)
	if !ok {
		return
	}

	account, err := h.ledgerService.GetAccount(c.Request.Context(), counterpartyID, direction)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, account)
}

// ListAccounts lists ledger accounts
func (h *LedgerHandler) ListAccounts(c *gin.Context) {
	var filter financeapp.AccountListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.ledgerService.ListAccounts(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// ListPayments returns the payment log for one ledger account
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	counterpartyID, direction, ok := h.bindAccountKey(c)
	if !ok {
		return
	}

	payments, err := h.ledgerService.ListPayments(c.Request.Context(), counterpartyID, direction)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payments)
}
