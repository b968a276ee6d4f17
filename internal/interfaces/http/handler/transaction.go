package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
)

// TransactionHandler serves purchase orders, vendor bills, sales orders and
// customer invoices
type TransactionHandler struct {
	BaseHandler
	transactions *tradeapp.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactions *tradeapp.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

// List godoc
//
//	@Summary	List trade documents
//	@Tags		transactions
//	@Param		type			query		string	false	"PURCHASE_ORDER, VENDOR_BILL, SALES_ORDER or CUSTOMER_INVOICE"
//	@Param		status			query		string	false	"DRAFT, CONFIRMED or CANCELLED"
//	@Param		payment_status	query		string	false	"NOT_PAID, PARTIALLY_PAID or PAID"
//	@Param		contact_id		query		string	false	"Vendor or customer"
//	@Param		from			query		string	false	"From date (YYYY-MM-DD)"
//	@Param		to				query		string	false	"To date (YYYY-MM-DD)"
//	@Success	200				{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions [get]
func (h *TransactionHandler) List(c *gin.Context) {
	var filter tradeapp.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.transactions.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get a trade document with its lines
//	@Tags		transactions
//	@Param		id	path		string	true	"Transaction ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions/{id} [get]
func (h *TransactionHandler) Get(c *gin.Context) {
	h.byID(c, h.transactions.GetByID)
}

// Children godoc
//
//	@Summary	Documents derived from a document
//	@Tags		transactions
//	@Param		id	path		string	true	"Transaction ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions/{id}/children [get]
func (h *TransactionHandler) Children(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	children, err := h.transactions.ListChildren(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, children)
}

// Create godoc
//
//	@Summary		Create a DRAFT trade document
//	@Description	Lines without an analytical account are auto-assigned from the product's rules.
//	@Tags			transactions
//	@Accept			json
//	@Param			request	body		tradeapp.CreateTransactionRequest	true	"Document"
//	@Success		201		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/transactions [post]
func (h *TransactionHandler) Create(c *gin.Context) {
	var req tradeapp.CreateTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	txn, err := h.transactions.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// Update godoc
//
//	@Summary	Replace a DRAFT document's header and lines
//	@Tags		transactions
//	@Accept		json
//	@Param		id		path		string								true	"Transaction ID"
//	@Param		request	body		tradeapp.UpdateTransactionRequest	true	"Document"
//	@Success	200		{object}	dto.Response
//	@Failure	422		{object}	dto.Response	"Document is not a draft"
//	@Security	BearerAuth
//	@Router		/transactions/{id} [put]
func (h *TransactionHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req tradeapp.UpdateTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	txn, err := h.transactions.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}

// Delete godoc
//
//	@Summary	Delete a DRAFT document
//	@Tags		transactions
//	@Param		id	path	string	true	"Transaction ID"
//	@Success	204
//	@Security	BearerAuth
//	@Router		/transactions/{id} [delete]
func (h *TransactionHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.transactions.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Confirm godoc
//
//	@Summary		Confirm a document
//	@Description	Bills and invoices accrue their line totals into the matching monthly budgets.
//	@Tags			transactions
//	@Param			id	path		string	true	"Transaction ID"
//	@Success		200	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/transactions/{id}/confirm [post]
func (h *TransactionHandler) Confirm(c *gin.Context) {
	h.byID(c, h.transactions.Confirm)
}

// Cancel godoc
//
//	@Summary	Cancel a document
//	@Tags		transactions
//	@Param		id	path		string	true	"Transaction ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions/{id}/cancel [post]
func (h *TransactionHandler) Cancel(c *gin.Context) {
	h.byID(c, h.transactions.Cancel)
}

// Derive godoc
//
//	@Summary	Create a bill from a purchase order or an invoice from a sales order
//	@Tags		transactions
//	@Param		id	path		string	true	"Source transaction ID"
//	@Success	201	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions/{id}/derive [post]
func (h *TransactionHandler) Derive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	txn, err := h.transactions.Derive(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, txn)
}

// RecomputePaymentStatus re-derives paid amount and payment status from the
// confirmed allocations
func (h *TransactionHandler) RecomputePaymentStatus(c *gin.Context) {
	h.byID(c, h.transactions.UpdatePaymentStatus)
}

// BudgetWarnings godoc
//
//	@Summary	Lines that would push a budget past its allocation
//	@Tags		transactions
//	@Param		id	path		string	true	"Transaction ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/transactions/{id}/budget-warnings [get]
func (h *TransactionHandler) BudgetWarnings(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	warnings, err := h.transactions.CheckBudgetWarnings(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if warnings == nil {
		warnings = []tradeapp.BudgetWarning{}
	}
	h.Success(c, warnings)
}

func (h *TransactionHandler) byID(c *gin.Context, fn func(context.Context, uuid.UUID) (*tradeapp.TransactionResponse, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	txn, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, txn)
}
