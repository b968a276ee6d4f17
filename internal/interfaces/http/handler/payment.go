package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/shivfurniture/erp/internal/application/finance"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

var errGatewayDisabled = shared.NewExternalServiceError("payment gateway is not configured", nil)

// PaymentHandler serves the payment ledger
type PaymentHandler struct {
	BaseHandler
	payments *financeapp.PaymentService
	gateway  *financeapp.GatewayService
}

// NewPaymentHandler creates a new PaymentHandler. gateway may be nil when no
// online gateway is configured, refunds then answer 502.
func NewPaymentHandler(payments *financeapp.PaymentService, gateway *financeapp.GatewayService) *PaymentHandler {
	return &PaymentHandler{payments: payments, gateway: gateway}
}

// List godoc
//
//	@Summary	List payments
//	@Tags		payments
//	@Param		type		query		string	false	"SEND or RECEIVE"
//	@Param		status		query		string	false	"DRAFT, CONFIRMED or VOIDED"
//	@Param		contact_id	query		string	false	"Contact"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var filter financeapp.PaymentListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.payments.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get a payment with its allocations
//	@Tags		payments
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments/{id} [get]
func (h *PaymentHandler) Get(c *gin.Context) {
	h.byID(c, h.payments.GetByID)
}

// Create godoc
//
//	@Summary		Record a DRAFT payment
//	@Description	Allocations must target confirmed bills (SEND) or invoices (RECEIVE) of the same contact and may not exceed their outstanding amounts.
//	@Tags			payments
//	@Accept			json
//	@Param			request	body		financeapp.CreatePaymentRequest	true	"Payment"
//	@Success		201		{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/payments [post]
func (h *PaymentHandler) Create(c *gin.Context) {
	var req financeapp.CreatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.payments.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, p)
}

// Update godoc
//
//	@Summary	Update a DRAFT payment
//	@Tags		payments
//	@Accept		json
//	@Param		id		path		string							true	"Payment ID"
//	@Param		request	body		financeapp.UpdatePaymentRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments/{id} [put]
func (h *PaymentHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req financeapp.UpdatePaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	p, err := h.payments.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Delete godoc
//
//	@Summary	Delete a DRAFT payment
//	@Tags		payments
//	@Param		id	path	string	true	"Payment ID"
//	@Success	204
//	@Security	BearerAuth
//	@Router		/payments/{id} [delete]
func (h *PaymentHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Confirm godoc
//
//	@Summary	Confirm a payment and apply its allocations
//	@Tags		payments
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	h.byID(c, h.payments.Confirm)
}

// Void godoc
//
//	@Summary	Void a confirmed payment and release its allocations
//	@Tags		payments
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments/{id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	h.byID(c, h.payments.Void)
}

// Refund godoc
//
//	@Summary	Refund a gateway receipt through the gateway and void it
//	@Tags		payments
//	@Param		id	path		string	true	"Payment ID"
//	@Success	200	{object}	dto.Response
//	@Failure	502	{object}	dto.Response	"Gateway unavailable"
//	@Security	BearerAuth
//	@Router		/payments/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if h.gateway == nil {
		h.HandleError(c, errGatewayDisabled)
		return
	}
	refund, err := h.gateway.Refund(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, refund)
}

// Outstanding godoc
//
//	@Summary	Confirmed documents of a contact that still have an amount due
//	@Tags		payments
//	@Param		contact_id	query		string	true	"Contact ID"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/payments/outstanding [get]
func (h *PaymentHandler) Outstanding(c *gin.Context) {
	contactID, ok := h.queryID(c, "contact_id")
	if !ok {
		return
	}
	h.outstanding(c, contactID)
}

func (h *PaymentHandler) outstanding(c *gin.Context, contactID uuid.UUID) {
	docs, err := h.payments.GetOutstandingTransactions(c.Request.Context(), contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if docs == nil {
		docs = []tradeapp.TransactionResponse{}
	}
	h.Success(c, docs)
}

func (h *PaymentHandler) byID(c *gin.Context, fn func(context.Context, uuid.UUID) (*financeapp.PaymentResponse, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	p, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
