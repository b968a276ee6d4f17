package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/shivfurniture/erp/internal/application/finance"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
	tradeapp "github.com/shivfurniture/erp/internal/application/trade"
	"github.com/shivfurniture/erp/internal/domain/shared"
	"github.com/shivfurniture/erp/internal/domain/trade"
	"github.com/shivfurniture/erp/internal/interfaces/http/middleware"
)

// PortalHandler serves the customer self-service portal. Portal tokens only
// ever see the invoices of their own contact; admin tokens may act on behalf
// of any customer.
type PortalHandler struct {
	BaseHandler
	contacts     *partnerapp.ContactService
	transactions *tradeapp.TransactionService
	payments     *financeapp.PaymentService
	gateway      *financeapp.GatewayService
}

// PortalHandlerConfig holds the services the portal reads from
type PortalHandlerConfig struct {
	Contacts     *partnerapp.ContactService
	Transactions *tradeapp.TransactionService
	Payments     *financeapp.PaymentService
	Gateway      *financeapp.GatewayService
}

// NewPortalHandler creates a new PortalHandler
func NewPortalHandler(cfg PortalHandlerConfig) *PortalHandler {
	return &PortalHandler{
		contacts:     cfg.Contacts,
		transactions: cfg.Transactions,
		payments:     cfg.Payments,
		gateway:      cfg.Gateway,
	}
}

// owner returns the contact the caller is limited to, nil for admins
func (h *PortalHandler) owner(c *gin.Context) (*uuid.UUID, bool) {
	owner, ok := middleware.PortalContactID(c)
	if !ok {
		h.HandleError(c, shared.ErrUnauthorized)
	}
	return owner, ok
}

// Profile godoc
//
//	@Summary	The signed-in customer
//	@Tags		portal
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/portal/me [get]
func (h *PortalHandler) Profile(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	if owner == nil {
		h.BadRequest(c, "admin tokens have no portal profile")
		return
	}
	contact, err := h.contacts.GetByID(c.Request.Context(), *owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// Invoices godoc
//
//	@Summary	Customer invoices of the signed-in customer
//	@Tags		portal
//	@Param		status			query		string	false	"DRAFT, CONFIRMED or CANCELLED"
//	@Param		payment_status	query		string	false	"NOT_PAID, PARTIALLY_PAID or PAID"
//	@Success	200				{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/portal/invoices [get]
func (h *PortalHandler) Invoices(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var filter tradeapp.TransactionListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	filter.Type = string(trade.TransactionTypeCustomerInvoice)
	if owner != nil {
		filter.ContactID = owner
	}
	page, err := h.transactions.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Invoice godoc
//
//	@Summary	One invoice of the signed-in customer
//	@Tags		portal
//	@Param		id	path		string	true	"Invoice ID"
//	@Success	200	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/portal/invoices/{id} [get]
func (h *PortalHandler) Invoice(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	txn, err := h.transactions.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	// another customer's document is reported as missing
	if txn.Type != string(trade.TransactionTypeCustomerInvoice) ||
		(owner != nil && (txn.CustomerID == nil || *txn.CustomerID != *owner)) {
		h.HandleError(c, shared.NewNotFoundError("invoice", id))
		return
	}
	h.Success(c, txn)
}

// Outstanding godoc
//
//	@Summary	Confirmed invoices with an amount still due
//	@Tags		portal
//	@Param		contact_id	query		string	false	"Customer, admin tokens only"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/portal/outstanding [get]
func (h *PortalHandler) Outstanding(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	contactID := owner
	if contactID == nil {
		id, ok := h.queryID(c, "contact_id")
		if !ok {
			return
		}
		contactID = &id
	}
	docs, err := h.payments.GetOutstandingTransactions(c.Request.Context(), *contactID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	invoices := make([]tradeapp.TransactionResponse, 0, len(docs))
	for _, d := range docs {
		if d.Type == string(trade.TransactionTypeCustomerInvoice) {
			invoices = append(invoices, d)
		}
	}
	h.Success(c, invoices)
}

// Pay godoc
//
//	@Summary		Open a gateway order for the amount due on an invoice
//	@Description	The returned order id and key id are handed to the gateway checkout widget.
//	@Tags			portal
//	@Param			id	path		string	true	"Invoice ID"
//	@Success		201	{object}	dto.Response
//	@Failure		422	{object}	dto.Response	"Invoice is not payable"
//	@Failure		502	{object}	dto.Response	"Gateway unavailable"
//	@Security		BearerAuth
//	@Router			/portal/invoices/{id}/pay [post]
func (h *PortalHandler) Pay(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if h.gateway == nil {
		h.HandleError(c, errGatewayDisabled)
		return
	}
	order, err := h.gateway.CreateOrder(c.Request.Context(), id, owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// VerifyPayment godoc
//
//	@Summary		Verify a gateway checkout and record the receipt
//	@Description	Replaying the same gateway payment id returns the payment recorded the first time.
//	@Tags			portal
//	@Accept			json
//	@Param			request	body		financeapp.VerifyPaymentRequest	true	"Checkout callback"
//	@Success		200		{object}	dto.Response
//	@Failure		400		{object}	dto.Response	"Signature mismatch"
//	@Security		BearerAuth
//	@Router			/portal/payments/verify [post]
func (h *PortalHandler) VerifyPayment(c *gin.Context) {
	owner, ok := h.owner(c)
	if !ok {
		return
	}
	var req financeapp.VerifyPaymentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if h.gateway == nil {
		h.HandleError(c, errGatewayDisabled)
		return
	}
	p, err := h.gateway.VerifyAndRecord(c.Request.Context(), req, owner)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}
