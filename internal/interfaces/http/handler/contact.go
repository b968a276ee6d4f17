package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	partnerapp "github.com/shivfurniture/erp/internal/application/partner"
)

// ContactHandler serves customers and vendors
type ContactHandler struct {
	BaseHandler
	contacts *partnerapp.ContactService
}

// NewContactHandler creates a new ContactHandler
func NewContactHandler(contacts *partnerapp.ContactService) *ContactHandler {
	return &ContactHandler{contacts: contacts}
}

// List godoc
//
//	@Summary	List contacts
//	@Tags		contacts
//	@Param		type		query		string	false	"CUSTOMER or VENDOR"
//	@Param		search		query		string	false	"Name or email fragment"
//	@Param		active_only	query		bool	false	"Hide deactivated contacts"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts [get]
func (h *ContactHandler) List(c *gin.Context) {
	var filter partnerapp.ContactListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.contacts.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get a contact
//	@Tags		contacts
//	@Param		id	path		string	true	"Contact ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts/{id} [get]
func (h *ContactHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	contact, err := h.contacts.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// Create godoc
//
//	@Summary	Create a contact
//	@Tags		contacts
//	@Accept		json
//	@Param		request	body		partnerapp.CreateContactRequest	true	"Contact"
//	@Success	201		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts [post]
func (h *ContactHandler) Create(c *gin.Context) {
	var req partnerapp.CreateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.contacts.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, contact)
}

// Update godoc
//
//	@Summary	Update a contact
//	@Tags		contacts
//	@Accept		json
//	@Param		id		path		string							true	"Contact ID"
//	@Param		request	body		partnerapp.UpdateContactRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts/{id} [put]
func (h *ContactHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req partnerapp.UpdateContactRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.contacts.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// Deactivate godoc
//
//	@Summary	Deactivate a contact
//	@Tags		contacts
//	@Param		id	path		string	true	"Contact ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts/{id}/deactivate [post]
func (h *ContactHandler) Deactivate(c *gin.Context) {
	h.transition(c, h.contacts.Deactivate)
}

// Activate godoc
//
//	@Summary	Reactivate a contact
//	@Tags		contacts
//	@Param		id	path		string	true	"Contact ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts/{id}/activate [post]
func (h *ContactHandler) Activate(c *gin.Context) {
	h.transition(c, h.contacts.Activate)
}

// EnablePortal godoc
//
//	@Summary	Grant a customer portal access
//	@Tags		contacts
//	@Accept		json
//	@Param		id		path		string							true	"Contact ID"
//	@Param		request	body		partnerapp.EnablePortalRequest	true	"Initial password"
//	@Success	200		{object}	dto.Response
//	@Failure	422		{object}	dto.Response	"Vendors have no portal"
//	@Security	BearerAuth
//	@Router		/contacts/{id}/portal [post]
func (h *ContactHandler) EnablePortal(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req partnerapp.EnablePortalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	contact, err := h.contacts.EnablePortal(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}

// DisablePortal godoc
//
//	@Summary	Revoke portal access
//	@Tags		contacts
//	@Param		id	path		string	true	"Contact ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/contacts/{id}/portal [delete]
func (h *ContactHandler) DisablePortal(c *gin.Context) {
	h.transition(c, h.contacts.DisablePortal)
}

func (h *ContactHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID) (*partnerapp.ContactResponse, error)) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	contact, err := fn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, contact)
}
