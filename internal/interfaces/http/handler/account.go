package handler

import (
	"github.com/gin-gonic/gin"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
)

// AccountHandler serves the analytical account registry
type AccountHandler struct {
	BaseHandler
	registry *accountingapp.RegistryService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(registry *accountingapp.RegistryService) *AccountHandler {
	return &AccountHandler{registry: registry}
}

// List godoc
//
//	@Summary	List analytical accounts
//	@Tags		analytical-accounts
//	@Produce	json
//	@Param		lifecycle	query		string	false	"active (default), archived or all"
//	@Param		parent_id	query		string	false	"Direct children of this account"
//	@Param		root_only	query		bool	false	"Only accounts without a parent"
//	@Param		search		query		string	false	"Code or name fragment"
//	@Param		page		query		int		false	"Page number"
//	@Param		page_size	query		int		false	"Page size"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/analytical-accounts [get]
func (h *AccountHandler) List(c *gin.Context) {
	var filter accountingapp.AccountListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.registry.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Tree godoc
//
//	@Summary	Account hierarchy
//	@Tags		analytical-accounts
//	@Produce	json
//	@Param		lifecycle	query		string	false	"active (default), archived or all"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/analytical-accounts/tree [get]
func (h *AccountHandler) Tree(c *gin.Context) {
	tree, err := h.registry.GetTree(c.Request.Context(), c.Query("lifecycle"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tree)
}

// Get godoc
//
//	@Summary	Account with its parent and recent budgets
//	@Tags		analytical-accounts
//	@Produce	json
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	dto.Response
//	@Failure	404	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/analytical-accounts/{id} [get]
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	account, err := h.registry.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Create godoc
//
//	@Summary	Create an analytical account
//	@Tags		analytical-accounts
//	@Accept		json
//	@Produce	json
//	@Param		request	body		accountingapp.CreateAccountRequest	true	"Account"
//	@Success	201		{object}	dto.Response
//	@Failure	409		{object}	dto.Response	"Code already in use"
//	@Security	BearerAuth
//	@Router		/analytical-accounts [post]
func (h *AccountHandler) Create(c *gin.Context) {
	var req accountingapp.CreateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.registry.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, account)
}

// Update godoc
//
//	@Summary	Update an analytical account
//	@Tags		analytical-accounts
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string								true	"Account ID"
//	@Param		request	body		accountingapp.UpdateAccountRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/analytical-accounts/{id} [put]
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req accountingapp.UpdateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}
	account, err := h.registry.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// Archive godoc
//
//	@Summary	Archive an analytical account
//	@Tags		analytical-accounts
//	@Param		id	path	string	true	"Account ID"
//	@Success	204
//	@Security	BearerAuth
//	@Router		/analytical-accounts/{id} [delete]
func (h *AccountHandler) Archive(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.registry.Archive(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Restore godoc
//
//	@Summary	Restore an archived analytical account
//	@Tags		analytical-accounts
//	@Produce	json
//	@Param		id	path		string	true	"Account ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/analytical-accounts/{id}/restore [post]
func (h *AccountHandler) Restore(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	account, err := h.registry.Restore(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}
