package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// AutoRuleHandler serves auto-assignment rules and product resolution
type AutoRuleHandler struct {
	BaseHandler
	rules *accountingapp.AutoAssignmentService
}

// NewAutoRuleHandler creates a new AutoRuleHandler
func NewAutoRuleHandler(rules *accountingapp.AutoAssignmentService) *AutoRuleHandler {
	return &AutoRuleHandler{rules: rules}
}

type ruleListQuery struct {
	ProductID *uuid.UUID `form:"product_id"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List godoc
//
//	@Summary	List auto-assignment rules by priority
//	@Tags		auto-analytical-models
//	@Produce	json
//	@Param		product_id	query		string	false	"Rules of one product"
//	@Success	200			{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/auto-analytical-models [get]
func (h *AutoRuleHandler) List(c *gin.Context) {
	var q ruleListQuery
	if !h.bindQuery(c, &q) {
		return
	}
	page, err := h.rules.ListRules(c.Request.Context(),
		shared.Filter{Page: q.Page, PageSize: q.PageSize}, q.ProductID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get an auto-assignment rule
//	@Tags		auto-analytical-models
//	@Param		id	path		string	true	"Rule ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/auto-analytical-models/{id} [get]
func (h *AutoRuleHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	rule, err := h.rules.GetRule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// Create godoc
//
//	@Summary	Create an auto-assignment rule
//	@Tags		auto-analytical-models
//	@Accept		json
//	@Param		request	body		accountingapp.CreateRuleRequest	true	"Rule"
//	@Success	201		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/auto-analytical-models [post]
func (h *AutoRuleHandler) Create(c *gin.Context) {
	var req accountingapp.CreateRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.rules.CreateRule(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rule)
}

// Update godoc
//
//	@Summary	Update an auto-assignment rule
//	@Tags		auto-analytical-models
//	@Accept		json
//	@Param		id		path		string							true	"Rule ID"
//	@Param		request	body		accountingapp.UpdateRuleRequest	true	"Changes"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/auto-analytical-models/{id} [put]
func (h *AutoRuleHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req accountingapp.UpdateRuleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rule, err := h.rules.UpdateRule(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rule)
}

// Delete godoc
//
//	@Summary	Delete an auto-assignment rule
//	@Tags		auto-analytical-models
//	@Param		id	path	string	true	"Rule ID"
//	@Success	204
//	@Security	BearerAuth
//	@Router		/auto-analytical-models/{id} [delete]
func (h *AutoRuleHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.rules.DeleteRule(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Resolve godoc
//
//	@Summary		Default analytical account of a product
//	@Description	Returns a null account when no active rule matches.
//	@Tags			auto-analytical-models
//	@Param			product_id	query		string	true	"Product ID"
//	@Success		200			{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/auto-analytical-models/resolve [get]
func (h *AutoRuleHandler) Resolve(c *gin.Context) {
	productID, ok := h.queryID(c, "product_id")
	if !ok {
		return
	}
	res, err := h.rules.Resolve(c.Request.Context(), productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}
