package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	accountingapp "github.com/shivfurniture/erp/internal/application/accounting"
)

// BudgetHandler serves monthly budgets and their summaries
type BudgetHandler struct {
	BaseHandler
	budgets *accountingapp.BudgetService
}

// NewBudgetHandler creates a new BudgetHandler
func NewBudgetHandler(budgets *accountingapp.BudgetService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets}
}

type periodQuery struct {
	Year  int `form:"year" binding:"required,min=2000,max=9999"`
	Month int `form:"month" binding:"required,min=1,max=12"`
}

// List godoc
//
//	@Summary	List budgets
//	@Tags		budgets
//	@Produce	json
//	@Param		year					query		int		false	"Year"
//	@Param		month					query		int		false	"Month"
//	@Param		analytical_account_id	query		string	false	"Account"
//	@Success	200						{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/budgets [get]
func (h *BudgetHandler) List(c *gin.Context) {
	var filter accountingapp.BudgetListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	page, err := h.budgets.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Page(c, page)
}

// Get godoc
//
//	@Summary	Get a budget
//	@Tags		budgets
//	@Param		id	path		string	true	"Budget ID"
//	@Success	200	{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/budgets/{id} [get]
func (h *BudgetHandler) Get(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	budget, err := h.budgets.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, budget)
}

// Summary godoc
//
//	@Summary	Allocated, used and remaining totals of a month
//	@Tags		budgets
//	@Param		year	query		int	true	"Year"
//	@Param		month	query		int	true	"Month"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/budgets/summary [get]
func (h *BudgetHandler) Summary(c *gin.Context) {
	var q periodQuery
	if !h.bindQuery(c, &q) {
		return
	}
	summary, err := h.budgets.GetSummary(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Export godoc
//
//	@Summary	Download a month's budget summary as a spreadsheet
//	@Tags		budgets
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Param		year	query	int	true	"Year"
//	@Param		month	query	int	true	"Month"
//	@Success	200		{file}	file
//	@Security	BearerAuth
//	@Router		/budgets/summary/export [get]
func (h *BudgetHandler) Export(c *gin.Context) {
	var q periodQuery
	if !h.bindQuery(c, &q) {
		return
	}
	body, contentType, err := h.budgets.ExportSummary(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition",
		fmt.Sprintf(`attachment; filename="budget-summary-%04d-%02d.xlsx"`, q.Year, q.Month))
	c.Data(http.StatusOK, contentType, body)
}

// Archive godoc
//
//	@Summary	Store a month's budget summary in the report archive
//	@Tags		budgets
//	@Produce	json
//	@Param		year	query		int	true	"Year"
//	@Param		month	query		int	true	"Month"
//	@Success	201		{object}	dto.Response{data=accountingapp.ArchivedReportResponse}
//	@Failure	422		{object}	dto.Response	"Report archive not configured"
//	@Failure	502		{object}	dto.Response	"Object storage unavailable"
//	@Security	BearerAuth
//	@Router		/budgets/summary/archive [post]
func (h *BudgetHandler) Archive(c *gin.Context) {
	var q periodQuery
	if !h.bindQuery(c, &q) {
		return
	}
	report, err := h.budgets.ArchiveSummary(c.Request.Context(), q.Year, q.Month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, report)
}

// Create godoc
//
//	@Summary	Create a budget for an account and month
//	@Tags		budgets
//	@Accept		json
//	@Param		request	body		accountingapp.CreateBudgetRequest	true	"Budget"
//	@Success	201		{object}	dto.Response
//	@Failure	409		{object}	dto.Response	"Budget already exists for the month"
//	@Security	BearerAuth
//	@Router		/budgets [post]
func (h *BudgetHandler) Create(c *gin.Context) {
	var req accountingapp.CreateBudgetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	budget, err := h.budgets.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, budget)
}

// Update godoc
//
//	@Summary	Change a budget's allocation
//	@Tags		budgets
//	@Accept		json
//	@Param		id		path		string								true	"Budget ID"
//	@Param		request	body		accountingapp.UpdateBudgetRequest	true	"Allocation"
//	@Success	200		{object}	dto.Response
//	@Security	BearerAuth
//	@Router		/budgets/{id} [put]
func (h *BudgetHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req accountingapp.UpdateBudgetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	budget, err := h.budgets.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, budget)
}

// Delete godoc
//
//	@Summary	Delete a budget
//	@Tags		budgets
//	@Param		id	path	string	true	"Budget ID"
//	@Success	204
//	@Security	BearerAuth
//	@Router		/budgets/{id} [delete]
func (h *BudgetHandler) Delete(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.budgets.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
