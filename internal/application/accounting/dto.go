package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shopspring/decimal"
)

// ==================== Analytical Account DTOs ====================

// CreateAccountRequest represents a request to create an analytical account
type CreateAccountRequest struct {
	Code        string     `json:"code" binding:"required,min=1,max=50"`
	Name        string     `json:"name" binding:"required,min=1,max=200"`
	Description string     `json:"description" binding:"max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// UpdateAccountRequest represents a request to update an analytical account.
// ClearParent moves the account to the root.
type UpdateAccountRequest struct {
	Code        *string    `json:"code" binding:"omitempty,min=1,max=50"`
	Name        *string    `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string    `json:"description" binding:"omitempty,max=1000"`
	ParentID    *uuid.UUID `json:"parent_id"`
	ClearParent bool       `json:"clear_parent"`
}

// AccountListFilter is the query for listing accounts
type AccountListFilter struct {
	Lifecycle string     `form:"lifecycle" binding:"omitempty,oneof=active archived all"`
	ParentID  *uuid.UUID `form:"parent_id"`
	RootOnly  bool       `form:"root_only"`
	Search    string     `form:"search"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// AccountResponse represents an analytical account
type AccountResponse struct {
	ID          uuid.UUID  `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	ParentID    *uuid.UUID `json:"parent_id,omitempty"`
	Lifecycle   string     `json:"lifecycle"`
	IsActive    bool       `json:"is_active"`
	Version     int        `json:"version"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// AccountDetailResponse is an account with its parent and recent budgets
type AccountDetailResponse struct {
	AccountResponse
	Parent        *AccountResponse `json:"parent,omitempty"`
	RecentBudgets []BudgetResponse `json:"recent_budgets"`
}

// AccountTreeNode is one node of the account tree
type AccountTreeNode struct {
	AccountResponse
	Children []AccountTreeNode `json:"children"`
}

// ToAccountResponse converts a domain account to a response
func ToAccountResponse(a *accounting.AnalyticalAccount) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Code:        a.Code,
		Name:        a.Name,
		Description: a.Description,
		ParentID:    a.ParentID,
		Lifecycle:   string(a.Lifecycle),
		IsActive:    a.IsActive(),
		Version:     a.Version,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// ToAccountResponses converts a slice of accounts
func ToAccountResponses(accounts []accounting.AnalyticalAccount) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}

func toTreeNodes(nodes []*accounting.AccountNode) []AccountTreeNode {
	out := make([]AccountTreeNode, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, AccountTreeNode{
			AccountResponse: ToAccountResponse(&n.Account),
			Children:        toTreeNodes(n.Children),
		})
	}
	return out
}

// ==================== Auto-Assignment Rule DTOs ====================

// CreateRuleRequest represents a request to create an auto-assignment rule.
// A nil product makes the rule apply to every product.
type CreateRuleRequest struct {
	ProductID           *uuid.UUID `json:"product_id"`
	AnalyticalAccountID uuid.UUID  `json:"analytical_account_id" binding:"required"`
	Priority            int        `json:"priority"`
}

// UpdateRuleRequest represents a request to update an auto-assignment rule
type UpdateRuleRequest struct {
	AnalyticalAccountID *uuid.UUID `json:"analytical_account_id"`
	Priority            *int       `json:"priority"`
	Active              *bool      `json:"active"`
}

// RuleResponse represents an auto-assignment rule
type RuleResponse struct {
	ID                  uuid.UUID  `json:"id"`
	ProductID           *uuid.UUID `json:"product_id,omitempty"`
	AnalyticalAccountID uuid.UUID  `json:"analytical_account_id"`
	Priority            int        `json:"priority"`
	Active              bool       `json:"active"`
	CreatedAt           time.Time  `json:"created_at"`
}

// ResolveResponse is the outcome of resolving a product's default account
type ResolveResponse struct {
	ProductID           uuid.UUID  `json:"product_id"`
	AnalyticalAccountID *uuid.UUID `json:"analytical_account_id"`
}

// ToRuleResponse converts a domain rule to a response
func ToRuleResponse(r *accounting.AutoAnalyticalModel) RuleResponse {
	return RuleResponse{
		ID:                  r.ID,
		ProductID:           r.ProductID,
		AnalyticalAccountID: r.AnalyticalAccountID,
		Priority:            r.Priority,
		Active:              r.Active,
		CreatedAt:           r.CreatedAt,
	}
}

// ==================== Budget DTOs ====================

// CreateBudgetRequest represents a request to create a budget
type CreateBudgetRequest struct {
	AnalyticalAccountID uuid.UUID       `json:"analytical_account_id" binding:"required"`
	Year                int             `json:"year" binding:"required,min=2000,max=9999"`
	Month               int             `json:"month" binding:"required,min=1,max=12"`
	AllocatedAmount     decimal.Decimal `json:"allocated_amount" binding:"decimal_gte0"`
}

// UpdateBudgetRequest represents a request to change a budget's allocation
type UpdateBudgetRequest struct {
	AllocatedAmount decimal.Decimal `json:"allocated_amount" binding:"decimal_gte0"`
}

// BudgetListFilter is the query for listing budgets
type BudgetListFilter struct {
	Year                *int       `form:"year" binding:"omitempty,min=2000,max=9999"`
	Month               *int       `form:"month" binding:"omitempty,min=1,max=12"`
	AnalyticalAccountID *uuid.UUID `form:"analytical_account_id"`
	Page                int        `form:"page" binding:"omitempty,min=1"`
	PageSize            int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// BudgetResponse represents a budget
type BudgetResponse struct {
	ID                  uuid.UUID       `json:"id"`
	AnalyticalAccountID uuid.UUID       `json:"analytical_account_id"`
	Year                int             `json:"year"`
	Month               int             `json:"month"`
	AllocatedAmount     decimal.Decimal `json:"allocated_amount"`
	UsedAmount          decimal.Decimal `json:"used_amount"`
	RemainingAmount     decimal.Decimal `json:"remaining_amount"`
	Utilization         decimal.Decimal `json:"utilization"`
	Version             int             `json:"version"`
}

// ToBudgetResponse converts a domain budget to a response
func ToBudgetResponse(b *accounting.Budget) BudgetResponse {
	return BudgetResponse{
		ID:                  b.ID,
		AnalyticalAccountID: b.AnalyticalAccountID,
		Year:                b.Year,
		Month:               b.Month,
		AllocatedAmount:     b.AllocatedAmount,
		UsedAmount:          b.UsedAmount,
		RemainingAmount:     b.Remaining(),
		Utilization:         b.Utilization(),
		Version:             b.Version,
	}
}

// ToBudgetResponses converts a slice of budgets
func ToBudgetResponses(budgets []accounting.Budget) []BudgetResponse {
	out := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		out[i] = ToBudgetResponse(&budgets[i])
	}
	return out
}

// AccountUtilizationResponse is one account row of a budget summary
type AccountUtilizationResponse struct {
	BudgetID            uuid.UUID       `json:"budget_id"`
	AnalyticalAccountID uuid.UUID       `json:"analytical_account_id"`
	AccountCode         string          `json:"account_code"`
	AccountName         string          `json:"account_name"`
	Allocated           decimal.Decimal `json:"allocated"`
	Used                decimal.Decimal `json:"used"`
	Remaining           decimal.Decimal `json:"remaining"`
	Utilization         decimal.Decimal `json:"utilization"`
}

// BudgetSummaryResponse aggregates all budgets of a period
type BudgetSummaryResponse struct {
	Year           int                          `json:"year"`
	Month          int                          `json:"month"`
	Accounts       []AccountUtilizationResponse `json:"accounts"`
	TotalAllocated decimal.Decimal              `json:"total_allocated"`
	TotalUsed      decimal.Decimal              `json:"total_used"`
	TotalRemaining decimal.Decimal              `json:"total_remaining"`
	Utilization    decimal.Decimal              `json:"utilization"`
}

// ToBudgetSummaryResponse converts a domain summary to a response
func ToBudgetSummaryResponse(s accounting.BudgetSummary) BudgetSummaryResponse {
	rows := make([]AccountUtilizationResponse, len(s.Accounts))
	for i, a := range s.Accounts {
		rows[i] = AccountUtilizationResponse(a)
	}
	return BudgetSummaryResponse{
		Year:           s.Period.Year,
		Month:          s.Period.Month,
		Accounts:       rows,
		TotalAllocated: s.TotalAllocated,
		TotalUsed:      s.TotalUsed,
		TotalRemaining: s.TotalRemaining,
		Utilization:    s.Utilization,
	}
}

// ArchivedReportResponse describes a report written to the archive
type ArchivedReportResponse struct {
	Key         string    `json:"key"`
	Size        int       `json:"size"`
	ContentType string    `json:"content_type"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}
