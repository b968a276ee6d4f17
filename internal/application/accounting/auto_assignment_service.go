package accounting

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// ResolveAccount returns the default analytical account for productID, or nil
// when no active rule matches. It only reads through rules, so callers pass
// the repository bound to whatever database transaction they are in.
func ResolveAccount(ctx context.Context, rules accounting.AutoAnalyticalModelRepository, productID uuid.UUID) (*uuid.UUID, error) {
	candidates, err := rules.FindCandidates(ctx, productID)
	if err != nil {
		return nil, err
	}
	winner := accounting.SelectRule(candidates, productID)
	if winner == nil {
		return nil, nil
	}
	id := winner.AnalyticalAccountID
	return &id, nil
}

// AutoAssignmentService manages product → analytical account rules
type AutoAssignmentService struct {
	ruleRepo    accounting.AutoAnalyticalModelRepository
	accountRepo accounting.AnalyticalAccountRepository
}

// NewAutoAssignmentService creates a new AutoAssignmentService
func NewAutoAssignmentService(
	ruleRepo accounting.AutoAnalyticalModelRepository,
	accountRepo accounting.AnalyticalAccountRepository,
) *AutoAssignmentService {
	return &AutoAssignmentService{
		ruleRepo:    ruleRepo,
		accountRepo: accountRepo,
	}
}

// Resolve returns the default analytical account of a product
func (s *AutoAssignmentService) Resolve(ctx context.Context, productID uuid.UUID) (*ResolveResponse, error) {
	accountID, err := ResolveAccount(ctx, s.ruleRepo, productID)
	if err != nil {
		return nil, err
	}
	return &ResolveResponse{ProductID: productID, AnalyticalAccountID: accountID}, nil
}

// ListRules returns a page of rules, optionally narrowed to one product
func (s *AutoAssignmentService) ListRules(ctx context.Context, filter shared.Filter, productID *uuid.UUID) (shared.Paginated[RuleResponse], error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "priority"
	}
	filter = filter.Normalize()

	rules, total, err := s.ruleRepo.FindAll(ctx, filter, productID)
	if err != nil {
		return shared.Paginated[RuleResponse]{}, err
	}
	items := make([]RuleResponse, len(rules))
	for i := range rules {
		items[i] = ToRuleResponse(&rules[i])
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// GetRule returns one rule
func (s *AutoAssignmentService) GetRule(ctx context.Context, id uuid.UUID) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// CreateRule creates a new rule targeting an active account
func (s *AutoAssignmentService) CreateRule(ctx context.Context, req CreateRuleRequest) (*RuleResponse, error) {
	if err := s.ensureActiveAccount(ctx, req.AnalyticalAccountID); err != nil {
		return nil, err
	}
	rule, err := accounting.NewAutoAnalyticalModel(req.ProductID, req.AnalyticalAccountID, req.Priority)
	if err != nil {
		return nil, err
	}
	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// UpdateRule changes target account, priority or active flag of a rule
func (s *AutoAssignmentService) UpdateRule(ctx context.Context, id uuid.UUID, req UpdateRuleRequest) (*RuleResponse, error) {
	rule, err := s.ruleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	accountID, priority := rule.AnalyticalAccountID, rule.Priority
	if req.AnalyticalAccountID != nil && *req.AnalyticalAccountID != accountID {
		if err := s.ensureActiveAccount(ctx, *req.AnalyticalAccountID); err != nil {
			return nil, err
		}
		accountID = *req.AnalyticalAccountID
	}
	if req.Priority != nil {
		priority = *req.Priority
	}
	if err := rule.Reassign(accountID, priority); err != nil {
		return nil, err
	}
	if req.Active != nil {
		rule.SetActive(*req.Active)
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}
	resp := ToRuleResponse(rule)
	return &resp, nil
}

// DeleteRule removes a rule
func (s *AutoAssignmentService) DeleteRule(ctx context.Context, id uuid.UUID) error {
	if _, err := s.ruleRepo.FindByID(ctx, id); err != nil {
		return err
	}
	return s.ruleRepo.Delete(ctx, id)
}

func (s *AutoAssignmentService) ensureActiveAccount(ctx context.Context, id uuid.UUID) error {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("analytical account not found")
		}
		return err
	}
	if !account.IsActive() {
		return shared.NewValidationError("analytical account is archived")
	}
	return nil
}
