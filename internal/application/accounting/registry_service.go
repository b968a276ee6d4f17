package accounting

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/accounting"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// recentBudgetLimit is how many budgets GetByID attaches to an account
const recentBudgetLimit = 12

// RegistryService manages the analytical account (cost center) catalog
type RegistryService struct {
	accountRepo accounting.AnalyticalAccountRepository
	budgetRepo  accounting.BudgetRepository
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(
	accountRepo accounting.AnalyticalAccountRepository,
	budgetRepo accounting.BudgetRepository,
) *RegistryService {
	return &RegistryService{
		accountRepo: accountRepo,
		budgetRepo:  budgetRepo,
	}
}

// List returns a page of accounts
func (s *RegistryService) List(ctx context.Context, filter AccountListFilter) (shared.Paginated[AccountResponse], error) {
	domainFilter := accounting.AccountFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "code",
			OrderDir: "asc",
			Search:   filter.Search,
		}.Normalize(),
		Lifecycle: accounting.ParseLifecyclePolicy(filter.Lifecycle),
		ParentID:  filter.ParentID,
		RootOnly:  filter.RootOnly,
	}

	accounts, total, err := s.accountRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return shared.Paginated[AccountResponse]{}, err
	}
	return shared.NewPaginated(ToAccountResponses(accounts), total, domainFilter.Page, domainFilter.PageSize), nil
}

// GetTree returns root accounts with nested children of any depth
func (s *RegistryService) GetTree(ctx context.Context, lifecycle string) ([]AccountTreeNode, error) {
	accounts, err := s.accountRepo.FindForTree(ctx, accounting.ParseLifecyclePolicy(lifecycle))
	if err != nil {
		return nil, err
	}
	return toTreeNodes(accounting.BuildTree(accounts)), nil
}

// GetByID returns an account with its parent and most recent budgets
func (s *RegistryService) GetByID(ctx context.Context, id uuid.UUID) (*AccountDetailResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &AccountDetailResponse{AccountResponse: ToAccountResponse(account)}
	if account.ParentID != nil {
		parent, err := s.accountRepo.FindByID(ctx, *account.ParentID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if parent != nil {
			p := ToAccountResponse(parent)
			resp.Parent = &p
		}
	}

	budgets, err := s.budgetRepo.FindRecentForAccount(ctx, id, recentBudgetLimit)
	if err != nil {
		return nil, err
	}
	resp.RecentBudgets = ToBudgetResponses(budgets)
	return resp, nil
}

// Create creates a new analytical account
func (s *RegistryService) Create(ctx context.Context, req CreateAccountRequest) (*AccountResponse, error) {
	exists, err := s.accountRepo.ExistsByCode(ctx, req.Code, nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "analytical account with this code already exists")
	}

	if req.ParentID != nil {
		if err := s.ensureParentExists(ctx, *req.ParentID); err != nil {
			return nil, err
		}
	}

	account, err := accounting.NewAnalyticalAccount(req.Code, req.Name, req.ParentID)
	if err != nil {
		return nil, err
	}
	account.SetDescription(req.Description)

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Update changes code, name, description or parent of an account
func (s *RegistryService) Update(ctx context.Context, id uuid.UUID, req UpdateAccountRequest) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	code, name := account.Code, account.Name
	if req.Code != nil {
		code = *req.Code
	}
	if req.Name != nil {
		name = *req.Name
	}
	if code != account.Code {
		exists, err := s.accountRepo.ExistsByCode(ctx, code, &id)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, shared.NewDomainError(shared.CodeAlreadyExists, "analytical account with this code already exists")
		}
	}
	if err := account.Rename(code, name); err != nil {
		return nil, err
	}
	if req.Description != nil {
		account.SetDescription(*req.Description)
	}

	switch {
	case req.ClearParent:
		if err := account.Reparent(nil, nil); err != nil {
			return nil, err
		}
	case req.ParentID != nil:
		if err := s.ensureParentExists(ctx, *req.ParentID); err != nil {
			return nil, err
		}
		// the new parent's ancestors must not contain the account itself
		ancestors, err := s.accountRepo.AncestorIDs(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		if err := account.Reparent(req.ParentID, ancestors); err != nil {
			return nil, err
		}
	}

	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

// Archive soft-deletes an account. Children and historic references are untouched.
func (s *RegistryService) Archive(ctx context.Context, id uuid.UUID) error {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := account.Archive(); err != nil {
		return err
	}
	return s.accountRepo.Save(ctx, account)
}

// Restore reactivates an archived account
func (s *RegistryService) Restore(ctx context.Context, id uuid.UUID) (*AccountResponse, error) {
	account, err := s.accountRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := account.Restore(); err != nil {
		return nil, err
	}
	if err := s.accountRepo.Save(ctx, account); err != nil {
		return nil, err
	}
	resp := ToAccountResponse(account)
	return &resp, nil
}

func (s *RegistryService) ensureParentExists(ctx context.Context, parentID uuid.UUID) error {
	if _, err := s.accountRepo.FindByID(ctx, parentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("parent analytical account not found")
		}
		return err
	}
	return nil
}
