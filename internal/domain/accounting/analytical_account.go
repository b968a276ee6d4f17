package accounting

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// AccountLifecycle is the lifecycle state of an analytical account.
// Archived accounts stay referenced by historic lines and budgets.
type AccountLifecycle string

const (
	AccountLifecycleActive   AccountLifecycle = "ACTIVE"
	AccountLifecycleArchived AccountLifecycle = "ARCHIVED"
)

// IsValid checks if the lifecycle value is known
func (l AccountLifecycle) IsValid() bool {
	return l == AccountLifecycleActive || l == AccountLifecycleArchived
}

// LifecyclePolicy states which accounts a read path includes
type LifecyclePolicy string

const (
	IncludeActiveOnly   LifecyclePolicy = "active"
	IncludeArchivedOnly LifecyclePolicy = "archived"
	IncludeAll          LifecyclePolicy = "all"
)

// ParseLifecyclePolicy parses a policy string, defaulting to active only
func ParseLifecyclePolicy(s string) LifecyclePolicy {
	switch LifecyclePolicy(strings.ToLower(s)) {
	case IncludeArchivedOnly:
		return IncludeArchivedOnly
	case IncludeAll:
		return IncludeAll
	}
	return IncludeActiveOnly
}

// Admits reports whether an account in lifecycle l passes the policy
func (p LifecyclePolicy) Admits(l AccountLifecycle) bool {
	switch p {
	case IncludeAll:
		return true
	case IncludeArchivedOnly:
		return l == AccountLifecycleArchived
	}
	return l == AccountLifecycleActive
}

// AnalyticalAccount is a cost center that transaction lines and budgets are tagged with
type AnalyticalAccount struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Description string
	ParentID    *uuid.UUID
	Lifecycle   AccountLifecycle
}

// NewAnalyticalAccount creates a new active analytical account
func NewAnalyticalAccount(code, name string, parentID *uuid.UUID) (*AnalyticalAccount, error) {
	a := &AnalyticalAccount{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Lifecycle:         AccountLifecycleActive,
	}
	if err := a.Rename(code, name); err != nil {
		return nil, err
	}
	if parentID != nil && *parentID == a.ID {
		return nil, shared.NewValidationError("analytical account cannot be its own parent")
	}
	a.ParentID = parentID
	return a, nil
}

// Rename changes the code and name
func (a *AnalyticalAccount) Rename(code, name string) error {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return shared.NewValidationError("analytical account code is required")
	}
	if len(code) > 50 {
		return shared.NewValidationError("analytical account code cannot exceed 50 characters")
	}
	if name == "" {
		return shared.NewValidationError("analytical account name is required")
	}
	if len(name) > 200 {
		return shared.NewValidationError("analytical account name cannot exceed 200 characters")
	}
	a.Code = code
	a.Name = name
	a.Touch()
	return nil
}

// SetDescription replaces the free-text description
func (a *AnalyticalAccount) SetDescription(desc string) {
	a.Description = strings.TrimSpace(desc)
	a.Touch()
}

// Reparent moves the account under parentID. ancestors must be the ancestor
// chain of the new parent (parent first, root last) so that moving an account
// below one of its own descendants can be rejected.
func (a *AnalyticalAccount) Reparent(parentID *uuid.UUID, ancestors []uuid.UUID) error {
	if parentID == nil {
		a.ParentID = nil
		a.Touch()
		return nil
	}
	if *parentID == a.ID {
		return shared.NewValidationError("analytical account cannot be its own parent")
	}
	for _, id := range ancestors {
		if id == a.ID {
			return shared.NewValidationError("analytical account cannot be moved under its own descendant")
		}
	}
	p := *parentID
	a.ParentID = &p
	a.Touch()
	return nil
}

// Archive soft-deletes the account. Children and historic references are untouched.
func (a *AnalyticalAccount) Archive() error {
	if a.Lifecycle == AccountLifecycleArchived {
		return shared.NewInvalidStateError("analytical account is already archived")
	}
	a.Lifecycle = AccountLifecycleArchived
	a.Touch()
	return nil
}

// Restore reactivates an archived account
func (a *AnalyticalAccount) Restore() error {
	if a.Lifecycle == AccountLifecycleActive {
		return shared.NewInvalidStateError("analytical account is already active")
	}
	a.Lifecycle = AccountLifecycleActive
	a.Touch()
	return nil
}

// IsActive reports whether the account is active
func (a *AnalyticalAccount) IsActive() bool {
	return a.Lifecycle == AccountLifecycleActive
}

// AccountNode is an account with its nested children
type AccountNode struct {
	Account  AnalyticalAccount
	Children []*AccountNode
}

// BuildTree assembles accounts into a forest of arbitrary depth. Accounts whose
// parent is absent from the input (filtered out or archived) are dropped along
// with their subtree, so an archived parent hides its children. Siblings keep
// the order of the input slice.
func BuildTree(accounts []AnalyticalAccount) []*AccountNode {
	nodes := make(map[uuid.UUID]*AccountNode, len(accounts))
	for i := range accounts {
		nodes[accounts[i].ID] = &AccountNode{Account: accounts[i]}
	}

	roots := make([]*AccountNode, 0)
	for i := range accounts {
		n := nodes[accounts[i].ID]
		if accounts[i].ParentID == nil {
			roots = append(roots, n)
			continue
		}
		if parent, ok := nodes[*accounts[i].ParentID]; ok {
			parent.Children = append(parent.Children, n)
		}
	}
	return roots
}
