package accounting

import (
	"github.com/google/uuid"
	"github.com/shivfurniture/erp/internal/domain/shared"
)

// AutoAnalyticalModel maps a product (or every product when ProductID is nil)
// to a default analytical account. Higher priority wins.
type AutoAnalyticalModel struct {
	shared.BaseAggregateRoot
	ProductID           *uuid.UUID
	AnalyticalAccountID uuid.UUID
	Priority            int
	Active              bool
}

// NewAutoAnalyticalModel creates an active assignment rule
func NewAutoAnalyticalModel(productID *uuid.UUID, accountID uuid.UUID, priority int) (*AutoAnalyticalModel, error) {
	if accountID == uuid.Nil {
		return nil, shared.NewValidationError("analytical account is required")
	}
	return &AutoAnalyticalModel{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ProductID:           productID,
		AnalyticalAccountID: accountID,
		Priority:            priority,
		Active:              true,
	}, nil
}

// IsWildcard reports whether the rule applies to every product
func (m *AutoAnalyticalModel) IsWildcard() bool {
	return m.ProductID == nil
}

// Matches reports whether the rule applies to productID
func (m *AutoAnalyticalModel) Matches(productID uuid.UUID) bool {
	return m.Active && (m.ProductID == nil || *m.ProductID == productID)
}

// Reassign changes the target account and priority
func (m *AutoAnalyticalModel) Reassign(accountID uuid.UUID, priority int) error {
	if accountID == uuid.Nil {
		return shared.NewValidationError("analytical account is required")
	}
	m.AnalyticalAccountID = accountID
	m.Priority = priority
	m.Touch()
	return nil
}

// SetActive toggles the rule
func (m *AutoAnalyticalModel) SetActive(active bool) {
	m.Active = active
	m.Touch()
}

// SelectRule picks the winning rule for productID: highest priority first,
// then earliest created, then lowest id for a stable order. Returns nil when
// nothing matches.
func SelectRule(rules []AutoAnalyticalModel, productID uuid.UUID) *AutoAnalyticalModel {
	var best *AutoAnalyticalModel
	for i := range rules {
		r := &rules[i]
		if !r.Matches(productID) {
			continue
		}
		if best == nil || ranksBefore(r, best) {
			best = r
		}
	}
	return best
}

func ranksBefore(a, b *AutoAnalyticalModel) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
