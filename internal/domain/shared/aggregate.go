package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseAggregateRoot carries the identity, audit timestamps and row version
// shared by every ledger record. Version starts at 1 and is bumped by the
// repositories on each guarded save.
type BaseAggregateRoot struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int
}

// NewBaseAggregateRoot assigns a fresh id at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	now := time.Now()
	return BaseAggregateRoot{ID: uuid.New(), CreatedAt: now, UpdatedAt: now, Version: 1}
}

// Touch records a mutation
func (a *BaseAggregateRoot) Touch() {
	a.UpdatedAt = time.Now()
}
