package shared

import "time"

// Lifecycle carries the creation/update/soft-delete metadata shared by every
// mutable aggregate. It is attached by composition, not embedding a base
// entity, so each aggregate keeps its own invariants.
type Lifecycle struct {
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by"`
	UpdatedAt time.Time  `json:"updated_at"`
	UpdatedBy string     `json:"updated_by"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy string     `json:"deleted_by,omitempty"`
}

// NewLifecycle initializes metadata for a freshly created aggregate.
func NewLifecycle(createdBy string, createdAt time.Time) Lifecycle {
	return Lifecycle{
		CreatedAt: createdAt,
		CreatedBy: createdBy,
		UpdatedAt: createdAt,
		UpdatedBy: createdBy,
	}
}

// Touch records a mutation.
func (l *Lifecycle) Touch(updatedBy string, updatedAt time.Time) {
	l.UpdatedAt = updatedAt
	l.UpdatedBy = updatedBy
}

// MarkDeleted records a soft delete. The aggregate decides whether deletion
// is permitted before calling this.
func (l *Lifecycle) MarkDeleted(deletedBy string, deletedAt time.Time) {
	l.DeletedAt = &deletedAt
	l.DeletedBy = deletedBy
	l.Touch(deletedBy, deletedAt)
}

// IsDeleted reports whether the aggregate has been soft-deleted.
func (l *Lifecycle) IsDeleted() bool {
	return l.DeletedAt != nil
}
