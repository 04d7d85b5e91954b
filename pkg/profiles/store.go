package profiles

import (
	"context"
	"fmt"
	"strings"
)

// Store persists profiles keyed by subject id with a unique secondary key on handle.
//
// Timestamps are never supplied by callers: Create and Put assign CreatedAt and
// LastLoginAt at commit time using the store's own clock, and write the
// assigned values back into the passed profile.
type Store interface {
	// Create inserts a new profile. It fails with ErrAlreadyExists when the id
	// is taken and ErrHandleTaken when the handle is.
	Create(ctx context.Context, p *Profile) error

	Get(ctx context.Context, id string) (*Profile, error)
	GetByHandle(ctx context.Context, handle string) (*Profile, error)
	List(ctx context.Context, q ListQuery) ([]*Profile, error)

	UpdateDetails(ctx context.Context, id, fullName, handle string) error
	SetActive(ctx context.Context, id string, active bool) error

	// PromoteToAdmin moves a user to admin. Admins and superadmins are left
	// untouched so the role never moves down.
	PromoteToAdmin(ctx context.Context, id string) error

	// Put upserts a profile, preserving CreatedAt of an existing record and
	// refreshing LastLoginAt. It is used by operator tooling only.
	Put(ctx context.Context, p *Profile) error

	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// SortField names a sortable profile attribute using its wire name
type SortField string

const (
	SortHandle      SortField = "username"
	SortFullName    SortField = "fullName"
	SortEmail       SortField = "email"
	SortCreatedAt   SortField = "createdAt"
	SortLastLoginAt SortField = "lastLoginAt"
	SortRole        SortField = "role"
)

// ParseSortField resolves a sort parameter. An empty value sorts by handle.
func ParseSortField(s string) (SortField, error) {
	switch s {
	case "":
		return SortHandle, nil
	case "name":
		return SortFullName, nil
	}
	f := SortField(s)
	switch f {
	case SortHandle, SortFullName, SortEmail, SortCreatedAt, SortLastLoginAt, SortRole:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported sort field %q", ErrInvalidInput, s)
}

// ListQuery filters and orders a profile listing
type ListQuery struct {
	// Prefix restricts results to handles starting with it. Empty matches all.
	Prefix     string
	Active     *bool
	Sort       SortField
	Descending bool
}

// Matches reports whether p satisfies the filters of q
func (q ListQuery) Matches(p *Profile) bool {
	if q.Active != nil && p.Active != *q.Active {
		return false
	}
	if q.Prefix != "" {
		lo, hi := HandleRange(q.Prefix)
		if p.Handle < lo || p.Handle >= hi {
			return false
		}
	}
	return true
}

// Compare orders two profiles by the query's sort field, breaking ties on id.
// The result follows the strings.Compare convention.
func (q ListQuery) Compare(a, b *Profile) int {
	c := compareField(q.sortField(), a, b)
	if c == 0 {
		c = strings.Compare(a.ID, b.ID)
	}
	if q.Descending {
		return -c
	}
	return c
}

func (q ListQuery) sortField() SortField {
	if q.Sort == "" {
		return SortHandle
	}
	return q.Sort
}

func compareField(f SortField, a, b *Profile) int {
	switch f {
	case SortFullName:
		return strings.Compare(a.FullName, b.FullName)
	case SortEmail:
		return strings.Compare(a.Email, b.Email)
	case SortCreatedAt:
		return a.CreatedAt.Compare(b.CreatedAt)
	case SortLastLoginAt:
		return a.LastLoginAt.Compare(b.LastLoginAt)
	case SortRole:
		return strings.Compare(string(a.Role), string(b.Role))
	default:
		return strings.Compare(a.Handle, b.Handle)
	}
}
