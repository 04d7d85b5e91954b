package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SignupInput carries the fields supplied when a subject registers
type SignupInput struct {
	ID       string
	Email    string
	FullName string
	Handle   string
}

// UpdateInput carries the editable profile fields
type UpdateInput struct {
	FullName string
	Handle   string
}

// Service implements the profile operations on top of a Store.
// Authorization is enforced by the caller; Service only guards data invariants.
type Service struct {
	store Store
}

// NewService creates a profile service
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Store returns the underlying store
func (s *Service) Store() Store {
	return s.store
}

// Signup creates the profile for a newly registered subject with role user,
// active status, and store-assigned timestamps.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*Profile, error) {
	id := strings.TrimSpace(in.ID)
	email := strings.TrimSpace(in.Email)
	fullName := strings.TrimSpace(in.FullName)
	handle := NormalizeHandle(in.Handle)

	if id == "" || email == "" || fullName == "" || handle == "" {
		return nil, fmt.Errorf("%w: uid, email, full name and username are required", ErrInvalidInput)
	}

	p := &Profile{
		ID:       id,
		Email:    email,
		FullName: fullName,
		Handle:   handle,
		Role:     RoleUser,
		Active:   true,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile %s: %w", id, err)
	}
	return p, nil
}

// EmailForHandle resolves a handle to the email of its profile
func (s *Service) EmailForHandle(ctx context.Context, handle string) (string, error) {
	normalized := NormalizeHandle(handle)
	if normalized == "" {
		return "", fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	p, err := s.store.GetByHandle(ctx, normalized)
	if err != nil {
		return "", err
	}
	return p.Email, nil
}

// HandleAvailable reports whether no profile holds the normalized handle.
// Any handle accepted at signup can be checked; there is no length rule.
func (s *Service) HandleAvailable(ctx context.Context, handle string) (bool, error) {
	normalized := NormalizeHandle(handle)
	if normalized == "" {
		return false, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	_, err := s.store.GetByHandle(ctx, normalized)
	switch {
	case errors.Is(err, ErrNotFound):
		return true, nil
	case err != nil:
		return false, err
	default:
		return false, nil
	}
}

// Get returns the profile for a subject id
func (s *Service) Get(ctx context.Context, id string) (*Profile, error) {
	return s.store.Get(ctx, id)
}

// List returns the profiles matching q. The prefix is normalized the same way
// handles are, so "fo" and "@fo" both match "@foo".
func (s *Service) List(ctx context.Context, q ListQuery) ([]*Profile, error) {
	if q.Prefix != "" {
		q.Prefix = NormalizeHandle(q.Prefix)
	}
	return s.store.List(ctx, q)
}

// Update changes the full name and handle of a profile
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) error {
	fullName := strings.TrimSpace(in.FullName)
	handle := NormalizeHandle(in.Handle)
	if fullName == "" || handle == "" {
		return fmt.Errorf("%w: full name and username are required", ErrInvalidInput)
	}
	if err := s.store.UpdateDetails(ctx, id, fullName, handle); err != nil {
		return fmt.Errorf("update profile %s: %w", id, err)
	}
	return nil
}

// SetActive activates or deactivates a profile
func (s *Service) SetActive(ctx context.Context, id string, active bool) error {
	if err := s.store.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set active=%t on profile %s: %w", active, id, err)
	}
	return nil
}

// Promote raises a user to admin. Repeated calls are no-ops.
func (s *Service) Promote(ctx context.Context, id string) error {
	if err := s.store.PromoteToAdmin(ctx, id); err != nil {
		return fmt.Errorf("promote profile %s: %w", id, err)
	}
	return nil
}

// EnsureSuperadmin upserts an active superadmin profile for an existing
// identity account. Used by operator tooling; there is no HTTP path to it.
func (s *Service) EnsureSuperadmin(ctx context.Context, in SignupInput) (*Profile, error) {
	handle := NormalizeHandle(in.Handle)
	if in.ID == "" || in.Email == "" || handle == "" {
		return nil, fmt.Errorf("%w: uid, email and username are required", ErrInvalidInput)
	}

	p := &Profile{
		ID:       in.ID,
		Email:    in.Email,
		FullName: strings.TrimSpace(in.FullName),
		Handle:   handle,
		Role:     RoleSuperadmin,
		Active:   true,
	}
	if err := s.store.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("seed superadmin %s: %w", in.ID, err)
	}
	return p, nil
}

// Counts summarizes the profile population
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	return s.store.Counts(ctx)
}
