package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	identitytoolkit "google.golang.org/api/identitytoolkit/v3"
	"google.golang.org/api/option"
)

// ErrAccountNotFound is returned when no identity account matches
var ErrAccountNotFound = errors.New("identity account not found")

// Account is an identity-provider user record
type Account struct {
	UID           string
	Email         string
	EmailVerified bool
	DisplayName   string
	Disabled      bool
	CreatedAt     time.Time
}

// NewAccount holds the fields for creating an identity account
type NewAccount struct {
	Email         string
	Password      string
	DisplayName   string
	EmailVerified bool
}

// AccountDirectory administers identity-provider accounts
type AccountDirectory interface {
	LookupByEmail(ctx context.Context, email string) (*Account, error)
	CreateAccount(ctx context.Context, in NewAccount) (*Account, error)
	ListAccounts(ctx context.Context, fn func(*Account) error) error
}

// IdentityToolkitDirectory implements AccountDirectory on the Identity
// Toolkit relying-party API that backs Firebase Authentication.
type IdentityToolkitDirectory struct {
	svc       *identitytoolkit.Service
	projectID string
	pageSize  int64
}

// NewIdentityToolkitDirectory builds a directory client. Callers pass
// option.WithCredentials for production or WithEndpoint in tests.
func NewIdentityToolkitDirectory(ctx context.Context, projectID string, opts ...option.ClientOption) (*IdentityToolkitDirectory, error) {
	svc, err := identitytoolkit.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create identity toolkit client: %w", err)
	}
	return &IdentityToolkitDirectory{svc: svc, projectID: projectID, pageSize: 500}, nil
}

// NewDirectoryFromCredentials is the production constructor
func NewDirectoryFromCredentials(ctx context.Context, creds *Credentials) (*IdentityToolkitDirectory, error) {
	return NewIdentityToolkitDirectory(ctx, creds.ProjectID, option.WithCredentials(creds.Google))
}

func (d *IdentityToolkitDirectory) LookupByEmail(ctx context.Context, email string) (*Account, error) {
	resp, err := d.svc.Relyingparty.GetAccountInfo(&identitytoolkit.IdentitytoolkitRelyingpartyGetAccountInfoRequest{
		Email: []string{email},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w", email, err)
	}
	if len(resp.Users) == 0 {
		return nil, ErrAccountNotFound
	}
	return toAccount(resp.Users[0]), nil
}

func (d *IdentityToolkitDirectory) CreateAccount(ctx context.Context, in NewAccount) (*Account, error) {
	resp, err := d.svc.Relyingparty.SignupNewUser(&identitytoolkit.IdentitytoolkitRelyingpartySignupNewUserRequest{
		Email:         in.Email,
		Password:      in.Password,
		DisplayName:   in.DisplayName,
		EmailVerified: in.EmailVerified,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("create account %s: %w", in.Email, err)
	}
	return &Account{
		UID:           resp.LocalId,
		Email:         resp.Email,
		EmailVerified: in.EmailVerified,
		DisplayName:   resp.DisplayName,
	}, nil
}

// ListAccounts pages through every account, calling fn for each one.
// Iteration stops at the first error fn returns.
func (d *IdentityToolkitDirectory) ListAccounts(ctx context.Context, fn func(*Account) error) error {
	pageToken := ""
	for {
		resp, err := d.svc.Relyingparty.DownloadAccount(&identitytoolkit.IdentitytoolkitRelyingpartyDownloadAccountRequest{
			MaxResults:      d.pageSize,
			NextPageToken:   pageToken,
			TargetProjectId: d.projectID,
		}).Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("download accounts: %w", err)
		}
		for _, u := range resp.Users {
			if err := fn(toAccount(u)); err != nil {
				return err
			}
		}
		if resp.NextPageToken == "" || len(resp.Users) == 0 {
			return nil
		}
		pageToken = resp.NextPageToken
	}
}

func toAccount(u *identitytoolkit.UserInfo) *Account {
	a := &Account{
		UID:           u.LocalId,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		DisplayName:   u.DisplayName,
		Disabled:      u.Disabled,
	}
	if u.CreatedAt > 0 {
		a.CreatedAt = time.UnixMilli(u.CreatedAt).UTC()
	}
	return a
}
