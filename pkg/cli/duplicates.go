package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// profileCheckWorkers bounds concurrent profile lookups
const profileCheckWorkers = 8

// DuplicateAccount is one identity account sharing an email with others
type DuplicateAccount struct {
	Account    *auth.Account
	HasProfile bool
	Role       profiles.Role
}

// DuplicateGroup is every account registered under one email
type DuplicateGroup struct {
	Email    string
	Accounts []DuplicateAccount
}

// Keeper returns the account that owns a profile, or nil when none or more
// than one does.
func (g DuplicateGroup) Keeper() *auth.Account {
	var keeper *auth.Account
	for _, a := range g.Accounts {
		if !a.HasProfile {
			continue
		}
		if keeper != nil {
			return nil
		}
		keeper = a.Account
	}
	return keeper
}

func newFindDuplicatesCommand(rt *Runtime) *Command {
	cmd := &Command{
		Name:        "find-duplicates",
		Description: "Report identity accounts that share an email (read only)",
		Flags:       newFlagSet(rt, "find-duplicates"),
	}

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := parseFlags(cmd.Flags, args); err != nil {
			return err
		}
		groups, err := FindDuplicates(ctx, rt)
		if err != nil {
			return err
		}
		printDuplicates(rt, groups)
		return nil
	}
	return cmd
}

// FindDuplicates groups identity accounts by email and reports which
// account in each group owns a profile. Nothing is deleted.
func FindDuplicates(ctx context.Context, rt *Runtime) ([]DuplicateGroup, error) {
	directory, err := rt.openDirectory(ctx)
	if err != nil {
		return nil, err
	}

	byEmail := make(map[string][]*auth.Account)
	total := 0
	err = directory.ListAccounts(ctx, func(a *auth.Account) error {
		total++
		if a.Email == "" {
			return nil
		}
		key := strings.ToLower(a.Email)
		byEmail[key] = append(byEmail[key], a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list identity accounts: %w", err)
	}
	rt.log().WithField("accounts", total).Info("listed identity accounts")

	var groups []DuplicateGroup
	for email, accounts := range byEmail {
		if len(accounts) < 2 {
			continue
		}
		sort.Slice(accounts, func(i, j int) bool {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		})
		group := DuplicateGroup{Email: email}
		for _, a := range accounts {
			group.Accounts = append(group.Accounts, DuplicateAccount{Account: a})
		}
		groups = append(groups, group)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Email < groups[j].Email })

	if len(groups) == 0 {
		return nil, nil
	}

	service, closeStore, err := rt.openProfiles(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(profileCheckWorkers)
	var mu sync.Mutex

	for gi := range groups {
		for ai := range groups[gi].Accounts {
			gi, ai := gi, ai
			eg.Go(func() (err error) {
				defer func() {
					if r := recover(); r != nil {
						err = observability.MustRecover(r)
					}
				}()

				uid := groups[gi].Accounts[ai].Account.UID
				p, err := service.Get(egCtx, uid)
				if errors.Is(err, profiles.ErrNotFound) {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to load profile %s: %w", uid, err)
				}

				mu.Lock()
				groups[gi].Accounts[ai].HasProfile = true
				groups[gi].Accounts[ai].Role = p.Role
				mu.Unlock()
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return groups, nil
}

func printDuplicates(rt *Runtime, groups []DuplicateGroup) {
	out := rt.out()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No duplicate accounts found.")
		return
	}

	for _, g := range groups {
		fmt.Fprintf(out, "%s: %d accounts\n", g.Email, len(g.Accounts))
		for _, a := range g.Accounts {
			status := "no profile"
			if a.HasProfile {
				status = "profile role=" + string(a.Role)
			}
			fmt.Fprintf(out, "  uid=%s created=%s %s\n", a.Account.UID, formatTime(a.Account.CreatedAt), status)
		}
		if keeper := g.Keeper(); keeper != nil {
			fmt.Fprintf(out, "  keep uid=%s\n", keeper.UID)
		}
	}
	fmt.Fprintf(out, "%d duplicate email(s). No accounts were changed.\n", len(groups))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return t.UTC().Format(time.RFC3339)
}
