package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/platinummonkey/userdeck/pkg/profiles"
)

func newListUsersCommand(rt *Runtime) *Command {
	cmd := &Command{
		Name:        "list-users",
		Description: "Print every profile with its role and status",
		Flags:       newFlagSet(rt, "list-users"),
	}

	prefix := cmd.Flags.String("q", "", "Only list usernames starting with this prefix")
	sortBy := cmd.Flags.String("sort", "username", "Sort field (username, fullName, email, createdAt, lastLoginAt, role)")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := parseFlags(cmd.Flags, args); err != nil {
			return err
		}
		field, err := profiles.ParseSortField(*sortBy)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUsage, err)
		}

		service, closeStore, err := rt.openProfiles(ctx)
		if err != nil {
			return err
		}
		defer closeStore()

		users, err := service.List(ctx, profiles.ListQuery{Prefix: *prefix, Sort: field})
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		w := tabwriter.NewWriter(rt.out(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UID\tEMAIL\tUSERNAME\tROLE\tACTIVE")
		for _, p := range users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n", p.ID, p.Email, p.Handle, p.Role, p.Active)
		}
		if err := w.Flush(); err != nil {
			return err
		}

		rt.log().WithField("count", len(users)).Debug("listed profiles")
		return nil
	}
	return cmd
}
