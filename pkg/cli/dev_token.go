package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

func newDevTokenCommand(rt *Runtime) *Command {
	cmd := &Command{
		Name:        "dev-token",
		Description: "Mint an hs256 bearer token for local development",
		Flags:       newFlagSet(rt, "dev-token"),
	}

	subject := cmd.Flags.String("sub", "", "Subject id (profile uid)")
	email := cmd.Flags.String("email", "", "Email claim")
	ttl := cmd.Flags.Duration("ttl", time.Hour, "Token lifetime")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := parseFlags(cmd.Flags, args); err != nil {
			return err
		}
		if *subject == "" {
			return fmt.Errorf("%w: -sub is required", ErrUsage)
		}
		if *ttl <= 0 {
			return fmt.Errorf("%w: -ttl must be positive", ErrUsage)
		}
		if rt.TokenIssuer == nil {
			return errors.New("hs256 identity is not configured")
		}

		issuer, err := rt.TokenIssuer()
		if err != nil {
			return err
		}
		token, err := issuer.Issue(*subject, *email, *ttl)
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(rt.out(), token)
		return nil
	}
	return cmd
}
