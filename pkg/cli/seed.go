package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// SuperadminSeed describes the operator account to create or repair
type SuperadminSeed struct {
	Email    string `yaml:"email"`
	FullName string `yaml:"fullName"`
	Username string `yaml:"username"`
	// Password is only used when the identity account does not exist yet
	Password string `yaml:"password"`
}

// LoadSuperadminSeed reads a seed file
func LoadSuperadminSeed(path string) (*SuperadminSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SuperadminSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Validate checks the seed has every field the profile needs
func (s *SuperadminSeed) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(s.FullName) == "" {
		missing = append(missing, "fullName")
	}
	if profiles.HandleBody(s.Username) == "" {
		missing = append(missing, "username")
	}
	if len(missing) > 0 {
		return fmt.Errorf("seed is missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func newSeedSuperadminCommand(rt *Runtime) *Command {
	cmd := &Command{
		Name:        "seed-superadmin",
		Description: "Create or repair the superadmin account and profile",
		Flags:       newFlagSet(rt, "seed-superadmin"),
	}

	file := cmd.Flags.String("f", "", "Seed file (YAML with email, fullName, username, password)")
	password := cmd.Flags.String("password", "", "Password for a newly created account (overrides the seed file)")

	cmd.Run = func(ctx context.Context, args []string) error {
		if err := parseFlags(cmd.Flags, args); err != nil {
			return err
		}
		if *file == "" {
			return fmt.Errorf("%w: -f is required", ErrUsage)
		}

		seed, err := LoadSuperadminSeed(*file)
		if err != nil {
			return err
		}
		if *password != "" {
			seed.Password = *password
		}
		_, err = SeedSuperadmin(ctx, rt, seed)
		return err
	}
	return cmd
}

// SeedSuperadmin makes sure an identity account exists for the seed email and
// that its profile holds the superadmin role. Running it again repairs the
// profile without creating a second account.
func SeedSuperadmin(ctx context.Context, rt *Runtime, seed *SuperadminSeed) (*profiles.Profile, error) {
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	log := rt.log().WithField("email", seed.Email)

	directory, err := rt.openDirectory(ctx)
	if err != nil {
		return nil, err
	}

	account, err := directory.LookupByEmail(ctx, seed.Email)
	switch {
	case errors.Is(err, auth.ErrAccountNotFound):
		if seed.Password == "" {
			return nil, fmt.Errorf("identity account %s does not exist and no password was given", seed.Email)
		}
		log.Info("superadmin account not found, creating it")
		account, err = directory.CreateAccount(ctx, auth.NewAccount{
			Email:         seed.Email,
			Password:      seed.Password,
			DisplayName:   seed.FullName,
			EmailVerified: true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create identity account: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up identity account: %w", err)
	default:
		log.Info("superadmin account already exists")
	}

	service, closeStore, err := rt.openProfiles(ctx)
	if err != nil {
		return nil, err
	}
	defer closeStore()

	p, err := service.EnsureSuperadmin(ctx, profiles.SignupInput{
		ID:       account.UID,
		Email:    seed.Email,
		FullName: seed.FullName,
		Handle:   seed.Username,
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"uid":      p.ID,
		"username": p.Handle,
	}).Info("superadmin seeding complete")
	fmt.Fprintf(rt.out(), "superadmin %s (%s) uid=%s\n", p.Handle, p.Email, p.ID)
	return p, nil
}
