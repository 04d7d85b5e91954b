package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/cli"
	"github.com/platinummonkey/userdeck/pkg/config"
	"github.com/platinummonkey/userdeck/pkg/observability"
	"github.com/platinummonkey/userdeck/pkg/profiles"
	"github.com/platinummonkey/userdeck/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCommand(newRuntime(cfg))
	if err := rootCmd.Execute(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, cli.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func newRuntime(cfg *config.Config) *cli.Runtime {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrusLevel(cfg.Observability.LogLevel))

	rt := &cli.Runtime{
		Out: os.Stdout,
		Log: log,
		Profiles: func(ctx context.Context) (*profiles.Service, func() error, error) {
			backend, err := storage.Open(ctx, cfg.Storage, observability.NewLogger(cfg.Observability.LogLevel, os.Stderr))
			if err != nil {
				return nil, nil, fmt.Errorf("failed to open %s store: %w", cfg.Storage.Type, err)
			}
			log.WithField("backend", backend.Name).Debug("profile store ready")
			return profiles.NewService(backend.Store), backend.Close, nil
		},
		Directory: func(ctx context.Context) (auth.AccountDirectory, error) {
			if cfg.Identity.CredentialsFile != "" {
				creds, err := auth.LoadCredentials(ctx, cfg.Identity.CredentialsFile, cfg.Identity.ProjectID)
				if err != nil {
					return nil, err
				}
				return auth.NewDirectoryFromCredentials(ctx, creds)
			}
			if cfg.Identity.ProjectID == "" {
				return nil, errors.New("account directory needs GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_PROJECT_ID")
			}
			// Application default credentials
			return auth.NewIdentityToolkitDirectory(ctx, cfg.Identity.ProjectID)
		},
	}
	if cfg.Identity.Mode == config.IdentityHS256 {
		rt.TokenIssuer = func() (*auth.HMACVerifier, error) {
			return auth.NewHMACVerifier([]byte(cfg.Identity.Secret), cfg.Identity.Issuer)
		}
	}
	return rt
}

func logrusLevel(level observability.LogLevel) logrus.Level {
	switch level {
	case observability.DebugLevel:
		return logrus.DebugLevel
	case observability.WarnLevel:
		return logrus.WarnLevel
	case observability.ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
