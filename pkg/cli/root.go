package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/userdeck/pkg/auth"
	"github.com/platinummonkey/userdeck/pkg/profiles"
)

// ErrUsage is returned when the command line cannot be parsed
var ErrUsage = errors.New("usage error")

// Runtime supplies the collaborators commands need. Each factory is called
// at most once per command run, so commands that never touch the identity
// provider do not need credentials.
type Runtime struct {
	Out io.Writer
	Log *logrus.Logger

	// Profiles opens the profile service and returns its close function
	Profiles func(ctx context.Context) (*profiles.Service, func() error, error)

	// Directory connects to the identity provider's account directory
	Directory func(ctx context.Context) (auth.AccountDirectory, error)

	// TokenIssuer returns the development token signer
	TokenIssuer func() (*auth.HMACVerifier, error)
}

func (rt *Runtime) out() io.Writer {
	if rt.Out == nil {
		return os.Stdout
	}
	return rt.Out
}

func (rt *Runtime) log() *logrus.Logger {
	if rt.Log == nil {
		rt.Log = logrus.New()
	}
	return rt.Log
}

func (rt *Runtime) openProfiles(ctx context.Context) (*profiles.Service, func() error, error) {
	if rt.Profiles == nil {
		return nil, nil, errors.New("profile store is not configured")
	}
	return rt.Profiles(ctx)
}

func (rt *Runtime) openDirectory(ctx context.Context) (auth.AccountDirectory, error) {
	if rt.Directory == nil {
		return nil, errors.New("identity directory is not configured")
	}
	return rt.Directory(ctx)
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Run         func(ctx context.Context, args []string) error
	Subcommands map[string]*Command
	Flags       *flag.FlagSet
}

// NewRootCommand creates the root command
func NewRootCommand(rt *Runtime) *Command {
	root := &Command{
		Name:        "userdeck-admin",
		Description: "userdeck operator tooling",
		Subcommands: make(map[string]*Command),
		Flags:       flag.NewFlagSet("userdeck-admin", flag.ContinueOnError),
	}

	// Add subcommands
	root.Subcommands["seed-superadmin"] = newSeedSuperadminCommand(rt)
	root.Subcommands["list-users"] = newListUsersCommand(rt)
	root.Subcommands["find-duplicates"] = newFindDuplicatesCommand(rt)
	root.Subcommands["dev-token"] = newDevTokenCommand(rt)

	return root
}

// Execute runs the subcommand named by args[0]
func (c *Command) Execute(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		c.usage(out)
		return nil
	}

	if subcmd, ok := c.Subcommands[args[0]]; ok {
		err := subcmd.Run(ctx, args[1:])
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	c.usage(out)
	return fmt.Errorf("%w: unknown command: %s", ErrUsage, args[0])
}

// usage prints the command usage
func (c *Command) usage(out io.Writer) {
	fmt.Fprintf(out, "Usage: %s <command> [args]\n\n", c.Name)
	fmt.Fprintf(out, "Commands:\n")

	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(out, "  %-17s %s\n", name, c.Subcommands[name].Description)
	}
}

// newFlagSet builds a flag set that reports errors instead of exiting
func newFlagSet(rt *Runtime, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(rt.out())
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	return nil
}
