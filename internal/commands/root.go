package commands

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/statement-import/internal/buildinfo"
	"github.com/FACorreiaa/statement-import/pkg/config"
)

// localUser scopes saved adapters when no --user is given.
var localUser = uuid.NewSHA1(uuid.NameSpaceOID, []byte("stmtimport.local"))

// cli is the state shared by all subcommands once the root has run its
// persistent setup.
type cli struct {
	deps   *Dependencies
	user   string
	userID uuid.UUID
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	c := &cli{}

	rootCmd := &cobra.Command{
		Use:     "stmtimport",
		Short:   "Normalize bank statement exports into canonical transactions",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.teardown(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&c.user, "user", "", "user id (UUID) that owns saved mappings")

	rootCmd.AddCommand(newParseCommand(c))
	rootCmd.AddCommand(newCategorizeCommand(c))
	rootCmd.AddCommand(newFingerprintCommand(c))
	rootCmd.AddCommand(newMapCommand(c))

	return rootCmd
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	c.userID = localUser
	if c.user != "" {
		id, err := uuid.Parse(c.user)
		if err != nil {
			return fmt.Errorf("invalid --user: %w", err)
		}
		c.userID = id
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: cfg.Observability.SlogLevel(),
	}))

	deps, err := InitDependencies(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.deps = deps
	return nil
}

func (c *cli) teardown(cmd *cobra.Command) error {
	if c.deps == nil {
		return nil
	}
	defer c.deps.Close()
	return c.deps.WriteMetrics(cmd.ErrOrStderr())
}
