package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"valentine/internal/config"
	"valentine/internal/db"
)

// NewResetCommand creates the reset command, the offline wipe of all events.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete every signature and click",
		Long: `Delete every signature and click and restart id assignment.

Run it while the server is stopped. A sqlite file that does not exist is
reported and left alone.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.ConfigFile, cmd.Flags())
			if err != nil {
				return err
			}
			return resetDatabase(cmd.Context(), cfg.Database, cmd.OutOrStdout())
		},
	}
}

func resetDatabase(ctx context.Context, cfg config.DatabaseConfig, out io.Writer) error {
	if cfg.Driver == config.DriverSQLite {
		if _, err := os.Stat(cfg.Path); errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(out, "Database not found: %s\n", cfg.Path)
			return nil
		}
	}

	database, err := db.ConnectDB(cfg)
	if err != nil {
		return err
	}
	store := db.NewStore(database)
	defer store.Close()

	if err := store.Reset(ctx); err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	fmt.Fprintln(out, "Database cleared.")
	fmt.Fprintf(out, "Tables: %s\n", strings.Join(db.Tables(), ", "))
	return nil
}
