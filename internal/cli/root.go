package cli

import (
	"github.com/spf13/cobra"
	"valentine/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
}

// NewRootCommand creates the root command for the valentine binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "valentine",
		Short:        "Love document signing server",
		Long:         "Serves the love document page and records signatures and button clicks.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file")
	config.RegisterDatabaseFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))

	return cmd
}
