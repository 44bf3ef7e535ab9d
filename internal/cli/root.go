package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Overrides for the FRACTAL_* environment. Empty means unset.
	DB        string
	StateFile string
	Catalog   string
	NoFusion  bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the fractal CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "fractal",
		Short: "Fractal Flow - a symbol discovery game",
		Long: `Combine symbols to discover the cosmology, one glyph at a time.

Progress is kept in a SQLite database (FRACTAL_DB or --db) and a small
local state file. Without a database the game runs in memory.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "path to SQLite database (overrides FRACTAL_DB)")
	cmd.PersistentFlags().StringVar(&opts.StateFile, "state", "", "path to local state file (overrides FRACTAL_STATE_FILE)")
	cmd.PersistentFlags().StringVar(&opts.Catalog, "catalog", "", "path to a CUE catalog (default: embedded cosmology)")
	cmd.PersistentFlags().BoolVar(&opts.NoFusion, "no-fusion", false, "disable dynamic fusion of discovered symbols")

	cmd.AddCommand(NewPlayCommand(opts))
	cmd.AddCommand(NewCombineCommand(opts))
	cmd.AddCommand(NewTapCommand(opts))
	cmd.AddCommand(NewProfileCommand(opts))
	cmd.AddCommand(NewDiscoveriesCommand(opts))
	cmd.AddCommand(NewMysteryCommand(opts))
	cmd.AddCommand(NewRulesCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewSettingsCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
