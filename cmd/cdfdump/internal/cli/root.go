// Package cli wires the cdfdump command tree, grounded on the
// teacher's internal/cli package: one cobra.Command per file, each
// registering itself on rootCmd from its own init() (see
// internal/cli/infra.go).
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, nil))

var rootCmd = &cobra.Command{
	Use:   "cdfdump",
	Short: "Inspect NASA Common Data Format (CDF) files",
	Long:  "cdfdump opens a CDF file and prints its variable and attribute structure.",
}

// Execute runs the command tree, returning the first error raised by
// any subcommand.
func Execute() error {
	return rootCmd.Execute()
}
