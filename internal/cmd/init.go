package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init <lang>",
	Short: "Add a language and create its translation file",
	Long: `Add a language to the project and create an empty translation file for it.

The first init in a directory without .i18nsync/ creates the configuration
with default settings. Language codes are BCP 47 tags and are stored in
lower case.

Examples:
  i18nsync init en          # Create the project with the source language
  i18nsync init pt-br       # Add Brazilian Portuguese`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	res, err := engine.Init(workDir, args[0])
	if err != nil {
		return err
	}

	if res.AlreadyPresent {
		logger.Warn().Str("lang", res.Language).Msg("language is already configured")
	}

	return writeReport(cmd, res, func(w io.Writer, _ output.Density) {
		cwd, _ := filepath.Abs(workDir)
		rel := func(p string) string {
			if r, err := filepath.Rel(cwd, p); err == nil {
				return r
			}
			return p
		}
		if !res.AlreadyPresent {
			fmt.Fprintf(w, "%s added %s to %s\n", green("✓"), cyan(res.Language), rel(res.ConfigPath))
		}
		if res.CreatedLocale {
			fmt.Fprintf(w, "%s created %s\n", green("✓"), rel(res.LocalePath))
		} else {
			fmt.Fprintf(w, "  %s already exists\n", rel(res.LocalePath))
		}
	})
}
