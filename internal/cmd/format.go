package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// formatCmd represents the format command
var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Annotate references with their source text and sort locale files",
	Long: `Refresh the trailing comment after every i18n.t('key') reference with the
key's source-language text, and re-save every translation file with sorted
keys.

Running format twice changes nothing the second time. Modules that were in
sync before formatting stay in sync.

Examples:
  i18nsync format              # Annotate and sort
  i18nsync format --dry-run    # Print diffs, write nothing`,
	RunE: runFormat,
}

var formatDryRun bool

func init() {
	rootCmd.AddCommand(formatCmd)
	formatCmd.Flags().BoolVar(&formatDryRun, "dry-run", false, "Show the changes without writing anything")
}

func runFormat(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	report, err := eng.Format(cmd.Context(), engine.FormatOptions{DryRun: formatDryRun})
	if err != nil {
		return err
	}

	return writeReport(cmd, report, func(w io.Writer, d output.Density) {
		if d.IncludesDetails() {
			for _, f := range report.Files {
				fmt.Fprintf(w, "%s %s\n", green("✓"), f)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(w, "%s %s\n", red("✗"), f)
			}
		}
		s := report.Stats
		fmt.Fprintf(w, "%s annotated: %d inserted, %d updated, %d stripped, %d unchanged\n",
			plural(len(report.Files), "module"), s.Inserted, s.Updated, s.Stripped, s.Unchanged)
		if s.Blocked > 0 {
			fmt.Fprintf(w, "%s %s followed by code on the same line\n", yellow("!"), plural(s.Blocked, "reference"))
		}
		fmt.Fprintf(w, "%s sorted\n", plural(len(report.Locales), "locale file"))
	})
}
