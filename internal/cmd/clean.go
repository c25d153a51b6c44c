package cmd

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// cleanCmd represents the clean command
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove orphaned keys from every translation file",
	Long: `Remove keys that no string module references from the source and every
target translation file.

The command refuses to run when a module cannot be scanned, since that
module may reference any key. It asks for confirmation unless --yes is
given.

Examples:
  i18nsync clean             # Ask, then remove
  i18nsync clean --yes       # Remove without asking
  i18nsync clean --dry-run   # Print diffs, write nothing`,
	RunE: runClean,
}

var (
	cleanYes    bool
	cleanDryRun bool
)

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Remove without asking")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Show the changes without writing anything")
}

func runClean(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	opts := engine.CleanOptions{DryRun: cleanDryRun}
	if !cleanYes && !cleanDryRun {
		opts.Confirm = func(keys []string) bool {
			var b strings.Builder
			fmt.Fprintf(&b, "%s no longer referenced:\n", plural(len(keys), "key"))
			for _, k := range keys {
				fmt.Fprintf(&b, "  %s\n", k)
			}
			b.WriteString("Remove them from every translation file?")
			return confirm(cmd, b.String())
		}
	}

	report, err := eng.Clean(cmd.Context(), opts)
	if err != nil {
		return err
	}

	return writeReport(cmd, report, func(w io.Writer, _ output.Density) {
		switch {
		case len(report.Orphaned) == 0:
			fmt.Fprintf(w, "%s no orphaned keys\n", green("✓"))
		case report.Cancelled:
			fmt.Fprintln(w, "Cancelled, nothing removed.")
		default:
			langs := make([]string, 0, len(report.Removed))
			for lang := range report.Removed {
				langs = append(langs, lang)
			}
			sort.Strings(langs)
			verb := "removed"
			if report.DryRun {
				verb = "would be removed"
			}
			for _, lang := range langs {
				fmt.Fprintf(w, "%s %s: %s %s\n", green("✓"), lang, plural(report.Removed[lang], "key"), verb)
			}
		}
	})
}
