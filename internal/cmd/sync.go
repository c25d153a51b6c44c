package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Extract changed string modules into the source locale",
	Long: `Extract the literals of every changed string module into the source
translation file and rewrite the module to reference them.

Only modules whose content hash differs from the last recorded run are
processed. Text that already exists under a key reuses that key. Every
rewritten module is backed up first and gets an auto-managed header and a
single import of the i18n module. New strings are then translated into the
target languages when DEEPL_API_KEY is set.

A module that fails to parse is reported and skipped; it is retried on the
next run.

Examples:
  i18nsync sync                     # Process changed modules
  i18nsync sync --force             # Reprocess every module
  i18nsync sync --lang fr,de        # Only translate into French and German
  i18nsync sync --dry-run           # Print diffs, write nothing`,
	RunE: runSync,
}

var (
	syncForce  bool
	syncLangs  []string
	syncDryRun bool
)

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncForce, "force", false, "Reprocess every module regardless of its hash")
	syncCmd.Flags().StringSliceVar(&syncLangs, "lang", nil, "Target languages to translate into (default: all)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show the changes without writing anything")
}

func runSync(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	report, err := eng.Sync(cmd.Context(), engine.SyncOptions{
		Force:     syncForce,
		Languages: splitList(syncLangs),
		DryRun:    syncDryRun,
	})
	if err != nil {
		return err
	}

	return writeReport(cmd, report, func(w io.Writer, d output.Density) {
		printSync(w, report, d)
	})
}

func printSync(w io.Writer, r *engine.SyncReport, d output.Density) {
	if len(r.Files) == 0 {
		fmt.Fprintf(w, "%s all %s up to date\n", green("✓"), plural(r.Tracked, "module"))
		return
	}

	counts := map[string]int{}
	for _, f := range r.Files {
		counts[f.Status]++
		if !d.IncludesDetails() || (f.Status == engine.FileUnchanged && !d.IncludesUnchanged()) {
			continue
		}
		switch f.Status {
		case engine.FileFailed:
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), f.Path, f.Error)
		case engine.FileUnchanged:
			fmt.Fprintf(w, "  %s %s\n", f.Path, faint("unchanged"))
		default:
			fmt.Fprintf(w, "%s %s %s\n", green("✓"), f.Path,
				faint(fmt.Sprintf("(%d replaced, %d new)", f.Replaced, f.Entries)))
		}
		for _, s := range f.Skipped {
			fmt.Fprintf(w, "    %s line %d %s: %s\n", yellow("skipped"), s.Line, s.Key, s.Reason)
		}
	}

	verb := "written"
	if r.DryRun {
		verb = "would be written"
		counts[engine.FileWritten] = counts[engine.FileWouldWrite]
	}
	fmt.Fprintf(w, "\n%s %s, %d unchanged, %d failed; %s\n",
		plural(counts[engine.FileWritten], "module"), verb,
		counts[engine.FileUnchanged], counts[engine.FileFailed],
		plural(len(r.NewEntries), "new string"))

	for _, t := range r.Translations {
		if t.Error != "" {
			fmt.Fprintf(w, "%s %s: %s\n", red("✗"), t.Language, t.Error)
			continue
		}
		fmt.Fprintf(w, "%s %s: %s translated\n", green("✓"), t.Language, plural(t.Translated, "string"))
	}

	if d.IncludesDetails() && len(r.Duplicates) > 0 {
		fmt.Fprintf(w, "\n%s\n", cyan("Duplicate values"))
		for _, dup := range r.Duplicates {
			fmt.Fprintf(w, "  %q → %s\n", dup.Value, dup.Key)
			for _, loc := range dup.Locations[1:] {
				fmt.Fprintf(w, "      %s\n", faint(loc))
			}
		}
	}
}
