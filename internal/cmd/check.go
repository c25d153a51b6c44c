package cmd

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Lint keys, translations and module sync state",
	Long: `Report the health of the project:

  1. Modules changed since the last sync
  2. Orphaned keys: in the source locale but referenced by no module
  3. Missing keys: referenced by a module but absent from the source locale
  4. Keys each target language has not translated yet
  5. Locale files that do not load as i18next messages

The command exits non-zero when keys are missing. Use --details to list
every key instead of the counts.

Examples:
  i18nsync check                  # Summary
  i18nsync check --details        # List every key
  i18nsync check --format json    # For CI`,
	RunE: runCheck,
}

var checkDetails bool

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&checkDetails, "details", false, "List every key in the text output")
}

func runCheck(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	report, err := eng.Check(cmd.Context())
	if err != nil {
		return err
	}

	if err := writeReport(cmd, report, func(w io.Writer, d output.Density) {
		printCheck(w, report, checkDetails || d.IncludesUnchanged())
	}); err != nil {
		return err
	}

	if !report.OK() {
		return errCheckFailed
	}
	return nil
}

func printCheck(w io.Writer, r *engine.CheckReport, details bool) {
	section := func(title string, items []string, bad func(a ...interface{}) string, list bool) {
		if len(items) == 0 {
			fmt.Fprintf(w, "%s %s: none\n", green("✓"), title)
			return
		}
		fmt.Fprintf(w, "%s %s: %d\n", bad("!"), title, len(items))
		if list {
			for _, it := range items {
				fmt.Fprintf(w, "    %s\n", it)
			}
		}
	}

	section("Modules out of sync", r.OutOfSync, yellow, details)
	section("Orphaned keys", r.Orphaned, yellow, details)
	section("Missing keys", r.Missing, red, details)

	langs := make([]string, 0, len(r.Untranslated))
	for lang := range r.Untranslated {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	if len(langs) == 0 {
		fmt.Fprintf(w, "%s Untranslated keys: none\n", green("✓"))
	}
	for _, lang := range langs {
		section("Untranslated keys ("+lang+")", r.Untranslated[lang], yellow, details)
	}

	invalid := make([]string, 0, len(r.Invalid))
	for lang, reason := range r.Invalid {
		invalid = append(invalid, lang+": "+reason)
	}
	sort.Strings(invalid)
	section("Invalid locale files", invalid, red, true)

	if len(r.Unparsed) > 0 {
		fmt.Fprintf(w, "%s %s could not be scanned for keys\n", yellow("!"), plural(len(r.Unparsed), "module"))
		if details {
			for _, f := range r.Unparsed {
				fmt.Fprintf(w, "    %s\n", f)
			}
		}
	}

	if r.OK() {
		fmt.Fprintf(w, "\n%s\n", green("No missing keys."))
	} else {
		fmt.Fprintf(w, "\n%s\n", red("Missing keys found; run 'i18nsync sync' or fix the references."))
	}
}
