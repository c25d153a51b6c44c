package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// translateCmd represents the translate command
var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Fill translations missing from target languages",
	Long: `Translate every source key that a target language lacks or holds empty.

Translation uses DeepL and needs DEEPL_API_KEY in the environment or in a
.env file at the project root. Placeholders such as {{name}} are protected
from translation. A language that fails is reported and its file is left
untouched; the other languages still complete.

Examples:
  i18nsync translate              # All target languages
  i18nsync translate --lang fr    # Only French
  i18nsync translate --dry-run    # Print diffs, write nothing`,
	RunE: runTranslate,
}

var (
	translateLangs  []string
	translateDryRun bool
)

func init() {
	rootCmd.AddCommand(translateCmd)
	translateCmd.Flags().StringSliceVar(&translateLangs, "lang", nil, "Target languages (default: all)")
	translateCmd.Flags().BoolVar(&translateDryRun, "dry-run", false, "Show the changes without writing anything")
}

func runTranslate(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	report, err := eng.TranslateMissing(cmd.Context(), engine.TranslateOptions{
		Languages: splitList(translateLangs),
		DryRun:    translateDryRun,
	})
	if err != nil {
		return err
	}

	failed := false
	for _, l := range report.Languages {
		failed = failed || l.Error != ""
	}

	if err := writeReport(cmd, report, func(w io.Writer, _ output.Density) {
		if len(report.Languages) == 0 {
			fmt.Fprintln(w, "No target languages configured; add one with 'i18nsync init <lang>'.")
		}
		for _, l := range report.Languages {
			if l.Error != "" {
				fmt.Fprintf(w, "%s %s: %s\n", red("✗"), l.Language, l.Error)
				continue
			}
			fmt.Fprintf(w, "%s %s: %s translated\n", green("✓"), l.Language, plural(l.Translated, "string"))
		}
	}); err != nil {
		return err
	}

	if failed {
		return fmt.Errorf("translation failed for some languages")
	}
	return nil
}
