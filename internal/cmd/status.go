package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
	"github.com/hargabyte/i18nsync/internal/state"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which string modules changed since the last sync",
	Long: `List the tracked string modules with their state relative to the last
recorded sync: synced, changed, new, or removed.

With the dolt state backend the most recent sync commits are shown too.

Examples:
  i18nsync status                     # Changed and new modules
  i18nsync status --density dense     # Every module
  i18nsync status --format json       # For scripts`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	eng, err := loadEngine(cmd)
	if err != nil {
		return err
	}

	report, err := eng.Status(cmd.Context())
	if err != nil {
		return err
	}

	return writeReport(cmd, report, func(w io.Writer, d output.Density) {
		printStatus(w, report, d)
	})
}

func printStatus(w io.Writer, r *engine.StatusReport, d output.Density) {
	fmt.Fprintf(w, "State: %s (%s)\n", r.Path, r.Backend)

	if d.IncludesDetails() {
		for _, f := range r.Files {
			if f.Status == state.StatusSynced && !d.IncludesUnchanged() {
				continue
			}
			fmt.Fprintf(w, "  %-8s %s\n", statusLabel(f.Status), f.Path)
		}
	}

	c := r.Counts()
	fmt.Fprintf(w, "\n%d synced, %d changed, %d new, %d removed\n",
		c[state.StatusSynced], c[state.StatusChanged], c[state.StatusNew], c[state.StatusRemoved])

	if d.IncludesDetails() && len(r.History) > 0 {
		fmt.Fprintf(w, "\n%s\n", cyan("Recent syncs"))
		for _, h := range r.History {
			fmt.Fprintf(w, "  %s %s %s\n", faint(short(h.Hash)), h.Date, h.Message)
		}
	}
}

func statusLabel(s state.Status) string {
	switch s {
	case state.StatusChanged:
		return yellow(string(s))
	case state.StatusNew:
		return green(string(s))
	case state.StatusRemoved:
		return red(string(s))
	default:
		return faint(string(s))
	}
}

func short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
