package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/hargabyte/i18nsync/internal/config"
	"github.com/hargabyte/i18nsync/internal/engine"
	"github.com/hargabyte/i18nsync/internal/output"
)

// Shared utility functions for command implementations

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.Bold, color.FgYellow).SprintFunc()
	cyan   = color.New(color.Bold, color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

// stdin is replaced in tests.
var stdin io.Reader = os.Stdin

func outputFormatFlag() (output.Format, error) {
	return output.ParseFormat(outputFormat)
}

func outputDensityFlag() (output.Density, error) {
	return output.ParseDensity(outputDensity)
}

// loadEngine loads the project around --dir and builds an engine that logs
// through the command logger and asks on the terminal.
func loadEngine(cmd *cobra.Command) (*engine.Engine, error) {
	p, err := config.LoadProject(workDir)
	if err != nil {
		return nil, err
	}
	return engine.New(p,
		engine.WithLogger(logger),
		engine.WithConfirm(func(msg string) bool { return confirm(cmd, msg) }),
		engine.WithOutput(cmd.OutOrStdout()),
	), nil
}

// confirm asks a yes/no question on the terminal. Without a terminal the
// answer is no.
func confirm(cmd *cobra.Command, question string) bool {
	if f, ok := stdin.(*os.File); ok && !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		logger.Warn().Msg("no terminal to confirm on, answering no: " + firstLine(question))
		return false
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// writeReport encodes v in the structured --format, or calls text for the
// default human-readable output.
func writeReport(cmd *cobra.Command, v interface{}, text func(w io.Writer, d output.Density)) error {
	format, err := outputFormatFlag()
	if err != nil {
		return err
	}
	density, err := outputDensityFlag()
	if err != nil {
		return err
	}

	if !format.IsStructured() {
		text(cmd.OutOrStdout(), density)
		return nil
	}
	formatter, err := output.GetFormatter(format)
	if err != nil {
		return err
	}
	return formatter.FormatToWriter(cmd.OutOrStdout(), v, density)
}

// plural renders "1 file" / "2 files".
func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

// splitList accepts both repeated flags and comma-separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
