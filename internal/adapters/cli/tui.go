package cli

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xcro3dile/linesearch-go/internal/adapters/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [files...]",
	Short: "Launch the interactive terminal UI",
	Long: `Launch the terminal UI. Files given as arguments are loaded first.

Controls:
  Enter               - Search / run command
  /load <path>        - Load a local file
  /url <url>          - Fetch a URL
  /github <url>       - Fetch a GitHub file
  /reset              - Discard all records
  Up/Down, PgUp/PgDn  - Scroll results
  Ctrl+C              - Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// errNotTerminal is returned when the TUI is started without a terminal.
var errNotTerminal = errors.New("tui requires an interactive terminal")

// isTerminal is replaced in tests.
var isTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

func runTUI(cmd *cobra.Command, args []string) error {
	if !isTerminal() {
		return errNotTerminal
	}
	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	for _, path := range args {
		if _, err := a.session.LoadFile(ctx, path); err != nil {
			return fmt.Errorf("%s %s: %w", a.session.Snapshot().Error, path, err)
		}
	}

	p := tea.NewProgram(tui.New(ctx, a.session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
