// Command collabtui is a terminal demonstration client exercising
// TextEngine's rendering contract and WhiteboardEngine's replicated scene
// graph against a running collabd relay. It is a teaching aid, not a
// full editor: the whiteboard pane is read-only (a terminal has no
// pointer-drawn SVG surface), and the text pane edits the whole buffer
// through ApplyTextDiff rather than tracking individual keystrokes.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
)

// teaCtx is the process-lifetime context used for the WebSocket connection;
// cancelled when the bubbletea program exits.
var teaCtx = context.Background()

var rootCmd = &cobra.Command{
	Use:   "collabtui <addr> <doc-id>",
	Short: "Terminal client for a collabcore document",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(args[0], args[1])
	},
}

func runTUI(addr, docID string) error {
	zone.NewGlobal()
	defer zone.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	teaCtx = ctx

	m := newModel(addr, docID)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
