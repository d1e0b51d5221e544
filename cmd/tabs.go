package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/models"
)

var tabsFormat outputFormat

var tabsCmd = &cobra.Command{
	Use:   "tabs",
	Short: "Show open tabs and navigation history",
	Args:  cobra.NoArgs,
	RunE:  runTabs,
}

var closeCmd = &cobra.Command{
	Use:   "close <index>",
	Short: "Close the tab at index (as shown by voxel tabs)",
	Args:  cobra.ExactArgs(1),
	RunE:  runClose,
}

func init() {
	rootCmd.AddCommand(tabsCmd)
	rootCmd.AddCommand(closeCmd)

	tabsFormat.register(tabsCmd)
}

type tabsReport struct {
	Tabs         []models.Tab `json:"tabs" yaml:"tabs"`
	Active       int          `json:"active" yaml:"active"`
	History      []string     `json:"history" yaml:"history"`
	HistoryIndex int          `json:"history_index" yaml:"history_index"`
	CanGoBack    bool         `json:"can_go_back" yaml:"can_go_back"`
	CanGoForward bool         `json:"can_go_forward" yaml:"can_go_forward"`
}

func runTabs(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	report := tabsReport{
		Tabs:         s.Tabs.Tabs(),
		Active:       s.Tabs.ActiveIndex(),
		History:      s.Navigation.History(),
		HistoryIndex: s.Navigation.Index(),
		CanGoBack:    s.Navigation.CanGoBack(),
		CanGoForward: s.Navigation.CanGoForward(),
	}
	if ok, err := tabsFormat.write(report); ok {
		return err
	}

	if len(report.Tabs) == 0 {
		fmt.Fprintln(out, "No open tabs")
		return nil
	}

	tw := newTable(table.Row{"#", "", "LABEL", "ELEMENT"})
	for i, tab := range report.Tabs {
		marker := ""
		if i == report.Active {
			marker = "▶"
		}
		tw.AppendRow(table.Row{i, marker, tab.Label, tab.ElementID})
	}
	tw.Render()

	fmt.Fprintf(out, "\nHistory: %d entr(ies), back: %t, forward: %t\n",
		len(report.History), report.CanGoBack, report.CanGoForward)
	return nil
}

func runClose(cmd *cobra.Command, args []string) error {
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid tab index %q: %w", args[0], err)
	}

	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	if !s.CloseTab(index) {
		return fmt.Errorf("no tab at index %d", index)
	}

	if tab, ok := s.Tabs.Active(); ok {
		fmt.Fprintf(out, "✓ Closed tab %d, now at %s\n", index, tab.ElementID)
	} else {
		fmt.Fprintf(out, "✓ Closed tab %d, no tabs left\n", index)
	}
	return nil
}
