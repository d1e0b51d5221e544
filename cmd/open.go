package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var openCmd = &cobra.Command{
	Use:   "open <element>",
	Short: "Select an element and open it in a tab",
	Long: `Select an element for editing. The element is opened in a tab and
recorded in the navigation history.

Elements can be named by full key or by namespace:resource when unique.
Pass "-" to return to the overview.

Examples:
  voxel open enchantment/voxel:sharpness
  voxel open voxel:sharpness
  voxel open -`,
	Args: cobra.ExactArgs(1),
	RunE: runOpen,
}

var backCmd = &cobra.Command{
	Use:   "back",
	Short: "Go back to the previously opened element",
	Args:  cobra.NoArgs,
	RunE:  runBack,
}

var forwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Go forward in the navigation history",
	Args:  cobra.NoArgs,
	RunE:  runForward,
}

func init() {
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(backCmd)
	rootCmd.AddCommand(forwardCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	if args[0] == "-" {
		if err := s.Configurator.SetCurrentElementID(""); err != nil {
			return err
		}
		fmt.Fprintln(out, "✓ Overview")
		return nil
	}

	key, err := resolveElement(s, args[0])
	if err != nil {
		return err
	}
	if err := s.Open(key); err != nil {
		return fmt.Errorf("failed to open %s: %w", key, err)
	}

	el, _ := s.Configurator.CurrentElement()
	fmt.Fprintf(out, "✓ Opened %s\n", el.Identifier)
	fmt.Fprintf(out, "  Registry: %s\n", el.Identifier.Registry)
	fmt.Fprintf(out, "  Path:     %s\n", el.Identifier.FilePath())
	fmt.Fprintf(out, "  Tabs:     %d\n", len(s.Tabs.Tabs()))
	return nil
}

func runBack(cmd *cobra.Command, args []string) error {
	return step(cmd, "back", true)
}

func runForward(cmd *cobra.Command, args []string) error {
	return step(cmd, "forward", false)
}

func step(cmd *cobra.Command, direction string, back bool) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	var id string
	var ok bool
	if back {
		id, ok = s.Back()
	} else {
		id, ok = s.Forward()
	}
	if !ok {
		fmt.Fprintf(out, "Cannot go %s\n", direction)
		return nil
	}

	if s.Configurator.CurrentElementID() == "" {
		fmt.Fprintf(out, "✓ %s was deleted, showing overview\n", id)
		return nil
	}
	fmt.Fprintf(out, "✓ Now at %s\n", id)
	return nil
}
