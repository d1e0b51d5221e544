package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var createOpen bool

var createCmd = &cobra.Command{
	Use:   "create <registry/namespace:resource> [json]",
	Short: "Create a new element",
	Long: `Create a new element from a JSON document (an empty object by default).

Examples:
  voxel create enchantment/voxel:smite '{"max_level":5}'
  voxel create tags/item/voxel:swords '{"values":[]}' --open`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCreate,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <element>",
	Short: "Delete an element",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(deleteCmd)

	createCmd.Flags().BoolVar(&createOpen, "open", false, "Open the element after creating it")
}

func runCreate(cmd *cobra.Command, args []string) error {
	id, err := parseIdentifier(args[0])
	if err != nil {
		return err
	}

	var data any = map[string]any{}
	if len(args) == 2 {
		if err := json.Unmarshal([]byte(args[1]), &data); err != nil {
			return fmt.Errorf("invalid element JSON: %w", err)
		}
	}

	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	if err := s.Configurator.CreateElement(id, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "✓ Created %s at %s\n", id, id.FilePath())

	if createOpen {
		return s.Open(id.Key())
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	key, err := resolveElement(s, args[0])
	if err != nil {
		return err
	}
	el, _ := s.Configurator.Element(key)
	if err := s.DeleteElement(el.Identifier); err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Deleted %s\n", el.Identifier)
	return nil
}
