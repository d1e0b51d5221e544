package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/datapack"
)

var (
	editSet    []string
	editUnset  []string
	editAppend []string
	editToggle []string
)

var editCmd = &cobra.Command{
	Use:   "edit [element]",
	Short: "Edit fields of the selected element",
	Long: `Apply edits to the selected element, or to the given element after
opening it. Paths are dot separated; list items are addressed by index.
Values are parsed as JSON and fall back to a plain string.

Actions run in the order set, unset, append, toggle.

Examples:
  voxel edit --set max_level=3
  voxel edit voxel:sharpness --set weight=2 --unset exclusive_set
  voxel edit --append supported_items=\"#minecraft:swords\"
  voxel edit --toggle tags=minecraft:curse`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)

	editCmd.Flags().StringArrayVar(&editSet, "set", nil, "Set path=value")
	editCmd.Flags().StringArrayVar(&editUnset, "unset", nil, "Remove the value at path")
	editCmd.Flags().StringArrayVar(&editAppend, "append", nil, "Append value to the list at path=value")
	editCmd.Flags().StringArrayVar(&editToggle, "toggle", nil, "Add or remove value in the list at path=value")
}

func runEdit(cmd *cobra.Command, args []string) error {
	actions, err := buildActions()
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		return errors.New("nothing to do - use --set, --unset, --append or --toggle")
	}

	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	if len(args) == 1 {
		key, err := resolveElement(s, args[0])
		if err != nil {
			return err
		}
		if err := s.Open(key); err != nil {
			return err
		}
	}

	if gate := s.RequireElement(); !gate.OK {
		return fmt.Errorf("cannot edit: %s - run: voxel open <element>", gate.Reason)
	}

	el, _ := s.Configurator.CurrentElement()
	for i, action := range actions {
		if err := s.Configurator.HandleChange(action); err != nil {
			if i > 0 {
				fmt.Fprintf(out, "Applied %d of %d change(s) before the failure\n", i, len(actions))
			}
			return err
		}
	}

	diff, err := s.Changes.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile datapack: %w", err)
	}

	fmt.Fprintf(out, "✓ Applied %d change(s) to %s\n", len(actions), el.Identifier)
	fmt.Fprintf(out, "  Status: %s\n", diff.Status(el.Identifier.FilePath()))
	return nil
}

func buildActions() ([]datapack.Action, error) {
	var actions []datapack.Action

	for _, arg := range editSet {
		path, value, err := splitAssignment("set", arg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, datapack.Action{Type: datapack.ActionSetValue, Path: path, Value: value})
	}
	for _, arg := range editUnset {
		actions = append(actions, datapack.RemoveValue(datapack.ParsePath(arg)))
	}
	for _, arg := range editAppend {
		path, value, err := splitAssignment("append", arg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, datapack.Action{Type: datapack.ActionAppendValue, Path: path, Value: value})
	}
	for _, arg := range editToggle {
		path, value, err := splitAssignment("toggle", arg)
		if err != nil {
			return nil, err
		}
		actions = append(actions, datapack.Action{Type: datapack.ActionToggleValue, Path: path, Value: value})
	}

	for _, a := range actions {
		if err := a.Validate(); err != nil {
			return nil, err
		}
	}
	return actions, nil
}

// splitAssignment parses path=value; value is kept as JSON when valid and
// quoted as a string otherwise
func splitAssignment(flag, arg string) ([]string, json.RawMessage, error) {
	path, raw, ok := strings.Cut(arg, "=")
	if !ok || path == "" {
		return nil, nil, fmt.Errorf("invalid --%s %q (expected path=value)", flag, arg)
	}
	if json.Valid([]byte(raw)) {
		return datapack.ParsePath(path), json.RawMessage(raw), nil
	}
	quoted, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, err
	}
	return datapack.ParsePath(path), quoted, nil
}
