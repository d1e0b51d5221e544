package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/models"
)

var listFormat outputFormat

var listCmd = &cobra.Command{
	Use:   "list [registry]",
	Short: "List registries or the elements of one registry",
	Long: `Without arguments, list every registry with its element count.
With a registry, list its elements sorted by resource then namespace,
along with their change status.

Examples:
  voxel list
  voxel list enchantment
  voxel list tags/item --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listFormat.register(listCmd)
}

type registrySummary struct {
	Registry string `json:"registry" yaml:"registry"`
	Elements int    `json:"elements" yaml:"elements"`
}

type elementSummary struct {
	Key      string            `json:"key" yaml:"key"`
	ID       string            `json:"id" yaml:"id"`
	Path     string            `json:"path" yaml:"path"`
	Status   models.DiffStatus `json:"status" yaml:"status"`
	Selected bool              `json:"selected" yaml:"selected"`
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	if len(args) == 0 {
		var summaries []registrySummary
		for _, registry := range s.Configurator.Registries() {
			summaries = append(summaries, registrySummary{
				Registry: registry,
				Elements: len(s.Configurator.Registry(registry)),
			})
		}

		if ok, err := listFormat.write(summaries); ok {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(out, "No elements found")
			return nil
		}

		tw := newTable(table.Row{"REGISTRY", "ELEMENTS"})
		for _, r := range summaries {
			tw.AppendRow(table.Row{r.Registry, r.Elements})
		}
		tw.Render()
		return nil
	}

	diff, err := s.Changes.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile datapack: %w", err)
	}

	current := s.Configurator.CurrentElementID()
	var elements []elementSummary
	for _, id := range s.Configurator.SortedIdentifiers(args[0]) {
		elements = append(elements, elementSummary{
			Key:      id.Key(),
			ID:       id.String(),
			Path:     id.FilePath(),
			Status:   diff.Status(id.FilePath()),
			Selected: id.Key() == current,
		})
	}

	if ok, err := listFormat.write(elements); ok {
		return err
	}
	if len(elements) == 0 {
		fmt.Fprintf(out, "No elements in registry %s\n", args[0])
		return nil
	}

	fmt.Fprintf(out, "Found %d element(s) in %s:\n\n", len(elements), args[0])
	tw := newTable(table.Row{"", "ID", "STATUS", "PATH"})
	for _, e := range elements {
		marker := ""
		if e.Selected {
			marker = "▶"
		}
		tw.AppendRow(table.Row{marker, e.ID, e.Status, e.Path})
	}
	tw.Render()
	return nil
}
