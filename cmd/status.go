package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/models"
)

var statusFormat outputFormat

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working copy and what changed",
	Long: `Show the loaded datapack, the selected element, the linked repository
and every file that differs from the loaded original.

Examples:
  voxel status
  voxel status --json
  voxel status --toon`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusFormat.register(statusCmd)
}

type statusReport struct {
	Name       string             `json:"name" yaml:"name"`
	PackFormat *int               `json:"pack_format" yaml:"pack_format"`
	Modded     bool               `json:"modded" yaml:"modded"`
	Selected   string             `json:"selected,omitempty" yaml:"selected,omitempty"`
	Repository string             `json:"repository,omitempty" yaml:"repository,omitempty"`
	Branch     string             `json:"branch,omitempty" yaml:"branch,omitempty"`
	Edits      int                `json:"edits" yaml:"edits"`
	Added      int                `json:"added" yaml:"added"`
	Modified   int                `json:"modified" yaml:"modified"`
	Removed    int                `json:"removed" yaml:"removed"`
	Changes    []models.DiffEntry `json:"changes" yaml:"changes"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	diff, err := s.Changes.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile datapack: %w", err)
	}

	exp := s.Export.State()
	report := statusReport{
		Name:       s.Configurator.Name(),
		PackFormat: s.Configurator.PackVersion(),
		Modded:     s.Configurator.IsModded(),
		Selected:   s.Configurator.CurrentElementID(),
		Repository: exp.FullName(),
		Branch:     exp.Branch,
		Edits:      s.Configurator.ChangeLog().Len(),
		Added:      diff.Count(models.StatusAdded),
		Modified:   diff.Count(models.StatusModified),
		Removed:    diff.Count(models.StatusRemoved),
		Changes:    diff.Sorted(),
	}
	if report.Changes == nil {
		report.Changes = []models.DiffEntry{}
	}

	if ok, err := statusFormat.write(report); ok {
		return err
	}

	fmt.Fprintf(out, "Datapack: %s\n", report.Name)
	if report.PackFormat != nil {
		fmt.Fprintf(out, "Format:   %d\n", *report.PackFormat)
	}
	if report.Selected != "" {
		fmt.Fprintf(out, "Editing:  %s\n", report.Selected)
	} else {
		fmt.Fprintln(out, "Editing:  (overview)")
	}
	if report.Repository != "" {
		fmt.Fprintf(out, "Linked:   %s (%s)\n", report.Repository, report.Branch)
	}
	fmt.Fprintln(out)

	if diff.Empty() {
		fmt.Fprintln(out, "No changes")
		return nil
	}

	fmt.Fprintf(out, "Changes (%d edit(s)): %d added, %d modified, %d removed\n\n",
		report.Edits, report.Added, report.Modified, report.Removed)
	for _, entry := range report.Changes {
		fmt.Fprintf(out, "  %-9s %s\n", entry.Status, entry.Path)
	}
	return nil
}
