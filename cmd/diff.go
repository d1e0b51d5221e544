package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/models"
	"github.com/voxelio/voxel-studio/internal/patch"
)

var (
	diffPatch    bool
	diffContext  int
	diffMaxBytes int
	diffFormat   outputFormat
)

var diffCmd = &cobra.Command{
	Use:   "diff [path]",
	Short: "Show changed files, optionally as unified patches",
	Long: `List files that differ from the loaded datapack. With --patch, print a
unified diff for each change. A path limits the output to one file.

Examples:
  voxel diff
  voxel diff --patch
  voxel diff data/voxel/enchantment/sharpness.json --patch`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)

	diffCmd.Flags().BoolVar(&diffPatch, "patch", false, "Print unified diffs")
	diffCmd.Flags().IntVar(&diffContext, "context", 3, "Context lines around each hunk")
	diffCmd.Flags().IntVar(&diffMaxBytes, "max-bytes", 1<<20, "Omit patches for files larger than this (0 = no limit)")
	diffFormat.register(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	diff, err := s.Changes.Compile()
	if err != nil {
		return fmt.Errorf("failed to compile datapack: %w", err)
	}

	entries := diff.Sorted()
	if len(args) == 1 {
		path := models.NormalizePath(args[0])
		entries = []models.DiffEntry{{Path: path, Status: diff.Status(path)}}
	}

	if !diffPatch {
		if ok, err := diffFormat.write(entries); ok {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "No changes")
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(out, "%-9s %s\n", entry.Status, entry.Path)
		}
		return nil
	}

	opts := patch.Options{Context: diffContext, MaxBytes: diffMaxBytes}
	for _, entry := range entries {
		if entry.Status == models.StatusUnchanged {
			fmt.Fprintf(out, "%s is unchanged\n", entry.Path)
			continue
		}
		fmt.Fprint(out, patch.Unified(entry.Path, diff.Original[entry.Path], diff.Compiled[entry.Path], opts))
	}
	return nil
}
