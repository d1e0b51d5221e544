package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/export"
)

var compileOutput string

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Write the working copy as a datapack archive",
	Long: `Compile every element and write the datapack as a zip archive.
Archives are deterministic: the same working copy always produces the same
bytes.

Examples:
  voxel compile -o my-pack.zip`,
	Args: cobra.NoArgs,
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "Output archive path (default <name>.zip)")
}

func runCompile(cmd *cobra.Command, args []string) error {
	s, err := loadedStudio(commandContext(cmd))
	if err != nil {
		return err
	}
	defer s.Dispose()

	path := compileOutput
	if path == "" {
		path = s.Configurator.Name() + ".zip"
	}

	f, err := appFs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := export.Archive(s.Configurator, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(out, "✓ Wrote %s\n", path)
	return nil
}
