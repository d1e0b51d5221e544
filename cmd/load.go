package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/datapack"
	"github.com/voxelio/voxel-studio/internal/git"
)

var (
	loadLink   bool
	loadRemote string
)

var loadCmd = &cobra.Command{
	Use:   "load <archive|directory>",
	Short: "Load a datapack as the working copy",
	Long: `Load a datapack zip/jar archive or an unpacked directory.

The previous working copy, its tabs and history are discarded.

Examples:
  voxel load my-pack.zip
  voxel load ./my-pack
  voxel load ./my-pack --link`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)

	loadCmd.Flags().BoolVar(&loadLink, "link", false, "Link to the GitHub repository of a local checkout")
	loadCmd.Flags().StringVar(&loadRemote, "remote", "origin", "Git remote used with --link")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	upload, err := datapack.OpenUpload(appFs, args)
	if err != nil {
		return err
	}

	s := openStudio(ctx)
	defer s.Dispose()

	result, err := s.Configurator.Analyser().Parse(ctx, upload.Name, upload.Files)
	if err != nil {
		return fmt.Errorf("failed to parse datapack: %w", err)
	}
	s.Load(ctx, result)

	fmt.Fprintf(out, "✓ Loaded %s\n", result.Name)
	fmt.Fprintf(out, "  Files:    %d\n", len(result.Files))
	fmt.Fprintf(out, "  Elements: %d\n", len(result.Elements))
	if result.Version != nil {
		fmt.Fprintf(out, "  Format:   %d\n", *result.Version)
	}
	if result.IsModded {
		fmt.Fprintln(out, "  Modded:   yes")
	}

	if loadLink {
		if err := linkFromCheckout(ctx, s, args[0], loadRemote); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	} else if git.IsRepo(args[0]) {
		if dirty, err := git.HasUncommittedChanges(args[0]); err == nil && dirty {
			fmt.Fprintln(os.Stderr, "Warning: the checkout has uncommitted changes")
		}
	}

	return nil
}
