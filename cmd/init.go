package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the voxel configuration file",
	Long: `Write a default config file and create the session directory.

This command:
  - Writes $HOME/.config/voxel/config.toml (or --config) with current settings
  - Creates the directory the working copy is persisted to

Existing config files are left alone unless --force is given.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := configPath()

	exists, err := afero.Exists(appFs, path)
	if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	if exists && !initForce {
		fmt.Fprintf(out, "Config already exists: %s\n", path)
	} else {
		if err := appFs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}

		settings := config.Current()
		// tokens belong in VOXEL_API_TOKEN, not on disk
		settings.API.Token = ""

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(settings); err != nil {
			return fmt.Errorf("failed to encode config: %w", err)
		}
		if err := afero.WriteFile(appFs, path, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		fmt.Fprintf(out, "✓ Created config: %s\n", path)
	}

	dir := config.GetSessionDir()
	if err := appFs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	fmt.Fprintf(out, "✓ Session directory: %s\n", dir)

	fmt.Fprintln(out, "\n✓ voxel initialized successfully!")
	fmt.Fprintln(out, "  You can now use: voxel load <archive|directory>")

	return nil
}
