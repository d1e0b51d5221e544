package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/session"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print a line whenever another voxel process changes the session",
	Long: `Follow the persisted session. Every time another voxel command saves or
clears the working copy, a summary is printed. Stop with Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage := sessionStorage()
	store := session.New(storage, *zerolog.Ctx(ctx))

	fmt.Fprintf(out, "Watching %s\n", storage.Dir())
	return storage.Watch(ctx, session.Key, func() {
		now := time.Now().Format("15:04:05")
		state, ok := store.Load(ctx)
		if !ok {
			fmt.Fprintf(out, "[%s] session cleared\n", now)
			return
		}
		fmt.Fprintf(out, "[%s] %s: %d edit(s)", now, state.Name, len(state.LoggerFiles))
		if name := state.Export.FullName(); name != "" {
			fmt.Fprintf(out, ", linked to %s", name)
		}
		fmt.Fprintln(out)
	})
}
