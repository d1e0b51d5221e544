package cmd

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/voxelio/voxel-studio/internal/session"
)

var sessionFormat outputFormat

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect or clear the persisted working copy",
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show what is persisted",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the working copy, tabs, history and repository link",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)

	sessionFormat.register(sessionShowCmd)
}

type sessionReport struct {
	Dir        string     `json:"dir" yaml:"dir"`
	Exists     bool       `json:"exists" yaml:"exists"`
	Readable   bool       `json:"readable" yaml:"readable"`
	Name       string     `json:"name,omitempty" yaml:"name,omitempty"`
	Files      int        `json:"files" yaml:"files"`
	Bytes      int        `json:"bytes" yaml:"bytes"`
	Changes    int        `json:"changes" yaml:"changes"`
	Repository string     `json:"repository,omitempty" yaml:"repository,omitempty"`
	SavedAt    *time.Time `json:"saved_at,omitempty" yaml:"saved_at,omitempty"`
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	storage := sessionStorage()
	store := session.New(storage, *zerolog.Ctx(ctx))

	report := sessionReport{Dir: storage.Dir(), Exists: store.HasSession()}
	if state, ok := store.Load(ctx); ok {
		report.Readable = true
		report.Name = state.Name
		report.Files = len(state.Files)
		report.Bytes = state.Files.Size()
		report.Changes = len(state.LoggerFiles)
		report.Repository = state.Export.FullName()
		if !state.Timestamp.IsZero() {
			ts := state.Timestamp
			report.SavedAt = &ts
		}
	}

	if ok, err := sessionFormat.write(report); ok {
		return err
	}

	fmt.Fprintf(out, "Session: %s\n", report.Dir)
	switch {
	case !report.Exists:
		fmt.Fprintln(out, "  No session saved")
	case !report.Readable:
		fmt.Fprintln(out, "  Session is unreadable and will be discarded on the next load")
	default:
		fmt.Fprintf(out, "  Datapack: %s (%d files, %d bytes)\n", report.Name, report.Files, report.Bytes)
		fmt.Fprintf(out, "  Edits:    %d\n", report.Changes)
		if report.Repository != "" {
			fmt.Fprintf(out, "  Linked:   %s\n", report.Repository)
		}
		if report.SavedAt != nil {
			fmt.Fprintf(out, "  Saved:    %s\n", report.SavedAt.Local().Format("2006-01-02 15:04:05"))
		}
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)
	s := openStudio(ctx)
	defer s.Dispose()

	if err := s.ClearSession(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "✓ Session cleared")
	return nil
}
