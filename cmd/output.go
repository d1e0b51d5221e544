package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alpkeskin/gotoon"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// out receives command output; tests swap it for a buffer
var out io.Writer = os.Stdout

// outputFormat selects a machine-readable rendering
type outputFormat struct {
	JSON bool
	Toon bool
	YAML bool
}

func (f *outputFormat) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.JSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&f.Toon, "toon", false, "Output in LLM-friendly toon format")
	cmd.Flags().BoolVar(&f.YAML, "yaml", false, "Output as YAML")
}

// write renders v when a structured format was requested and reports
// whether it did
func (f outputFormat) write(v any) (bool, error) {
	switch {
	case f.JSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(out, string(output))
	case f.Toon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return true, fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(out, output)
	case f.YAML:
		output, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Fprint(out, string(output))
	default:
		return false, nil
	}
	return true, nil
}

func newTable(header table.Row) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.AppendHeader(header)
	tw.SetStyle(table.StyleLight)
	return tw
}

// commandContext tolerates the nil command tests pass to runX functions
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
