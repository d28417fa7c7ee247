package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// printView renders a command result: JSON of view when asJSON is set,
// otherwise the human-readable text.
func printView(cmd *cobra.Command, asJSON bool, view any, human func(io.Writer)) error {
	out := cmd.OutOrStdout()
	if !asJSON {
		human(out)
		return nil
	}
	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s output: %w", cmd.Name(), err)
	}
	_, err = fmt.Fprintf(out, "%s\n", data)
	return err
}
