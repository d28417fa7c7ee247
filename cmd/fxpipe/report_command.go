package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fxpipe/internal/fx"
	"fxpipe/internal/pipeline"
	"fxpipe/internal/services"
)

var missingColumns = []column{
	{title: "Pair"},
	{title: "Missing", numeric: true},
	{title: "Months", wrap: 54},
}

type missingMonthView struct {
	Pair  string `json:"currency_pair"`
	Month string `json:"month"`
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var pairFilter string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show the months without observations per currency pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			missing, err := pipeline.ReadMissingData(store)
			if err != nil {
				if errors.Is(err, services.ErrNotFound) {
					return errors.New("no missing-data report yet; run `fxpipe run` first")
				}
				return err
			}
			if filter := strings.TrimSpace(pairFilter); filter != "" {
				pair, err := fx.ParsePair(filter)
				if err != nil {
					return fmt.Errorf("--pair: %w", err)
				}
				missing = filterPair(missing, pair)
			}

			views := make([]missingMonthView, 0, len(missing))
			for _, m := range missing {
				views = append(views, missingMonthView{Pair: m.Pair.String(), Month: m.Month.String()})
			}
			return printView(cmd, jsonOut, views, func(out io.Writer) {
				if len(missing) == 0 {
					fmt.Fprintln(out, "No missing months.")
					return
				}
				rows := groupMissing(missing)
				fmt.Fprintln(out, renderTable(missingColumns, rows, "Total", strconv.Itoa(len(missing))))
				fmt.Fprintf(out, "%d missing month(s) across %d pair(s)\n", len(missing), len(rows))
			})
		},
	}

	cmd.Flags().StringVar(&pairFilter, "pair", "", "Only show one currency pair (e.g. EUR_USD)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
	return cmd
}

func filterPair(missing []fx.MissingMonth, pair fx.Pair) []fx.MissingMonth {
	var kept []fx.MissingMonth
	for _, m := range missing {
		if m.Pair == pair {
			kept = append(kept, m)
		}
	}
	return kept
}

// groupMissing folds consecutive rows of the same pair into one table row.
func groupMissing(missing []fx.MissingMonth) [][]string {
	var rows [][]string
	var months []string
	var current fx.Pair
	flush := func() {
		if len(months) == 0 {
			return
		}
		rows = append(rows, []string{current.String(), strconv.Itoa(len(months)), strings.Join(months, ", ")})
		months = nil
	}
	for _, m := range missing {
		if m.Pair != current {
			flush()
			current = m.Pair
		}
		months = append(months, m.Month.String())
	}
	flush()
	return rows
}
