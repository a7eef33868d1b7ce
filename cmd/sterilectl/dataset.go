package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/couchcryptid/sterileloop/internal/dataset"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/spf13/cobra"
)

func newAggregateCmd(opts *rootOptions) *cobra.Command {
	var (
		top  int
		year int
	)
	cmd := &cobra.Command{
		Use:   "aggregate <dataset>",
		Short: "Print per-state totals, largest first",
		Long: `Aggregates a delimited usage table or a JSON summary and prints one row per
state. With --year only that year's usage is counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if ds.Empty() {
				return fmt.Errorf("%s: %w", args[0], dataset.ErrEmptyDataset)
			}
			opts.logger.Debug("dataset read", "path", args[0], "states", len(ds.States), "records", ds.RecordCount())

			totals := ds.StateTotals()
			if year != 0 {
				if !ds.Years.Has(year) {
					return fmt.Errorf("year %d is not in the dataset", year)
				}
				totals = ds.YearTotals(year)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(tw, "STATE\tTOTAL_KG\tTOP_COMPOUND\tTOP_YEAR\t")
			for _, sv := range domain.RankValues(totals, top) {
				d, _ := ds.Detail(sv.State)
				topYear := ""
				if d.TopYear != 0 {
					topYear = strconv.Itoa(d.TopYear)
				}
				fmt.Fprintf(tw, "%s\t%.0f\t%s\t%s\t\n", sv.State, sv.Value, d.TopCompound, topYear)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "limit to the n largest states (0 for all)")
	cmd.Flags().IntVar(&year, "year", 0, "count only this year")
	return cmd
}

func newSummarizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <table> <summary.json>",
		Short: "Precompute the JSON summary the service loads",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.ReadFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := writeJSONFile(args[1], ds.Summary()); err != nil {
				return err
			}
			opts.logger.Info("summary written", "path", args[1], "states", len(ds.States), "years", len(ds.Years))
			return nil
		},
	}
}

func newConvertCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "convert <table> <records.json>",
		Short: "Convert a delimited usage table to a JSON array of records",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			records, err := dataset.ParseDelimited(f)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}
			if records == nil {
				records = []domain.UsageRecord{}
			}
			if err := writeJSONFile(args[1], records); err != nil {
				return err
			}
			opts.logger.Info("records written", "path", args[1], "records", len(records))
			return nil
		},
	}
}

func writeJSONFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
