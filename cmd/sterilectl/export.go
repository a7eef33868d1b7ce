package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/sterileloop/internal/dataset"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/couchcryptid/sterileloop/internal/overlay"
	"github.com/couchcryptid/sterileloop/internal/report"
	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		datasetPath string
		out         string
		year        int
		state       string
	)
	cmd := &cobra.Command{
		Use:       "export xlsx|shp|png",
		Short:     "Render the overlay as a workbook, zipped shapefile or bar chart",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"xlsx", "shp", "png"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.ReadFile(cmd.Context(), datasetPath)
			if err != nil {
				return err
			}
			centroids := domain.ResolveCentroids(cmd.Context(), ds.StateNames(), nil, opts.logger)
			snap := domain.NewSnapshot(ds, centroids, datasetPath)
			features := overlay.Build(snap, overlay.View{Year: year, State: state}, domain.MeterScale)

			format := args[0]
			err = writeWith(out, func(f *os.File) error {
				switch format {
				case "xlsx":
					return report.WriteWorkbook(f, snap, features)
				case "shp":
					base := strings.TrimSuffix(filepath.Base(out), filepath.Ext(out))
					return report.WriteShapefileZip(f, features, base)
				default:
					return report.RenderYearChart(f, snap, year)
				}
			})
			if err != nil {
				return err
			}
			opts.logger.Info("export written", "format", format, "path", out, "features", len(features))
			return nil
		},
	}
	cmd.Flags().StringVar(&datasetPath, "dataset", "data/pesticide_summary.json", "dataset file (.json summary or delimited table)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file")
	cmd.Flags().IntVar(&year, "year", 0, "draw one year instead of all-years totals")
	cmd.Flags().StringVar(&state, "state", "", fmt.Sprintf("draw one state (default %q)", overlay.AllStates))
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
