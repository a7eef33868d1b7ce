package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/sterileloop/internal/impact"
	"github.com/couchcryptid/sterileloop/internal/report"
	"github.com/spf13/cobra"
)

func newESGCmd(opts *rootOptions) *cobra.Command {
	var (
		in              impact.ESGInputs
		assumptionsPath string
		pdfPath         string
		csvPath         string
	)
	cmd := &cobra.Command{
		Use:   "esg",
		Short: "Estimate the ESG impact of sterile-insect release and irradiation",
		Long: `Prints the ESG report as JSON. --pdf and --csv additionally write the
formatted report and the metric table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := impact.DefaultAssumptions()
			if assumptionsPath != "" {
				var err error
				if a, err = impact.LoadAssumptions(assumptionsPath); err != nil {
					return err
				}
			}
			rep := impact.ESG(in, a)

			if pdfPath != "" {
				if err := writeWith(pdfPath, func(f *os.File) error { return report.WriteESGPDF(f, in, rep) }); err != nil {
					return err
				}
				opts.logger.Info("pdf report written", "path", pdfPath, "report_id", rep.ID)
			}
			if csvPath != "" {
				if err := writeWith(csvPath, func(f *os.File) error { return report.WriteESGCSV(f, in, rep) }); err != nil {
					return err
				}
				opts.logger.Info("csv report written", "path", csvPath)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		},
	}
	f := cmd.Flags()
	f.Float64Var(&in.Farms, "farms", 0, "number of participating farms")
	f.Float64Var(&in.Acres, "acres", 0, "treated acres")
	f.Float64Var(&in.PesticidePerAcre, "pesticide-per-acre", 0, "baseline pesticide use, lbs per acre per year")
	f.Float64Var(&in.SITReductionPct, "sit-reduction", 0, "pesticide reduction from sterile-insect release, percent")
	f.Float64Var(&in.IrradiationShelfPct, "shelf-gain", 0, "post-harvest loss avoided by irradiation, percent")
	f.Float64Var(&in.ProductionTons, "production", 0, "annual production, tons")
	f.StringVar(&assumptionsPath, "assumptions", "", "YAML file overriding the default coefficients")
	f.StringVar(&pdfPath, "pdf", "", "write the PDF report to this path")
	f.StringVar(&csvPath, "csv", "", "write the CSV metric table to this path")
	return cmd
}

// writeWith creates path and hands it to fn, removing the file if fn fails.
func writeWith(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
