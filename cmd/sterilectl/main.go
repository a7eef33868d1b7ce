// Command sterilectl works with pesticide datasets, provider listings and
// impact reports offline, using the same packages as the overlay service.
//
// Usage:
//
//	sterilectl aggregate data/usage.tsv --top 10
//	sterilectl summarize data/usage.tsv data/pesticide_summary.json
//	sterilectl nearest --providers data/providers.csv --lat 41.6 --lng -93.6
//	sterilectl esg --acres 1000 --pesticide-per-acre 2 --pdf report.pdf
//	sterilectl export xlsx --dataset data/pesticide_summary.json --out overlay.xlsx
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/sterileloop/internal/observability"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	verbose bool
	logger  *slog.Logger
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "sterilectl",
		Short:         "Pesticide overlay and sterile-insect impact tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			opts.logger = observability.NewCLILogger(logOut, opts.verbose)
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newAggregateCmd(opts),
		newSummarizeCmd(opts),
		newConvertCmd(opts),
		newNearestCmd(opts),
		newESGCmd(opts),
		newExportCmd(opts),
	)
	return root
}
