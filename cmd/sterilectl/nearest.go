package main

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/sterileloop/internal/dataset"
	"github.com/couchcryptid/sterileloop/internal/domain"
	"github.com/spf13/cobra"
)

func newNearestCmd(opts *rootOptions) *cobra.Command {
	var (
		providersPath string
		lat, lng      float64
		count         int
	)
	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Rank providers by distance from a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			origin := domain.LatLng{Lat: lat, Lng: lng}
			if !origin.Valid() || math.Abs(lat) > 90 || math.Abs(lng) > 180 {
				return errors.New("--lat and --lng must be valid coordinates")
			}
			providers, err := dataset.ReadProviders(providersPath)
			if err != nil {
				return err
			}
			opts.logger.Debug("providers read", "path", providersPath, "count", len(providers))

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tDISTANCE_KM\tSERVICES")
			for _, r := range domain.Nearest(origin, providers, count) {
				dist := "-"
				if !math.IsInf(r.DistanceKm, 0) {
					dist = fmt.Sprintf("%.1f", r.DistanceKm)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Provider.ID, r.Provider.Name, dist, strings.Join(r.Provider.Services, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&providersPath, "providers", "data/providers.csv", "provider listing CSV")
	cmd.Flags().Float64Var(&lat, "lat", 0, "origin latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "origin longitude")
	cmd.Flags().IntVar(&count, "count", domain.DefaultNearestCount, "number of providers to list")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lng")
	return cmd
}
