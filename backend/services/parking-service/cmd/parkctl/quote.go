package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartparking/backend/services/parking-service/internal/parking"
)

func newQuoteCmd(load func() (*parking.Engine, error)) *cobra.Command {
	var (
		zone  string
		hours int
	)
	cmd := &cobra.Command{
		Use:     "quote",
		Short:   "Price a stay in a zone",
		Example: `  parkctl quote --zone "Zona 1 - Centar" --hours 2`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			q, err := engine.QuoteStart(parking.ZoneID(zone), hours)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s, %dh at %s/h = %s\n", q.Zone, q.Hours, q.Rate.StringFixed(2), q.Price.StringFixed(2))
			return nil
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "", "Zone name (required)")
	cmd.Flags().IntVar(&hours, "hours", 1, "Whole hours to park")
	cmd.MarkFlagRequired("zone")
	return cmd
}
