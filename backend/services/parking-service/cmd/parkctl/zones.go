package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smartparking/backend/services/parking-service/internal/parking"
)

func newZonesCmd(load func() (*parking.Engine, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "zones",
		Short: "List zones and hourly rates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ZONE\tRATE/H")
			for _, z := range engine.Pricing().Zones() {
				fmt.Fprintf(w, "%s\t%s\n", z.ID, z.HourlyRate.StringFixed(2))
			}
			fmt.Fprintf(w, "hours\t%s\n", engine.Hours())
			return w.Flush()
		},
	}
}
