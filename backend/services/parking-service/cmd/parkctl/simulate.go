package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"smartparking/backend/services/parking-service/internal/parking"
)

func newSimulateCmd(load func() (*parking.Engine, error)) *cobra.Command {
	var (
		zone     string
		hours    int
		date     string
		startAt  string
		extend   int
		extendAt string
		checkAt  string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay a start, an optional extension and an expiry check",
		Example: `  parkctl simulate --zone "Zona 1 - Centar" --hours 2 --start 09:00 --extend 3 --extend-at 11:30 --check 14:01
  parkctl simulate --zone "Zona 3 - Stanica" --hours 4 --start 15:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			hoursIn := engine.Hours()

			start, err := parseAt(engine, date, startAt)
			if err != nil {
				return err
			}
			s, err := engine.Start(parking.StartRequest{Plate: "SIM", Zone: parking.ZoneID(zone), Hours: hours}, nil, start)
			if err != nil {
				return fmt.Errorf("start at %s: %w", startAt, err)
			}
			fmt.Fprintf(out, "start   %s  %dh  price %s  ends %s\n",
				hoursIn.In(start).Format("15:04"), s.DurationHours, s.Price.StringFixed(2), hoursIn.In(s.EndTime()).Format("15:04"))

			if extend > 0 {
				at, err := parseAt(engine, date, extendAt)
				if err != nil {
					return err
				}
				next, q, err := engine.Extend(s, extend, at)
				if err != nil {
					return fmt.Errorf("extend at %s: %w", extendAt, err)
				}
				s = next
				fmt.Fprintf(out, "extend  %s  +%dh  +%s  total %s  ends %s\n",
					hoursIn.In(at).Format("15:04"), q.AddedHours, q.AddedPrice.StringFixed(2), q.NewTotal.StringFixed(2), hoursIn.In(q.NewEndTime).Format("15:04"))
			}

			if checkAt != "" {
				at, err := parseAt(engine, date, checkAt)
				if err != nil {
					return err
				}
				e := engine.CheckExpiry(s, at)
				fmt.Fprintf(out, "check   %s  %s  remaining %s\n", hoursIn.In(at).Format("15:04"), e.Status, e.Remaining)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&zone, "zone", "", "Zone name (required)")
	cmd.Flags().IntVar(&hours, "hours", 1, "Whole hours paid at start")
	cmd.Flags().StringVar(&date, "date", "", "Day to simulate (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringVar(&startAt, "start", "09:00", "Start time (HH:MM)")
	cmd.Flags().IntVar(&extend, "extend", 0, "Hours to add, 0 to skip the extension")
	cmd.Flags().StringVar(&extendAt, "extend-at", "", "Extension time (HH:MM)")
	cmd.Flags().StringVar(&checkAt, "check", "", "Expiry check time (HH:MM)")
	cmd.MarkFlagRequired("zone")
	return cmd
}
