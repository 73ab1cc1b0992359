package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	libconfig "smartparking/backend/libs/config"
	"smartparking/backend/services/parking-service/internal/config"
	"smartparking/backend/services/parking-service/internal/parking"
)

var version = "dev"

// newRootCmd builds the command tree. Each call returns fresh flag state.
func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "parkctl",
		Short: "parkctl - offline tools for the parking tariff and session rules",
		Long: `parkctl evaluates the parking tariff and session rules without touching
the database: list zones, price a stay, and replay a start/extend/expiry
sequence at chosen times.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to parking-service YAML config")

	load := func() (*parking.Engine, error) {
		return loadEngine(configPath)
	}
	root.AddCommand(newZonesCmd(load), newQuoteCmd(load), newSimulateCmd(load))
	return root
}

// loadEngine builds the engine from the service configuration, ignoring
// settings that only matter to the running service.
func loadEngine(path string) (*parking.Engine, error) {
	cfg := config.Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if err := libconfig.LoadConfigFile(path, cfg); err != nil {
		return nil, err
	}
	hours, err := cfg.OperatingHours()
	if err != nil {
		return nil, err
	}
	pricing, err := cfg.PricingTable()
	if err != nil {
		return nil, err
	}
	return parking.NewEngine(pricing, hours, cfg.Parking.ReminderLead), nil
}

// parseAt reads "HH:MM" on date (YYYY-MM-DD, default today) in the engine's time zone.
func parseAt(engine *parking.Engine, date, clock string) (time.Time, error) {
	day := engine.Hours().In(time.Now())
	if date != "" {
		d, err := time.Parse("2006-01-02", date)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
		}
		day = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, day.Location())
	}
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// Execute runs the root command.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
