// Command tripreport prints the activity report of a trip, or of one day, as
// markdown.
//
//	tripreport -trip scotland-2024 -name "Scotland" -start 2024-06-01 -end 2024-06-07
//	tripreport -date 2024-06-04
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/jengzang/records-activity-go/internal/app"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/config"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/models"
	"github.com/jengzang/records-activity-go/internal/service"
)

type options struct {
	config      string
	trip        string
	name        string
	destination string
	start       string
	end         string
	date        string
}

func main() {
	var o options
	flag.StringVar(&o.config, "config", "", "path to the YAML config file (default $ACTIVITY_CONFIG)")
	flag.StringVar(&o.trip, "trip", "", "trip id, selects <trips_dir>/<id>.json for trip-scoped locations")
	flag.StringVar(&o.name, "name", "", "trip name for the report heading")
	flag.StringVar(&o.destination, "destination", "", "trip destination")
	flag.StringVar(&o.start, "start", "", "first day of the trip (YYYY-MM-DD)")
	flag.StringVar(&o.end, "end", "", "last day of the trip (YYYY-MM-DD)")
	flag.StringVar(&o.date, "date", "", "report a single day instead of a trip")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "tripreport:", err)
		os.Exit(exitCode(err))
	}
}

func run(ctx context.Context, o options, out io.Writer) error {
	if o.date == "" && (o.start == "" || o.end == "") {
		return apperr.Validation("start", o.start, "-start and -end, or -date, are required")
	}

	cfg, err := config.Load(o.config)
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: "console", Output: os.Stderr})

	a, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	return report(ctx, a.Trips, o, out)
}

func report(ctx context.Context, trips *service.TripService, o options, out io.Writer) error {
	if o.date != "" {
		reg, err := trips.RegistryFor(o.trip)
		if err != nil {
			return err
		}
		ds, err := trips.AnalyzeDay(ctx, o.date, reg)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, service.RenderDailySummary(ds))
		return err
	}

	ta, err := trips.AnalyzeTrip(ctx, models.TripInfo{
		ID:          o.trip,
		Name:        o.name,
		StartDate:   o.start,
		EndDate:     o.end,
		Destination: o.destination,
	})
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, service.RenderTrip(ta))
	return err
}

// exitCode is 2 for errors the user can fix by changing input or config
func exitCode(err error) int {
	if apperr.IsConfiguration(err) || apperr.IsValidation(err) {
		return 2
	}
	return 1
}
