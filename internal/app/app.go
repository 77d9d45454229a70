// Package app wires configuration into the services shared by the binaries.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jengzang/records-activity-go/internal/analysis/pattern"
	"github.com/jengzang/records-activity-go/internal/apperr"
	"github.com/jengzang/records-activity-go/internal/cache"
	"github.com/jengzang/records-activity-go/internal/config"
	"github.com/jengzang/records-activity-go/internal/database"
	"github.com/jengzang/records-activity-go/internal/locations"
	"github.com/jengzang/records-activity-go/internal/logging"
	"github.com/jengzang/records-activity-go/internal/recorder"
	"github.com/jengzang/records-activity-go/internal/repository"
	"github.com/jengzang/records-activity-go/internal/service"
)

// App holds the wired services
type App struct {
	Config *config.Config
	Cache  *cache.LocationCache
	Agent  *service.LocationAgent
	Trips  *service.TripService
}

// New connects the recorder, opens the cache backend and loads the
// known-location catalogue
func New(cfg *config.Config) (*App, error) {
	client, err := recorder.New(recorder.Config{
		BaseURL:            cfg.Recorder.URL,
		Username:           cfg.Recorder.Username,
		Password:           cfg.Recorder.Password,
		Timeout:            cfg.Recorder.Timeout,
		BreakerMaxFailures: cfg.Recorder.BreakerMaxFailures,
		BreakerTimeout:     cfg.Recorder.BreakerTimeout,
	})
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg.Cache)
	if err != nil {
		return nil, err
	}
	loc := cfg.Location()
	c := cache.New(store, cache.Options{
		TTL:           cfg.Cache.TTL,
		HistoricalTTL: cfg.Cache.HistoricalTTL,
		Location:      loc,
	})

	catalogue, err := locations.LoadCatalogue(cfg.Locations.Catalogue)
	if err != nil {
		c.Close()
		return nil, apperr.Configuration("locations.catalogue", "%v", err)
	}
	logging.Info().Int("locations", len(catalogue)).Str("path", cfg.Locations.Catalogue).Msg("loaded known locations")

	opts := pattern.DefaultOptions()
	opts.Location = loc
	opts.OfficeHoursThreshold = cfg.Analysis.OfficeHoursThreshold
	opts.HomeHoursThreshold = cfg.Analysis.HomeHoursThreshold

	agent := service.NewLocationAgent(client, c, locations.NewRegistry(catalogue), service.AgentConfig{
		User:            cfg.Recorder.User,
		Device:          cfg.Recorder.Device,
		Location:        loc,
		Pattern:         opts,
		FrequentRadiusM: cfg.Analysis.FrequentRadiusM,
		LookupTolerance: cfg.Analysis.LookupTolerance,
	})

	return &App{
		Config: cfg,
		Cache:  c,
		Agent:  agent,
		Trips:  service.NewTripService(agent, c, cfg.Locations.TripsDir),
	}, nil
}

// OpenStore opens the configured cache backend
func OpenStore(cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "badger":
		db, err := repository.OpenBadger(cfg.Path)
		if err != nil {
			return nil, err
		}
		return repository.NewBadgerCacheRepository(db), nil
	case "sqlite":
		db, err := database.Open(database.Config{Path: cfg.Path})
		if err != nil {
			return nil, err
		}
		return repository.NewCacheRepository(db), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// PurgeLoop drops expired cache entries every interval until ctx is done
func (a *App) PurgeLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.Cache.Purge(ctx); err != nil {
				logging.Warn().Err(err).Msg("cache purge failed")
			}
		}
	}
}

// Close releases the cache backend
func (a *App) Close() error {
	return a.Cache.Close()
}
