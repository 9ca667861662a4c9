package app

import (
	"log/slog"

	"nexttram.org/internal/alexa"
	"nexttram.org/internal/catalog"
	"nexttram.org/internal/config"
	"nexttram.org/internal/itinerary"
	"nexttram.org/internal/preferences"
	"nexttram.org/internal/routing"
	"nexttram.org/internal/schedule"
)

// Application holds what the HTTP handlers need: the loaded configuration,
// the stop catalog and the dispatcher in front of the itinerary engine.
type Application struct {
	Config     *config.Config
	Catalog    *catalog.Catalog
	Dispatcher *alexa.Dispatcher
	Logger     *slog.Logger
	Version    string
}

// New wires the resolvers, the engine and the voice dispatcher around an
// already loaded catalog, schedule gateway and preference store.
func New(cfg *config.Config, cat *catalog.Catalog, gateway schedule.Gateway, store preferences.Store, logger *slog.Logger, version string) *Application {
	engine := itinerary.NewEngine(
		cat,
		routing.NewStopResolver(cat),
		routing.NewDirectionResolver(cat, cfg.Topology),
		gateway,
		store,
		cfg.Schedule.LineID,
		logger,
	)

	return &Application{
		Config:     cfg,
		Catalog:    cat,
		Dispatcher: alexa.NewDispatcher(engine, logger),
		Logger:     logger,
		Version:    version,
	}
}
