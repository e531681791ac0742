package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"eisview/capture"
	"eisview/config"
	"eisview/drivers"
	"eisview/events"
	"eisview/store"
	"eisview/web/handlers"
)

func newServeCmd(load func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and the configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	capacities, err := cfg.Capacities()
	if err != nil {
		return err
	}

	eventHub := events.NewHub()
	options := []func(*store.Session){store.WithEventHub(eventHub)}

	captures := openCaptures(cfg)
	if captures != nil {
		defer func() { _ = captures.Close() }()
	}
	if cfg.Capture.Enabled {
		recorder, err := capture.NewRecorder(ctx, captures, string(cfg.Driver.Type))
		if err != nil {
			return fmt.Errorf("starting capture: %w", err)
		}
		log.Printf("recording to %s as capture %s", cfg.Capture.Path, recorder.SessionID())
		options = append(options, store.WithRecorder(recorder))
	}

	session := store.NewSession(capacities, options...)

	// Create the correct driver
	var (
		driver drivers.Driver
		bridge *drivers.Bridge
	)
	switch cfg.Driver.Type {
	case config.Serial:
		driver = drivers.NewSerial(&cfg.Serial, session)
	case config.Bridge:
		bridge = drivers.NewBridge(&cfg.Bridge, session, eventHub)
		driver = bridge
	case config.Mock:
		driver = drivers.NewMock(&cfg.Mock, session)
	default:
		return fmt.Errorf("unsupported driver type: %s", cfg.Driver.Type)
	}

	connection := drivers.NewConnection(driver, eventHub)
	if err := connection.Connect(ctx); err != nil {
		// the dashboard's connect button retries
		log.Printf("couldn't init driver: %s", err)
	}

	templates, err := handlers.ParseTemplates()
	if err != nil {
		return fmt.Errorf("couldn't parse templates: %w", err)
	}

	dashboard := handlers.NewDashboard(ctx, templates, session, connection)
	library := &capture.Library{Dir: cfg.Replay.Dir, Store: captures}
	server := handlers.NewServer(dashboard, eventHub, handlers.NewReplayPage(templates, library, cfg.Replay.Interval))
	if bridge != nil {
		server.Handle("/bridge", bridge)
	}

	return server.Start(ctx, cfg.Server.Addr)
}

// openCaptures returns the capture store when recording is on or an earlier recording exists, nil otherwise.
func openCaptures(cfg *config.Config) *capture.SqliteStore {
	if !cfg.Capture.Enabled {
		if _, err := os.Stat(cfg.Capture.Path); err != nil {
			return nil
		}
	}
	return capture.NewSqliteStore(cfg.Capture.Path)
}
