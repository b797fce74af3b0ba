package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tutorrio/icalsender/internal/api"
	"github.com/tutorrio/icalsender/internal/calendar"
	"github.com/tutorrio/icalsender/internal/config"
	"github.com/tutorrio/icalsender/internal/directory"
	"github.com/tutorrio/icalsender/internal/engine"
	"github.com/tutorrio/icalsender/internal/eventbus"
	"github.com/tutorrio/icalsender/internal/janitor"
	"github.com/tutorrio/icalsender/internal/logger"
	"github.com/tutorrio/icalsender/internal/notification"
	"github.com/tutorrio/icalsender/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and notification engine",
	Long: "Start the HTTP API for directory and event management together with " +
		"the asynchronous calendar notification engine.",
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "HTTP server port (overrides PORT env var)")
	serveCmd.Flags().String("seed", "", "YAML seed file loaded into the directory on startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	log, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	dir := directory.NewSQLiteStore(db)
	sequences := storage.NewSQLiteSequenceStore(db)
	deliveries := storage.NewSQLiteDeliveryLogStore(db)

	if seedFile, _ := cmd.Flags().GetString("seed"); seedFile != "" {
		if err := directory.LoadSeed(ctx, dir, seedFile); err != nil {
			return fmt.Errorf("loading seed file: %w", err)
		}
		log.Info("directory seeded", "file", seedFile)
	}

	provider := notification.NewSMTPProvider(cfg.SMTP)
	gen := calendar.NewGenerator(cfg.UIDDomain)
	organizer := calendar.Contact{Name: cfg.OrganizerLabel, Email: cfg.SMTP.FromAddr}

	dispatcher := engine.NewDispatcher(provider, gen, deliveries, organizer, log)
	coordinator := engine.NewCoordinator(dir, sequences, dispatcher, cfg.CourseURL, log)

	bus := eventbus.New(3, log)
	defer bus.Close()
	bus.Subscribe(coordinator.Handle)

	jan, err := janitor.New(deliveries, cfg.LogRetentionDays, log)
	if err != nil {
		return fmt.Errorf("creating retention job: %w", err)
	}
	if err := jan.Start(); err != nil {
		return fmt.Errorf("starting retention job: %w", err)
	}
	defer func() { _ = jan.Stop() }()

	srv := api.New(dir, deliveries, bus, cfg.Port, log)

	log.Info("icalsender started", "port", cfg.Port, "data_dir", cfg.DataDir)
	fmt.Fprintf(os.Stderr, "icalsender running on http://localhost:%d\n", cfg.Port)

	return srv.Run(ctx)
}
