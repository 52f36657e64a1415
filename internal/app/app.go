package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"speedguard/internal/config"
	"speedguard/internal/logger"
	"speedguard/internal/repository/sqlite"
	"speedguard/internal/routes"
	"speedguard/internal/services/events"
	"speedguard/internal/services/ingest"
	"speedguard/internal/services/notify"
	"speedguard/internal/services/pipeline"
	"speedguard/internal/services/plate"
	"speedguard/internal/services/storage"
	"speedguard/internal/services/violation"
	"speedguard/internal/services/vision"
	"speedguard/internal/services/websocket"
)

const (
	shutdownTimeout = 15 * time.Second
	pruneInterval   = time.Hour
)

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	engine     plate.Engine
	publisher  *events.KafkaPublisher
	files      *storage.FileService
	hubService *websocket.HubService
	manager    *pipeline.Manager
	server     *http.Server
}

func NewApp() (*App, error) {
	cfg := config.Load()
	log := logger.NewLogger(cfg)

	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	violations := sqlite.NewViolationRepository(db)
	blacklist := sqlite.NewBlacklistRepository(db)
	settings := sqlite.NewSettingsRepository(db)
	emailConfig := sqlite.NewEmailConfigRepository(db)

	files, err := storage.NewFileService(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	a := &App{config: cfg, logger: log, db: db, files: files}

	var plates pipeline.PlateReader
	engine, err := plate.NewEngine(cfg)
	if err != nil {
		log.Warning("⚠️  OCR disabled, plates will not be read: %v", err)
	} else {
		a.engine = engine
		plates = plate.NewResolver(engine, cfg, log)
	}

	classifier := violation.NewClassifier(settings, blacklist, cfg.DefaultThresholdSpeed, cfg.DBTimeout, log)

	recorderOpts := []violation.RecorderOption{violation.WithTimeouts(cfg.DBTimeout, cfg.NotifyTimeout)}
	if n := a.notifiers(emailConfig); n != nil {
		recorderOpts = append(recorderOpts, violation.WithNotifier(n))
	}
	if cfg.Kafka.BootstrapServers != "" {
		publisher, err := events.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			log.Error("Kafka publisher disabled: %v", err)
		} else {
			a.publisher = publisher
			recorderOpts = append(recorderOpts, violation.WithPublisher(publisher))
		}
	}

	newDriver := func() *pipeline.Driver {
		return pipeline.NewDriver(pipeline.DriverDeps{
			Plates:        plates,
			Classifier:    classifier,
			Saver:         violations,
			Recorder:      recorderOpts,
			ClassName:     cfg.ClassName,
			OCRWorkers:    cfg.OCRWorkers,
			TrackCapacity: cfg.TrackCapacity,
			Logger:        log,
		})
	}
	loadTracks := func(path string) (pipeline.Tracker, error) {
		return ingest.LoadFile(path, log)
	}

	a.hubService = websocket.NewHubService(log)
	runner := pipeline.NewVideoRunner(vision.NewVideoIO(), newDriver, loadTracks, a.hubService, log)
	a.manager = pipeline.NewManager(runner, cfg, log)

	router := routes.SetupRoutes(routes.Deps{
		Jobs:        a.manager,
		Files:       files,
		Thresholds:  classifier,
		Violations:  violations,
		Blacklist:   blacklist,
		Settings:    settings,
		EmailConfig: emailConfig,
		Live:        a.hubService,
	}, cfg, log)

	a.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// notifiers builds the alert fan-out: email unless disabled, Telegram when a token is set.
func (a *App) notifiers(emailConfig notify.EmailConfigSource) violation.Notifier {
	var multi notify.Multi
	if a.config.Email.Enabled {
		multi = append(multi, notify.NewEmailNotifier(a.config.Email, emailConfig))
	}
	if a.config.Telegram.Token != "" {
		tg, err := notify.NewTelegramNotifier(a.config.Telegram.Token, a.config.Telegram.ChatID)
		if err != nil {
			a.logger.Error("Telegram alerts disabled: %v", err)
		} else {
			multi = append(multi, tg)
		}
	}
	if len(multi) == 0 {
		a.logger.Warning("⚠️  No alert channel configured")
		return nil
	}
	return multi
}

// Run serves HTTP until SIGINT/SIGTERM, then shuts everything down.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go a.hubService.Run(ctx)
	go a.files.Run(ctx, pruneInterval)

	a.logger.Info("🚀 Speed violation server")
	a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
	a.logger.Info("📁 Uploads: %s, results: %s", a.config.UploadDirectory, a.config.ResultDirectory)
	a.logger.Info("🚦 Default threshold: %.2f km/h", a.config.DefaultThresholdSpeed)

	serveErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("🛑 Shutting down...")
	case runErr = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("HTTP shutdown: %v", err)
	}

	a.Close()
	return runErr
}

// Close stops the job workers and releases external resources.
func (a *App) Close() {
	a.manager.Stop()
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.engine != nil {
		a.engine.Close()
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("Failed to close database: %v", err)
	}
}
