package app

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"ambulancewatch/internal/config"
	"ambulancewatch/internal/logger"
	"ambulancewatch/internal/metrics"
	"ambulancewatch/internal/repository/sqlite"
	"ambulancewatch/internal/routes"
	"ambulancewatch/internal/service/ai"
	"ambulancewatch/internal/service/alert"
	"ambulancewatch/internal/service/capture"
	"ambulancewatch/internal/service/detection"
	"ambulancewatch/internal/service/modelfetch"
	"ambulancewatch/internal/service/storage"
	"ambulancewatch/internal/service/stream"
	"ambulancewatch/internal/service/websocket"
	"ambulancewatch/internal/session"
	"ambulancewatch/internal/vision"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config     *config.Config
	logger     *logger.Logger
	db         *sqlite.DB
	detector   *ai.DetectorService
	dispatcher *alert.Dispatcher
	outputs    *storage.OutputService
	hub        *websocket.HubService
	handler    http.Handler
}

// NewApp loads the model, opens the database and wires every service.
// Whatever was opened before a failure is closed again.
func NewApp(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	log := logger.NewLogger(cfg)
	a := &App{config: cfg, logger: log}
	defer func() {
		if err != nil {
			err = multierr.Append(err, a.close())
		}
	}()

	if err := modelfetch.EnsureModel(ctx, cfg.ModelPath, cfg.ModelURL, log); err != nil {
		return nil, err
	}
	labels, err := vision.LoadLabels(cfg.LabelsPath)
	if err != nil {
		return nil, err
	}
	if a.detector, err = ai.NewDetectorService(cfg, labels, log); err != nil {
		return nil, err
	}
	log.Info("🤖 Detector ready with %d network(s), %d label(s)", a.detector.Workers(), len(labels))

	if a.db, err = sqlite.New(cfg.DatabasePath); err != nil {
		return nil, err
	}
	users := sqlite.NewUserRepository(a.db)
	alerts := sqlite.NewAlertRepository(a.db)
	if n, err := users.GetTotalCount(); err == nil {
		log.Info("👥 %d registered user(s)", n)
	}

	m := metrics.New()
	a.hub = websocket.NewHubService(log)
	if a.outputs, err = storage.NewOutputService(cfg, m, log); err != nil {
		return nil, err
	}

	player := alert.NewPlayer(cfg.AlertSound, cfg.AlertPlayer, log)
	a.dispatcher = alert.NewDispatcher(alert.Options{
		Workers:   cfg.AlertWorkers,
		QueueSize: cfg.AlertQueueSize,
		Cooldown:  cfg.AlertCooldown,
		Metrics:   m,
	}, log, alert.DefaultSinks(a.hub, alerts, player)...)

	svc, err := detection.NewService(a.detector, cfg.TargetLabel, cfg.ConfidenceThreshold, a.dispatcher, a.outputs, m, log)
	if err != nil {
		return nil, err
	}

	a.handler = routes.SetupRoutes(routes.Deps{
		Config:    cfg,
		Logger:    log,
		Metrics:   m,
		Sessions:  session.NewManager(cfg.SessionHash, cfg.SessionBlock, log),
		Users:     users,
		Alerts:    alerts,
		Detector:  svc,
		Processor: svc,
		OpenCam: func(context.Context) (stream.Source, error) {
			cam, err := capture.OpenCamera(cfg.CameraSource)
			if err != nil {
				return nil, err
			}
			return cam, nil
		},
		Hub: a.hub,
	})
	return a, nil
}

// Run serves HTTP until SIGINT/SIGTERM or ctx is cancelled, then drains
// in-flight requests and releases every resource.
func (a *App) Run(ctx context.Context) (err error) {
	defer func() {
		err = multierr.Append(err, a.close())
	}()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.config.Port),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return a.outputs.Run(gctx)
	})
	g.Go(func() error {
		a.logger.Info("🚑 Ambulance detection server")
		a.logger.Info("📍 URL: http://localhost:%d", a.config.Port)
		a.logger.Info("🤖 Model: %s (target %q, threshold %.2f)", a.config.ModelPath, a.config.TargetLabel, a.config.ConfidenceThreshold)
		a.logger.Info("📹 Camera: %s", a.config.CameraSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// close releases resources in reverse start-up order. Safe on a partially built App.
func (a *App) close() error {
	var err error
	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.detector != nil {
		err = multierr.Append(err, a.detector.Close())
	}
	if a.db != nil {
		err = multierr.Append(err, a.db.Close())
	}
	if a.logger != nil {
		err = multierr.Append(err, a.logger.Close())
	}
	return err
}
