package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"quotes/internal/clock"
	"quotes/internal/config"
	"quotes/internal/controller"
	"quotes/internal/dispatch"
	"quotes/internal/logger"
	"quotes/internal/publish"
	"quotes/internal/repository"
	"quotes/internal/router"
	"quotes/internal/scheduler"
	"quotes/internal/service"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const WorkerConcurrency = 10

// Job names, as accepted by RunJobs.
const (
	JobSweep      = "expiry-sweep"
	JobBadges     = "badges"
	JobPromotions = "promotions"
)

type App struct {
	repo       *repository.Repository
	service    *service.Service
	controller *controller.Controller
	scheduler  *scheduler.Scheduler
	rdb        *redis.Client
	tasks      *asynq.Client
	clock      clock.Clock
	log        *zap.Logger
	stopSig    chan os.Signal
	cfg        *config.Config

	Done chan struct{}
}

type option func(*App)

func WithConfig(cfg *config.Config) option {
	return func(app *App) {
		app.cfg = cfg
	}
}

func WithLogger(log *zap.Logger) option {
	return func(app *App) {
		app.log = log
	}
}

func WithClock(c clock.Clock) option {
	return func(app *App) {
		app.clock = c
	}
}

func NewApp(opts ...option) (*App, error) {
	var err error

	app := &App{
		clock:   clock.Real{},
		stopSig: make(chan os.Signal, 2),
		Done:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(app)
	}

	if app.cfg == nil {
		cfg, err := config.NewConfig()
		if err != nil {
			return nil, err
		}
		app.cfg = cfg
	}

	if app.log == nil {
		app.log, err = logger.New(app.cfg.LogLevel)
		if err != nil {
			return nil, err
		}
	}

	app.repo, err = repository.NewRepository(nil, &app.cfg.PostgresConfig)
	if err != nil {
		return nil, err
	}

	svcOpts := []service.Option{
		service.WithClock(app.clock),
		service.WithLogger(app.log),
	}

	if app.cfg.RedisAddr != "" {
		app.rdb, err = publish.ConnectRedis(context.Background(), app.cfg.RedisAddr, app.cfg.RedisPassword, app.cfg.RedisDB)
		if err != nil {
			app.repo.Close()
			return nil, fmt.Errorf("app.NewApp: %w", err)
		}
		svcOpts = append(svcOpts, service.WithPublisher(publish.NewRedis(app.rdb, app.cfg.ChannelPrefix)))
	} else {
		app.log.Info("app: REDIS_ADDR is empty, real-time events are disabled")
	}

	if app.cfg.AsyncDispatch {
		if app.cfg.RedisAddr == "" {
			app.repo.Close()
			return nil, errors.New("app.NewApp: ASYNC_DISPATCH requires REDIS_ADDR")
		}
		app.tasks = dispatch.NewClient(app.cfg.RedisConfig)
		svcOpts = append(svcOpts, service.WithDispatcher(dispatch.NewAsynq(app.tasks)))
	}

	app.service = service.NewService(app.repo, app.cfg.EngineConfig, svcOpts...)
	app.controller = controller.NewController(app.service, app.log)
	app.scheduler = scheduler.New(app.clock, app.log, app.jobs(), scheduler.WithJobTimeout(app.cfg.JobTimeout))

	return app, nil
}

func (app *App) jobs() []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     JobSweep,
			Interval: app.cfg.SweepInterval,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := app.service.SweepExpired(ctx, now)
				return err
			},
		},
		{
			Name:     JobBadges,
			Interval: app.cfg.BadgeInterval,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := app.service.RecalculateBadges(ctx, now)
				return err
			},
		},
		{
			Name:     JobPromotions,
			Interval: app.cfg.BadgeInterval,
			Run: func(ctx context.Context, now time.Time) error {
				_, err := app.service.RecalculatePromotions(ctx, now)
				return err
			},
		},
	}
}

// notify cancels the returned context on the first stop signal.
func (app *App) notify() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		signal.Notify(app.stopSig, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-app.stopSig:
			app.log.Info("app: received signal", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Run serves the HTTP API and runs the maintenance jobs until a stop signal.
func (app *App) Run() {
	ctx, cancel := app.notify()
	defer cancel()

	server := http.Server{
		Addr:         app.cfg.ServerAddress,
		Handler:      router.NewRouter(app.controller, app.log),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			app.log.Error("app: http server error", zap.Error(err))
			cancel()
		}
	}()

	jobsDone := make(chan struct{})
	go func() {
		app.scheduler.Run(ctx)
		close(jobsDone)
	}()

	app.log.Info("app: server started, listening for connections", zap.String("address", app.cfg.ServerAddress))
	<-ctx.Done()

	timeout, tcancel := context.WithTimeout(context.Background(), time.Second*10)
	defer tcancel()
	app.log.Info("app: shutting down http server")
	if err := server.Shutdown(timeout); err != nil {
		app.log.Warn("app: http server shutdown", zap.Error(err))
	}
	<-jobsDone

	app.close()
}

// RunWorker consumes distribution tasks until a stop signal.
func (app *App) RunWorker() error {
	if app.cfg.RedisAddr == "" {
		app.close()
		return errors.New("app.App.RunWorker: REDIS_ADDR is required")
	}

	ctx, cancel := app.notify()
	defer cancel()

	srv := dispatch.NewServer(app.cfg.RedisConfig, WorkerConcurrency, app.log)
	mux := asynq.NewServeMux()
	dispatch.NewHandler(app.service, app.log).Register(mux)

	if err := srv.Start(mux); err != nil {
		app.close()
		return fmt.Errorf("app.App.RunWorker: %w", err)
	}

	app.log.Info("app: worker started", zap.String("queue", dispatch.Queue), zap.Int("concurrency", WorkerConcurrency))
	<-ctx.Done()

	app.log.Info("app: shutting down worker")
	srv.Shutdown()

	app.close()
	return nil
}

// RunJobs runs the named maintenance jobs once, or all of them when no name
// is given, then releases the app.
func (app *App) RunJobs(ctx context.Context, names ...string) error {
	defer app.close()

	jobs := app.jobs()
	if len(names) > 0 {
		var selected []scheduler.Job
		for _, name := range names {
			found := false
			for _, job := range jobs {
				if job.Name == name {
					selected = append(selected, job)
					found = true
				}
			}
			if !found {
				return fmt.Errorf("app.App.RunJobs: unknown job '%s'", name)
			}
		}
		jobs = selected
	}

	s := scheduler.New(app.clock, app.log, jobs, scheduler.WithJobTimeout(app.cfg.JobTimeout))
	if failed := s.RunOnce(ctx); failed > 0 {
		return fmt.Errorf("app.App.RunJobs: %d of %d jobs failed", failed, len(jobs))
	}
	return nil
}

func (app *App) close() {
	if app.tasks != nil {
		if err := app.tasks.Close(); err != nil {
			app.log.Warn("app: task client closing error", zap.Error(err))
		}
	}

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.log.Warn("app: redis closing error", zap.Error(err))
		}
	}

	app.log.Info("app: closing repository")
	if err := app.repo.Close(); err != nil {
		app.log.Error("app: repository closing error", zap.Error(err))
	}

	close(app.Done)
	app.log.Info("app: exiting")
	_ = app.log.Sync()
}
