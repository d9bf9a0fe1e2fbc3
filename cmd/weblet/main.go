package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"

	"weblet/internal/concurrent/taskpool"
	"weblet/internal/config"
	"weblet/internal/cron/expr"
	"weblet/internal/cron/scheduler"
	"weblet/internal/dotenv"
	"weblet/internal/eventbus"
	"weblet/internal/httpd"
	logx "weblet/internal/logx"
	"weblet/internal/runtime/supervisor"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.json", "path to config json")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := newApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	if err := app.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	app.Stop(context.Background())
}

// app wires the config-driven components (logging, HTTP server, task pool,
// cron scheduler) into a single process lifecycle.
type app struct {
	cfgm *config.ConfigManager
	logs *logx.Service
	log  logx.Logger
	sup  *supervisor.Supervisor

	pool *taskpool.Pool
	http *httpd.Server
	cron *scheduler.Scheduler
	bus  eventbus.Bus

	lastCfg  *config.Config
	httpAddr string
}

func newApp(cfgPath string) (*app, error) {
	cfgm := config.NewConfigManager(cfgPath)
	cfgm.SetValidator(func(_ context.Context, cfg *config.Config) error {
		if cfg.TaskPool.Workers < 0 {
			return fmt.Errorf("task_pool.workers must be >= 0")
		}
		if cfg.HTTP.RateLimitRPS < 0 {
			return fmt.Errorf("http.rate_limit_rps must be >= 0")
		}
		for _, job := range cfg.Scheduler.Jobs {
			if _, err := expr.Parse(job.Schedule); err != nil {
				return fmt.Errorf("scheduler job %q: %w", job.ID, err)
			}
		}
		return nil
	})

	cfg, err := cfgm.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logs, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	var env map[string]string
	if cfg.HTTP.EnvFile != "" {
		e, err := dotenv.Load(cfg.HTTP.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("loading env file %q: %w", cfg.HTTP.EnvFile, err)
		}
		env = e
	}

	pool := taskpool.New(cfg.TaskPool.Workers,
		taskpool.WithLogger(log.With(logx.String("comp", "taskpool"))),
		taskpool.WithQueueSize(cfg.TaskPool.QueueSize),
	)

	bus := eventbus.New()

	srv := httpd.New(0,
		httpd.WithPool(pool),
		httpd.WithLogger(log.With(logx.String("comp", "httpd"))),
		httpd.WithStatic(cfg.HTTP.PublicDir, cfg.HTTP.SPAFallback, cfg.HTTP.SPAIndex),
		httpd.WithEnv(env),
		httpd.WithEventBus(bus),
		httpd.WithRateLimit(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst),
		httpd.WithMaxHeaderBytes(cfg.HTTP.MaxHeaderBytes),
	)
	registerErrorPages(srv, cfg.HTTP.ErrorPagesDir)
	srv.LoadPluginDir(cfg.HTTP.PluginDir)

	cron := scheduler.New(0,
		scheduler.WithPool(pool),
		scheduler.WithLogger(log.With(logx.String("comp", "cron"))),
		scheduler.WithEventBus(bus),
	)
	for _, job := range cfg.Scheduler.Jobs {
		if !job.Enabled {
			continue
		}
		j := job
		outcome, err := cron.Add(j.ID, j.Description, j.Schedule, func(ctx context.Context) error {
			log.Info("cron job fired", logx.String("job_id", j.ID), logx.String("command", j.Command))
			return nil
		})
		if outcome != scheduler.Added {
			return nil, fmt.Errorf("registering cron job %q: %v: %w", j.ID, outcome, err)
		}
	}

	return &app{
		cfgm:     cfgm,
		logs:     logs,
		log:      log,
		pool:     pool,
		http:     srv,
		cron:     cron,
		bus:      bus,
		lastCfg:  cfg,
		httpAddr: cfg.HTTP.Addr,
	}, nil
}

// applyConfigChanges logs which config sections changed on every hot reload
// and re-applies logging settings live. HTTP/task-pool/scheduler sections
// require a restart to take effect; weblet logs that rather than attempting
// a live topology change mid-request.
func (a *app) applyConfigChanges(ctx context.Context) {
	ch := a.cfgm.Subscribe(4)
	defer a.cfgm.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-ch:
			if !ok {
				return
			}
			changed, attrs := config.SummarizeConfigChange(a.lastCfg, cfg)
			a.lastCfg = cfg
			if len(changed) == 0 {
				continue
			}
			a.log.Info("config changed", append([]logx.Field{logx.Any("sections", changed)}, attrs...)...)
			if contains(changed, "logging") {
				a.logs.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
			}
		}
	}
}

func contains(xs []string, v string) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}

func (a *app) Start(ctx context.Context) error {
	a.sup = supervisor.NewSupervisor(ctx, supervisor.WithLogger(a.log), supervisor.WithCancelOnError(false))
	a.http.SetSupervisor(a.sup)

	if err := a.http.Start(a.httpAddr); err != nil {
		return err
	}
	if !a.cfgm.Get().Scheduler.Enabled {
		a.log.Info("cron scheduler disabled by config")
	} else {
		a.cron.Start(a.sup.Context())
	}

	a.sup.GoRestart0("config.watch", func(ctx context.Context) { _ = a.cfgm.Watch(ctx) })
	a.sup.Go0("config.apply", a.applyConfigChanges)
	a.sup.Go0("activity.log", a.logActivity)

	a.log.Info("weblet started", logx.String("addr", a.httpAddr))
	return nil
}

// logActivity subscribes to the shared event bus and logs component
// activity at debug level, mostly useful while diagnosing cron/http wiring.
func (a *app) logActivity(ctx context.Context) {
	ch, unsubscribe := a.bus.Subscribe(64)
	defer unsubscribe()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			a.log.Debug("event", logx.String("type", ev.Type), logx.Any("data", ev.Data))
		}
	}
}

func (a *app) Stop(ctx context.Context) {
	a.cron.Stop()
	a.http.Stop()
	a.pool.Stop()
	if a.sup != nil {
		_ = a.sup.Stop(ctx)
	}
	_ = a.logs.Close()
}

func registerErrorPages(srv *httpd.Server, dir string) {
	if dir == "" {
		return
	}
	for _, code := range []int{400, 404, 500} {
		path := fmt.Sprintf("%s/%d.html", dir, code)
		if _, err := os.Stat(path); err == nil {
			srv.AddErrorPage(code, path)
		}
	}
}
