package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"

	"garden-care/internal/api"
	"garden-care/internal/bot"
	"garden-care/internal/config"
	"garden-care/internal/importer"
	"garden-care/internal/logging"
	"garden-care/internal/recurrence"
	"garden-care/internal/repository"
	"garden-care/internal/service"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	importPath := flag.String("import", "", "import care rules from a YAML file and exit")
	importUser := flag.Int64("telegram-id", 0, "Telegram id of the user owning imported rules")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, log, *importPath, *importUser); err != nil {
		log.Fatal().Err(err).Msg("garden care stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log zerolog.Logger, importPath string, importUser int64) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	catchUp, err := recurrence.ParseCatchUpPolicy(cfg.Recurrence.CatchUp)
	if err != nil {
		return err
	}

	db, err := repository.NewDB(cfg.Database.URL, log)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	plantRepo := repository.NewPlantRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	ruleSvc := service.NewRuleService(ruleRepo, plantRepo, taskRepo)
	taskSvc := service.NewTaskService(taskRepo, plantRepo)
	digestSvc := service.NewDigestService(taskRepo, ruleRepo)

	if importPath != "" {
		return importRules(ctx, userRepo, ruleSvc, importPath, importUser, log)
	}

	engine := recurrence.NewEngine(ruleRepo, taskRepo, recurrence.Options{
		CatchUp:   catchUp,
		BatchSize: cfg.Recurrence.BatchSize,
		Workers:   cfg.Recurrence.Workers,
		Location:  loc,
		Logger:    log,
	})
	cycleSvc := service.NewCycleService(engine, cfg.Scheduler.CycleTimeout, log)

	var telegramBot *bot.Bot
	if cfg.Telegram.Token != "" {
		telegramBot, err = bot.New(cfg.Telegram.Token, float64(cfg.Telegram.RatePerSec), bot.Deps{
			Users:  userRepo,
			Plants: plantRepo,
			Tasks:  taskRepo,
			Rules:  ruleSvc,
			Work:   taskSvc,
			Digest: digestSvc,
			Cycles: cycleSvc,
		}, loc, log)
		if err != nil {
			return fmt.Errorf("bot: %w", err)
		}
		cycleSvc.Subscribe(telegramBot)
	} else {
		log.Warn().Msg("telegram token is empty, bot disabled")
	}

	scheduler := service.NewSchedulerService(loc, log)
	cycleID, err := scheduler.ScheduleDaily(cfg.Scheduler.CycleTime, func() {
		if _, err := cycleSvc.RunToday(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("scheduled cycle")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule cycle: %w", err)
	}
	if telegramBot != nil && cfg.Scheduler.DigestTime != "" {
		if _, err := scheduler.ScheduleDaily(cfg.Scheduler.DigestTime, func() {
			jobCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()
			if err := telegramBot.SendDailyDigests(jobCtx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("daily digest")
			}
		}); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
	}
	scheduler.Start()
	defer scheduler.Stop()
	log.Info().Time("next_cycle", scheduler.Next(cycleID)).Str("catch_up", string(catchUp)).Msg("scheduler started")

	if cfg.Scheduler.RunOnStart {
		go func() {
			if _, err := cycleSvc.RunToday(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("startup cycle")
			}
		}()
	}

	var server *http.Server
	serverErr := make(chan error, 1)
	if cfg.HTTP.Addr != "" {
		handler := api.NewHandler(db, ruleSvc, taskSvc, cycleSvc, log)
		server = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           api.NewRouter(handler),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.HTTP.Addr).Msg("http api listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	if telegramBot != nil {
		go func() {
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("bot stopped with error")
			}
		}()
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug().Err(err).Msg("sd_notify ready")
	}
	log.Info().Msg("garden care started")

	select {
	case <-ctx.Done():
	case err := <-serverErr:
		return fmt.Errorf("http api: %w", err)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
	}
	log.Info().Msg("shutdown complete")
	return nil
}

func importRules(ctx context.Context, users *repository.UserRepository, rules *service.RuleService, path string, telegramID int64, log zerolog.Logger) error {
	if telegramID == 0 {
		return errors.New("import: -telegram-id is required")
	}
	user, err := users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return fmt.Errorf("import: find user %d: %w", telegramID, err)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	n, err := importer.Import(ctx, rules, user.ID, f)
	log.Info().Int("created", n).Str("file", path).Uint("user_id", user.ID).Msg("rules imported")
	return err
}
