package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/terraincognita07/cyclecal/internal/api"
	"github.com/terraincognita07/cyclecal/internal/cli"
	"github.com/terraincognita07/cyclecal/internal/config"
	"github.com/terraincognita07/cyclecal/internal/db"
	"github.com/terraincognita07/cyclecal/internal/logging"
	"github.com/terraincognita07/cyclecal/internal/services"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cyclecal: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stopSignals := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	if len(args) > 0 {
		switch args[0] {
		case "reset-password":
			if len(args) != 2 {
				return errors.New("usage: cyclecal reset-password <email>")
			}
			return cli.RunResetPasswordCommand(ctx, cfg.DBPath, args[1], stdout, logger)
		default:
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	return serve(ctx, cfg, logger)
}

func serve(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.LocationFallback {
		logger.Warn("invalid TZ, falling back to UTC", zap.String("tz", os.Getenv("TZ")))
	}
	time.Local = cfg.Location

	database, err := db.OpenSQLite(ctx, cfg.DBPath, logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}

	handler, err := api.NewHandler(database, cfg.SecretKey, cfg.Location, logger.Named("api"))
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	app := api.NewApp(handler, api.AppOptions{
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:        true,
	})

	reminders := services.NewReminderService(
		db.NewUserRepository(database),
		handler.Periods(),
		newNotifier(cfg, logger),
		cfg.Location,
		logger.Named("reminders"),
	)
	lifecycleCtx, cancelLifecycle := context.WithCancel(ctx)
	defer cancelLifecycle()
	if err := reminders.Start(lifecycleCtx, cfg.ReminderCron); err != nil {
		return fmt.Errorf("reminder scheduler init failed: %w", err)
	}

	go func() {
		<-ctx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Error("server shutdown failed", zap.Error(err))
		}
	}()

	logger.Info("cyclecal listening",
		zap.String("addr", "0.0.0.0:"+cfg.Port),
		zap.String("db", cfg.DBPath),
		zap.String("tz", cfg.Location.String()),
		zap.String("reminder_cron", cfg.ReminderCron),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func newNotifier(cfg config.Config, logger *zap.Logger) services.Notifier {
	if cfg.TelegramEnabled() {
		return services.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID)
	}
	return services.NewLogNotifier(logger.Named("notifier"))
}
