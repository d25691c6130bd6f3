package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/openvol/portal-api/internal/notify"
	"github.com/openvol/portal-api/internal/service"
	"github.com/openvol/portal-api/internal/sheet"
	"github.com/openvol/portal-api/pkg/config"
	"github.com/openvol/portal-api/pkg/logger"
	"github.com/openvol/portal-api/pkg/mailer"
)

func main() {
	app := &cli.App{
		Name:  "reminder-sweep",
		Usage: "Send upcoming-shift reminder emails from the signup sheet.",
		Commands: []*cli.Command{
			runCommand(),
			testEmailCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("reminder-sweep failed: %v", err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Sweep the sheet for due reminders.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "once", Usage: "Run a single sweep and exit."},
			&cli.DurationFlag{Name: "interval", Usage: "Override the sweep interval."},
		},
		Action: func(c *cli.Context) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			reminders := buildReminderService(cfg, logr)

			if c.Bool("once") {
				_, err := reminders.Sweep(c.Context)
				return err
			}

			interval := cfg.Sweep.Interval
			if c.IsSet("interval") {
				interval = c.Duration("interval")
			}
			if interval <= 0 {
				return fmt.Errorf("sweep interval must be positive, got %s", interval)
			}

			logr.Info("reminder loop starting", zap.Duration("interval", interval))
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			if _, err := reminders.Sweep(c.Context); err != nil {
				logr.Error("sweep failed", zap.Error(err))
			}
			for {
				select {
				case <-ticker.C:
					if _, err := reminders.Sweep(c.Context); err != nil {
						logr.Error("sweep failed", zap.Error(err))
					}
				case sig := <-stop:
					logr.Info("shutting down", zap.String("signal", sig.String()))
					return nil
				case <-c.Context.Done():
					return nil
				}
			}
		},
	}
}

func testEmailCommand() *cli.Command {
	return &cli.Command{
		Name:  "test-email",
		Usage: "Send a test message to verify SMTP credentials.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "to", Required: true, Usage: "Recipient address."},
		},
		Action: func(c *cli.Context) error {
			cfg, logr, err := bootstrap()
			if err != nil {
				return err
			}
			defer logr.Sync() //nolint:errcheck

			smtp := mailer.NewSMTP(cfg.SMTP, logr)
			notifier := notify.New(smtp, cfg.OrgName, logr)
			if err := notifier.SendTest(c.Context, c.String("to")); err != nil {
				return fmt.Errorf("test email failed: %w", err)
			}
			logr.Info("test email sent", zap.String("to", c.String("to")))
			return nil
		},
	}
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}
	return cfg, logr, nil
}

func buildReminderService(cfg *config.Config, logr *zap.Logger) *service.ReminderService {
	store := sheet.NewStore(cfg.Sheet, logr)
	smtp := mailer.NewSMTP(cfg.SMTP, logr)
	notifier := notify.New(smtp, cfg.OrgName, logr)
	return service.NewReminderService(store, notifier, service.NewMetricsService(), logr)
}
