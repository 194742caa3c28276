package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"campsite_notification_bot/internal/infra/config"
	idb "campsite_notification_bot/internal/infra/database"
	"campsite_notification_bot/internal/infra/logger"
	"campsite_notification_bot/internal/infra/scheduler"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagConfig string
	flagLimit  int
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "campwatch",
		Short: "Watch Florida State Parks campsites and notify on Telegram",
		Long: `Polls reserve.floridastateparks.org for every (park, date, nights) row of the
input file and sends a Telegram message for each available campsite.

Send any message to the bot before the first run so it knows where to deliver.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runBot,
	}
	cmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "Path to the dotenv or YAML configuration file")

	cmd.AddCommand(newCheckCmd(), newHistoryCmd())
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run a single poll cycle and exit",
		RunE:  runCheck,
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print recent notifications stored in Postgres",
		RunE:  runHistory,
	}
	cmd.Flags().IntVar(&flagLimit, "limit", 20, "Maximum number of notifications to print")
	return cmd
}

// runBot polls until SIGINT or SIGTERM.
func runBot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bot, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer bot.Close()

	pollScheduler := scheduler.NewPollScheduler(bot.service, cfg.CronSpec(), logger.Component("scheduler"))
	if err := pollScheduler.Start(); err != nil {
		return err
	}
	logger.Log.Info("Application setup complete. Polling started.")

	<-ctx.Done()

	logger.Log.Info("Shutting down application...")
	pollScheduler.Stop()
	logger.Log.Info("Application shut down gracefully.")
	return nil
}

func runCheck(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bot, err := setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer bot.Close()

	report := bot.service.RunCycle(ctx)
	fmt.Fprintf(cmd.OutOrStdout(), "searched %d/%d requests, %d available, %d sent, %d failed\n",
		report.Searched, report.Requests, report.Available, report.Sent, report.Failed+report.SendFailures)
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("history needs database_url in %s", flagConfig)
	}
	if flagLimit <= 0 {
		return fmt.Errorf("--limit must be positive, got %d", flagLimit)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := idb.NewPostgresHistoryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return err
	}
	items, err := repo.ListRecent(ctx, flagLimit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No notifications sent yet.")
		return nil
	}
	for _, s := range items {
		status := "delivered"
		if !s.Delivered {
			status = "FAILED"
		}
		fmt.Fprintf(out, "%s  %-9s  %s %s (%d nights)  %s / %s\n",
			s.SentAt.Local().Format("2006-01-02 15:04:05"), status,
			s.Park, s.ArrivalDate, s.StayNights, s.Facility, s.UnitType)
	}
	return nil
}

func loadConfig() (*config.AppConfig, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}
	logger.Init(cfg)
	logger.Log.WithFields(logrus.Fields{
		"config":      flagConfig,
		"browser":     cfg.Browser,
		"interval":    cfg.RuntimeInterval.String(),
		"environment": cfg.Environment,
	}).Info("Configuration loaded")
	return cfg, nil
}
