package main

import (
	"context"
	"errors"
	"fmt"

	"campsite_notification_bot/internal/app"
	"campsite_notification_bot/internal/domain/notification"
	"campsite_notification_bot/internal/infra/browser"
	"campsite_notification_bot/internal/infra/config"
	idb "campsite_notification_bot/internal/infra/database"
	"campsite_notification_bot/internal/infra/input"
	"campsite_notification_bot/internal/infra/logger"
	"campsite_notification_bot/internal/infra/reserve"
	"campsite_notification_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

// newDriver starts the browser session; tests replace it.
var newDriver = browser.New

// botRuntime holds everything a poll cycle needs plus what must be released
// on shutdown.
type botRuntime struct {
	service *app.PollService
	closers []func() error
}

func (r *botRuntime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			logger.Log.WithError(err).Warn("Error during shutdown")
		}
	}
}

// setup wires the bot in startup order: history store, search requests,
// Telegram target, browser and search page. Any failure aborts startup.
func setup(ctx context.Context, cfg *config.AppConfig) (_ *botRuntime, err error) {
	rt := &botRuntime{}
	defer func() {
		if err != nil {
			rt.Close()
		}
	}()

	history, err := openHistory(ctx, cfg, rt)
	if err != nil {
		return nil, err
	}

	requests, err := input.LoadRequests(cfg.InputFile)
	if err != nil {
		return nil, fmt.Errorf("could not load search requests: %w", err)
	}
	logger.Log.WithFields(logrus.Fields{"file": cfg.InputFile, "requests": len(requests)}).Info("Search requests loaded")

	client, err := telegram.NewTelebotAdapter(cfg.TelegramToken, cfg.TelegramAPIURL, logger.Component("telegram"))
	if err != nil {
		return nil, err
	}
	target, err := client.ResolveTarget(ctx)
	if err != nil {
		if errors.Is(err, telegram.ErrNoInboundMessage) {
			logger.Log.Error("Send any message to the bot, then start campwatch again")
		}
		return nil, err
	}

	driver, err := newDriver(browser.Options{
		Name:          cfg.Browser,
		Headless:      cfg.Headless,
		LookupTimeout: cfg.ElementTimeout,
	}, logger.Component("browser"))
	if err != nil {
		return nil, fmt.Errorf("could not start browser: %w", err)
	}
	rt.closers = append(rt.closers, driver.Close)

	site := reserve.NewSite(driver, reserve.Options{
		URL:            cfg.Website,
		LoadTimeout:    cfg.WebsiteLoadTime,
		ElementTimeout: cfg.ElementTimeout,
		SettleTime:     cfg.SettleTime,
	}, logger.Component("reserve"))
	if err := site.Open(ctx); err != nil {
		return nil, fmt.Errorf("could not open reservation website: %w", err)
	}

	rt.service = app.NewPollService(site, client, history, target, requests,
		cfg.DedupeNotifications, logger.Component("poll"))
	return rt, nil
}

func openHistory(ctx context.Context, cfg *config.AppConfig, rt *botRuntime) (notification.Repository, error) {
	if cfg.DatabaseURL == "" {
		logger.Log.Info("No database_url configured, keeping notification history in memory")
		return idb.NewMemoryHistoryRepository(), nil
	}

	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)

	repo := idb.NewPostgresHistoryRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	logger.Log.Info("Database connection established successfully.")
	return repo, nil
}
