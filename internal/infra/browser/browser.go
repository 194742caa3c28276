// Package browser provides the controlled browser sessions the bot drives.
// "chrome" runs through chromedp; "firefox", "chromium" and "webkit" run
// through playwright-go.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "campsite_notification_bot/internal/domain/browser"

	"github.com/sirupsen/logrus"
)

// Options configures a browser session.
type Options struct {
	Name          string // firefox, chromium, webkit or chrome
	Headless      bool
	LookupTimeout time.Duration // bound for element lookups and interactions
}

// New starts a browser session of the requested kind.
func New(opts Options, logger *logrus.Entry) (domain.Driver, error) {
	if opts.LookupTimeout <= 0 {
		opts.LookupTimeout = 20 * time.Second
	}

	logger.WithFields(logrus.Fields{"browser": opts.Name, "headless": opts.Headless}).Info("Starting browser")
	switch opts.Name {
	case "chrome":
		return NewChromeDriver(opts, logger)
	case "firefox", "chromium", "webkit":
		return NewPlaywrightDriver(opts, logger)
	default:
		return nil, fmt.Errorf("unsupported browser %q", opts.Name)
	}
}

// lookupErr maps a timed-out lookup to ErrElementNotFound.
func lookupErr(selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", selector, domain.ErrElementNotFound)
	}
	return fmt.Errorf("%s: %w", selector, err)
}
