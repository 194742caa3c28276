package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "campsite_notification_bot/internal/domain/browser"

	"github.com/playwright-community/playwright-go"
	"github.com/sirupsen/logrus"
)

// PlaywrightDriver drives Firefox, Chromium or WebKit through Playwright.
// Browsers must be installed beforehand:
//
//	go run github.com/playwright-community/playwright-go/cmd/playwright install firefox
type PlaywrightDriver struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	logger  *logrus.Entry
}

// NewPlaywrightDriver launches the named browser and opens a page.
func NewPlaywrightDriver(opts Options, logger *logrus.Entry) (*PlaywrightDriver, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start Playwright: %w", err)
	}

	var bt playwright.BrowserType
	switch opts.Name {
	case "firefox":
		bt = pw.Firefox
	case "webkit":
		bt = pw.WebKit
	default:
		bt = pw.Chromium
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch %s: %w", opts.Name, err)
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(millis(opts.LookupTimeout))
	page.SetDefaultNavigationTimeout(millis(navigationTimeout))

	return &PlaywrightDriver{
		pw:      pw,
		browser: b,
		page:    page,
		logger:  logger,
	}, nil
}

func millis(d time.Duration) float64 {
	return float64(d / time.Millisecond)
}

// check maps Playwright timeouts to ErrElementNotFound and honours ctx, which
// Playwright calls cannot observe directly.
func (d *PlaywrightDriver) check(ctx context.Context, selector string, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%s: %w", selector, domain.ErrElementNotFound)
	}
	return fmt.Errorf("%s: %w", selector, err)
}

func (d *PlaywrightDriver) locator(selector string) playwright.Locator {
	return d.page.Locator(selector).First()
}

func (d *PlaywrightDriver) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (d *PlaywrightDriver) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := d.locator(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(millis(timeout)),
	})
	return d.check(ctx, selector, err)
}

func (d *PlaywrightDriver) Clear(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.check(ctx, selector, d.locator(selector).Fill(""))
}

func (d *PlaywrightDriver) Type(ctx context.Context, selector, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	// Typed key by key so the site's autocomplete fires.
	err := d.locator(selector).Type(text, playwright.LocatorTypeOptions{
		Delay: playwright.Float(50),
	})
	return d.check(ctx, selector, err)
}

func (d *PlaywrightDriver) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.check(ctx, selector, d.locator(selector).Click())
}

func (d *PlaywrightDriver) SelectOption(ctx context.Context, selector string, position int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if position < 1 {
		return fmt.Errorf("%s option %d: %w", selector, position, domain.ErrElementNotFound)
	}
	_, err := d.locator(selector).SelectOption(playwright.SelectOptionValues{
		Indexes: &[]int{position - 1},
	})
	return d.check(ctx, selector, err)
}

func (d *PlaywrightDriver) PageSource(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := d.page.Content()
	if err != nil {
		return "", fmt.Errorf("reading page source: %w", err)
	}
	return html, nil
}

func (d *PlaywrightDriver) Execute(ctx context.Context, script string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Evaluate(script)
	return err
}

func (d *PlaywrightDriver) Refresh(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := d.page.Reload()
	return err
}

// Close shuts down the page, the browser and the Playwright driver.
func (d *PlaywrightDriver) Close() error {
	d.logger.Debug("Closing Playwright browser")
	var errs []error
	if d.page != nil {
		errs = append(errs, d.page.Close())
	}
	if d.browser != nil {
		errs = append(errs, d.browser.Close())
	}
	if d.pw != nil {
		errs = append(errs, d.pw.Stop())
	}
	return errors.Join(errs...)
}
