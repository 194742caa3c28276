package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "campsite_notification_bot/internal/domain/browser"

	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const navigationTimeout = 60 * time.Second

const selectOptionJS = `(() => {
	const el = document.querySelector(%s);
	if (!el || !el.options || %d < 1 || el.options.length < %d) return false;
	el.selectedIndex = %d - 1;
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})()`

// ChromeDriver drives a local Chrome through the DevTools protocol.
type ChromeDriver struct {
	ctx         context.Context // tab context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	timeout     time.Duration
	logger      *logrus.Entry
}

// NewChromeDriver launches Chrome and opens a tab.
func NewChromeDriver(opts Options, logger *logrus.Entry) (*ChromeDriver, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(),
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", opts.Headless),
			chromedp.Flag("disable-gpu", true),
		)...,
	)
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(logger.Debugf))

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("starting Chrome: %w", err)
	}

	return &ChromeDriver{
		ctx:         ctx,
		cancel:      cancel,
		allocCancel: allocCancel,
		timeout:     opts.LookupTimeout,
		logger:      logger,
	}, nil
}

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (d *ChromeDriver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (d *ChromeDriver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, navigationTimeout, chromedp.Navigate(url))
}

func (d *ChromeDriver) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	return lookupErr(selector, d.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)))
}

func (d *ChromeDriver) Clear(ctx context.Context, selector string) error {
	return lookupErr(selector, d.run(ctx, d.timeout, chromedp.Clear(selector, chromedp.ByQuery)))
}

func (d *ChromeDriver) Type(ctx context.Context, selector, text string) error {
	return lookupErr(selector, d.run(ctx, d.timeout, chromedp.SendKeys(selector, text, chromedp.ByQuery)))
}

func (d *ChromeDriver) Click(ctx context.Context, selector string) error {
	return lookupErr(selector, d.run(ctx, d.timeout, chromedp.Click(selector, chromedp.ByQuery)))
}

// SelectOption sets selectedIndex from script; option elements of a closed
// <select> have no box model, so they cannot be clicked through CDP.
func (d *ChromeDriver) SelectOption(ctx context.Context, selector string, position int) error {
	quoted, err := json.Marshal(selector)
	if err != nil {
		return fmt.Errorf("quoting selector: %w", err)
	}

	var ok bool
	err = d.run(ctx, d.timeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectOptionJS, quoted, position, position, position), &ok),
	)
	if err != nil {
		return lookupErr(selector, err)
	}
	if !ok {
		return fmt.Errorf("%s option %d: %w", selector, position, domain.ErrElementNotFound)
	}
	return nil
}

func (d *ChromeDriver) PageSource(ctx context.Context) (string, error) {
	var html string
	if err := d.run(ctx, d.timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("reading page source: %w", err)
	}
	return html, nil
}

func (d *ChromeDriver) Execute(ctx context.Context, script string) error {
	return d.run(ctx, d.timeout, chromedp.Evaluate(script, nil))
}

func (d *ChromeDriver) Refresh(ctx context.Context) error {
	return d.run(ctx, navigationTimeout, chromedp.Reload())
}

// Close shuts the browser down. Safe to call more than once.
func (d *ChromeDriver) Close() error {
	err := chromedp.Cancel(d.ctx)
	d.cancel()
	d.allocCancel()
	if err != nil && err != context.Canceled {
		return fmt.Errorf("closing Chrome: %w", err)
	}
	return nil
}
