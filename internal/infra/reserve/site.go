// Package reserve drives the Florida State Parks reservation search page and
// reads unit availability from its result table.
//
// The element ids and classes below are an undocumented contract with that
// site and will break if its markup changes.
package reserve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campsite_notification_bot/internal/domain/availability"
	"campsite_notification_bot/internal/domain/browser"
	"campsite_notification_bot/internal/domain/search"

	"github.com/sirupsen/logrus"
)

const (
	parkInputSelector    = "input#txtCityParkSearch"
	arrivalSelector      = "input#mainContent_SearchUnitAvailbity_txtArrivalDate"
	staySelectSelector   = "#ddlNightsSearchUnitAvailbity"
	suggestionSelector   = "#ui-id-1"
	searchButtonSelector = `a[onclick="SearchPlaceDateNightValues();"]`
)

// A results table left over from the previous search is tagged before
// submitting. Search waits for, and ParseRows reads, only untagged tables.
const staleAttr = "data-campwatch-stale"

var (
	markStaleResultsJS = fmt.Sprintf(
		`document.querySelectorAll(%q).forEach(function (el) { el.setAttribute(%q, "1"); });`,
		resultsBoxSelector, staleAttr)
	freshResultsSelector = resultsBoxSelector + ":not([" + staleAttr + "])"
)

// Options tunes page waits.
type Options struct {
	URL            string
	LoadTimeout    time.Duration // initial page load
	ElementTimeout time.Duration // autocomplete and result table
	SettleTime     time.Duration // pause after submitting a search
}

// Site is the search executor and extractor for the reservation website.
type Site struct {
	driver browser.Driver
	opts   Options
	logger *logrus.Entry
}

// NewSite returns a Site that drives the search page through driver.
func NewSite(driver browser.Driver, opts Options, logger *logrus.Entry) *Site {
	return &Site{driver: driver, opts: opts, logger: logger}
}

// Open loads the search page and waits for the form controls.
func (s *Site) Open(ctx context.Context) error {
	s.logger.WithField("url", s.opts.URL).Info("Loading reservation website")
	if err := s.driver.Navigate(ctx, s.opts.URL); err != nil {
		return fmt.Errorf("navigating to %s: %w", s.opts.URL, err)
	}
	if err := s.waitForm(ctx, s.opts.LoadTimeout); err != nil {
		return err
	}
	// The page keeps loading trackers long after the form is usable.
	if err := s.driver.Execute(ctx, "window.stop();"); err != nil {
		s.logger.WithError(err).Warn("Could not stop page loading")
	}
	return nil
}

// Reset reloads the page so the next search starts from a clean form.
func (s *Site) Reset(ctx context.Context) error {
	s.logger.Debug("Refreshing search page")
	if err := s.driver.Refresh(ctx); err != nil {
		return fmt.Errorf("refreshing page: %w", err)
	}
	return s.waitForm(ctx, s.opts.LoadTimeout)
}

func (s *Site) waitForm(ctx context.Context, timeout time.Duration) error {
	for _, sel := range []string{parkInputSelector, arrivalSelector, searchButtonSelector} {
		if err := s.driver.WaitPresent(ctx, sel, timeout); err != nil {
			return fmt.Errorf("waiting for search form: %w", err)
		}
	}
	return nil
}

// Search fills the search form for req and submits it. The park name is used
// as given; callers normalize it first.
func (s *Site) Search(ctx context.Context, req search.Request) error {
	logCtx := s.logger.WithFields(logrus.Fields{
		"park":   req.Park,
		"date":   req.ArrivalDate,
		"nights": req.StayNights,
	})
	logCtx.Debug("Submitting search")

	steps := []struct {
		name string
		do   func() error
	}{
		{"clear park", func() error { return s.driver.Clear(ctx, parkInputSelector) }},
		{"type park", func() error { return s.driver.Type(ctx, parkInputSelector, req.Park) }},
		{"wait suggestion", func() error { return s.driver.WaitPresent(ctx, suggestionSelector, s.opts.ElementTimeout) }},
		{"pick suggestion", func() error { return s.driver.Click(ctx, suggestionSelector) }},
		{"clear date", func() error { return s.driver.Clear(ctx, arrivalSelector) }},
		{"type date", func() error { return s.driver.Type(ctx, arrivalSelector, req.ArrivalDate) }},
		{"select nights", func() error { return s.driver.SelectOption(ctx, staySelectSelector, req.StayNights) }},
		{"mark stale results", func() error { return s.driver.Execute(ctx, markStaleResultsJS) }},
		{"submit", func() error { return s.driver.Click(ctx, searchButtonSelector) }},
	}
	for _, step := range steps {
		if err := step.do(); err != nil {
			return fmt.Errorf("search %s: %w", step.name, err)
		}
	}

	if err := sleep(ctx, s.opts.SettleTime); err != nil {
		return err
	}
	if err := s.driver.WaitPresent(ctx, freshResultsSelector, s.opts.ElementTimeout); err != nil {
		return fmt.Errorf("waiting for results: %w", err)
	}
	return nil
}

// Results parses the currently displayed result table.
func (s *Site) Results(ctx context.Context) ([]availability.Row, error) {
	html, err := s.driver.PageSource(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading page source: %w", err)
	}
	return ParseRows(strings.NewReader(html))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
