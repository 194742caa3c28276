// internal/app/poll_service.go
package app

import (
	"context"
	"errors"
	"fmt"

	"campsite_notification_bot/internal/domain/availability"
	"campsite_notification_bot/internal/domain/notification"
	"campsite_notification_bot/internal/domain/search"
	domainTelegram "campsite_notification_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
)

// Site is the reservation website as seen by the poll loop.
type Site interface {
	Search(ctx context.Context, req search.Request) error
	Results(ctx context.Context) ([]availability.Row, error)
	// Reset returns the page to an empty search form after a failed request.
	Reset(ctx context.Context) error
}

// CycleReport summarises one pass over all search requests.
type CycleReport struct {
	Requests     int
	Searched     int
	Failed       int
	Rows         int
	Available    int
	Sent         int
	SendFailures int
	Suppressed   int
}

// Fields returns the report as log fields.
func (r CycleReport) Fields() logrus.Fields {
	return logrus.Fields{
		"requests":      r.Requests,
		"searched":      r.Searched,
		"failed":        r.Failed,
		"rows":          r.Rows,
		"available":     r.Available,
		"sent":          r.Sent,
		"send_failures": r.SendFailures,
		"suppressed":    r.Suppressed,
	}
}

// PollService runs poll cycles: search every request in order, read the
// result table and notify the target about every available row.
// It is not safe for concurrent use; the scheduler never overlaps cycles.
type PollService struct {
	site     Site
	client   domainTelegram.Client
	history  notification.Repository
	target   notification.Target
	requests []search.Request
	notified *notifiedSet // nil unless de-duplication is enabled
	logger   *logrus.Entry
}

// NewPollService creates a poll service for requests. With dedupe set, a row
// that was already announced is not sent again until it is seen unavailable.
func NewPollService(
	site Site,
	client domainTelegram.Client,
	history notification.Repository,
	target notification.Target,
	requests []search.Request,
	dedupe bool,
	logger *logrus.Entry,
) *PollService {
	s := &PollService{
		site:     site,
		client:   client,
		history:  history,
		target:   target,
		requests: requests,
		logger:   logger,
	}
	if dedupe {
		s.notified = newNotifiedSet()
	}
	return s
}

// RunCycle processes every request once. A failing request is logged and
// skipped; only cancellation of ctx ends the cycle early.
func (s *PollService) RunCycle(ctx context.Context) CycleReport {
	report := CycleReport{Requests: len(s.requests)}
	s.logger.WithField("requests", report.Requests).Info("Checking availability...")

	for _, req := range s.requests {
		if ctx.Err() != nil {
			s.logger.Warn("Poll cycle cancelled")
			break
		}
		req.Park = search.NormalizePark(req.Park)
		logCtx := s.logger.WithFields(logrus.Fields{
			"park":   req.Park,
			"date":   req.ArrivalDate,
			"nights": req.StayNights,
		})

		rows, err := s.check(ctx, req)
		if err != nil {
			report.Failed++
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				logCtx.WithError(err).Warn("Search interrupted")
				break
			}
			logCtx.WithError(err).Error("Search failed, skipping request")
			if rerr := s.site.Reset(ctx); rerr != nil {
				logCtx.WithError(rerr).Warn("Could not reset search page")
			}
			continue
		}
		report.Searched++
		report.Rows += len(rows)
		logCtx.WithField("rows", len(rows)).Debug("Results extracted")

		for _, row := range rows {
			if !row.Available {
				s.notified.forget(req, row)
				continue
			}
			report.Available++
			if s.notified.contains(req, row) {
				report.Suppressed++
				continue
			}
			if s.notify(ctx, req, row, logCtx) {
				report.Sent++
				s.notified.remember(req, row)
			} else {
				report.SendFailures++
			}
		}
	}

	s.logger.WithFields(report.Fields()).Info("Poll cycle finished")
	return report
}

func (s *PollService) check(ctx context.Context, req search.Request) ([]availability.Row, error) {
	if err := s.site.Search(ctx, req); err != nil {
		return nil, err
	}
	rows, err := s.site.Results(ctx)
	if err != nil {
		return nil, fmt.Errorf("extracting results: %w", err)
	}
	return rows, nil
}

// notify sends one message and records the attempt. It reports whether the
// message was delivered.
func (s *PollService) notify(ctx context.Context, req search.Request, row availability.Row, logCtx *logrus.Entry) bool {
	text := FormatMessage(req, row)
	logCtx = logCtx.WithFields(logrus.Fields{"facility": row.Facility, "unit_type": row.UnitType})

	sendErr := s.client.SendMessage(ctx, s.target.ChatID, text)
	if sendErr != nil {
		logCtx.WithError(sendErr).Error("Failed to send notification")
	} else {
		logCtx.WithField("recipient", s.target.DisplayName).Info("Campsite available, notification sent")
	}

	rec := &notification.Sent{
		ChatID:      s.target.ChatID,
		Park:        req.Park,
		ArrivalDate: req.ArrivalDate,
		StayNights:  req.StayNights,
		Facility:    row.Facility,
		UnitType:    row.UnitType,
		Text:        text,
		Delivered:   sendErr == nil,
	}
	if err := s.history.Record(ctx, rec); err != nil {
		logCtx.WithError(err).Warn("Failed to record notification history")
	}
	return sendErr == nil
}

// FormatMessage renders the notification text for an available row.
func FormatMessage(req search.Request, row availability.Row) string {
	return fmt.Sprintf("%s\n\tFacility : %s\n\tUnit Type : %s\n\tFrom %s\nis AVAILABLE for %d nights",
		req.Park, row.Facility, row.UnitType, req.ArrivalDate, req.StayNights)
}
