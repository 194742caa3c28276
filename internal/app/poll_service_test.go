package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"campsite_notification_bot/internal/domain/availability"
	"campsite_notification_bot/internal/domain/browser"
	"campsite_notification_bot/internal/domain/notification"
	"campsite_notification_bot/internal/domain/search"

	"github.com/sirupsen/logrus"
)

// fakeSite serves canned rows per park and records the order of searches.
type fakeSite struct {
	rows      map[string][]availability.Row
	searchErr map[string]error
	parseErr  map[string]error
	searched  []string
	resets    int
	current   string
}

func (f *fakeSite) Search(_ context.Context, req search.Request) error {
	f.searched = append(f.searched, req.Park)
	f.current = req.Park
	return f.searchErr[req.Park]
}

func (f *fakeSite) Results(context.Context) ([]availability.Row, error) {
	if err := f.parseErr[f.current]; err != nil {
		return nil, err
	}
	return f.rows[f.current], nil
}

func (f *fakeSite) Reset(context.Context) error {
	f.resets++
	return nil
}

type sentMessage struct {
	chatID int64
	text   string
}

type fakeClient struct {
	sent    []sentMessage
	failing bool
}

func (c *fakeClient) ResolveTarget(context.Context) (notification.Target, error) {
	return notification.Target{ChatID: 42, DisplayName: "Alice"}, nil
}

func (c *fakeClient) SendMessage(_ context.Context, chatID int64, text string) error {
	if c.failing {
		return fmt.Errorf("telegram: Bad Request: chat not found (400)")
	}
	c.sent = append(c.sent, sentMessage{chatID: chatID, text: text})
	return nil
}

type fakeHistory struct {
	records []*notification.Sent
}

func (h *fakeHistory) Record(_ context.Context, s *notification.Sent) error {
	h.records = append(h.records, s)
	return nil
}

func (h *fakeHistory) ListRecent(context.Context, int) ([]*notification.Sent, error) {
	return h.records, nil
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

var bahiaHonda = search.Request{Park: "bahia honda", ArrivalDate: "08/15/2021", StayNights: 2}

func newTestService(site Site, client *fakeClient, history *fakeHistory, requests []search.Request, dedupe bool) *PollService {
	target := notification.Target{ChatID: 42, DisplayName: "Alice"}
	return NewPollService(site, client, history, target, requests, dedupe, testLogger())
}

func TestRunCycle_AvailableRowNotifies(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}},
	}}
	client := &fakeClient{}
	history := &fakeHistory{}

	report := newTestService(site, client, history, []search.Request{bahiaHonda}, false).RunCycle(context.Background())

	if len(client.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(client.sent))
	}
	want := "Bahia Honda\n\tFacility : Buttonwood Campground\n\tUnit Type : RV/Tent Site\n\tFrom 08/15/2021\nis AVAILABLE for 2 nights"
	if client.sent[0].text != want {
		t.Errorf("message text =\n%q\nwant\n%q", client.sent[0].text, want)
	}
	if client.sent[0].chatID != 42 {
		t.Errorf("chat id = %d, want 42", client.sent[0].chatID)
	}
	if report.Sent != 1 || report.Available != 1 || report.Searched != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if len(history.records) != 1 || !history.records[0].Delivered {
		t.Errorf("history should hold one delivered record, got %+v", history.records)
	}
}

func TestRunCycle_SoldOutRowIsSilent(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {{Facility: "Bayside Campground", UnitType: "Tent Only", Available: false}},
	}}
	client := &fakeClient{}

	report := newTestService(site, client, &fakeHistory{}, []search.Request{bahiaHonda}, false).RunCycle(context.Background())

	if len(client.sent) != 0 {
		t.Errorf("sent %d messages for a sold out row, want 0", len(client.sent))
	}
	if report.Rows != 1 || report.Available != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestRunCycle_MultipleAvailableRows(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {
			{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true},
			{Facility: "Bayside Campground", UnitType: "Tent Only", Available: false},
			{Facility: availability.UnknownFacility, UnitType: "Cabin", Available: true},
		},
	}}
	client := &fakeClient{}

	newTestService(site, client, &fakeHistory{}, []search.Request{bahiaHonda}, false).RunCycle(context.Background())

	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages, want one per available row (2)", len(client.sent))
	}
}

func TestRunCycle_RepeatsWithoutDedupe(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}},
	}}
	client := &fakeClient{}
	svc := newTestService(site, client, &fakeHistory{}, []search.Request{bahiaHonda}, false)

	svc.RunCycle(context.Background())
	svc.RunCycle(context.Background())

	if len(client.sent) != 2 {
		t.Fatalf("sent %d messages over two cycles, want 2", len(client.sent))
	}
	if client.sent[0].text != client.sent[1].text {
		t.Errorf("expected identical duplicate messages, got %q and %q", client.sent[0].text, client.sent[1].text)
	}
}

func TestRunCycle_Dedupe(t *testing.T) {
	row := availability.Row{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}
	site := &fakeSite{rows: map[string][]availability.Row{"Bahia Honda": {row}}}
	client := &fakeClient{}
	svc := newTestService(site, client, &fakeHistory{}, []search.Request{bahiaHonda}, true)

	svc.RunCycle(context.Background())
	report := svc.RunCycle(context.Background())
	if len(client.sent) != 1 {
		t.Fatalf("sent %d messages, want 1 while still available", len(client.sent))
	}
	if report.Suppressed != 1 {
		t.Errorf("Suppressed = %d, want 1", report.Suppressed)
	}

	soldOut := row
	soldOut.Available = false
	site.rows["Bahia Honda"] = []availability.Row{soldOut}
	svc.RunCycle(context.Background())

	site.rows["Bahia Honda"] = []availability.Row{row}
	svc.RunCycle(context.Background())
	if len(client.sent) != 2 {
		t.Errorf("sent %d messages, want a new one after the site became available again", len(client.sent))
	}
}

func TestRunCycle_DedupeRetriesFailedSend(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}},
	}}
	client := &fakeClient{failing: true}
	svc := newTestService(site, client, &fakeHistory{}, []search.Request{bahiaHonda}, true)

	report := svc.RunCycle(context.Background())
	if report.SendFailures != 1 || report.Sent != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}

	client.failing = false
	svc.RunCycle(context.Background())
	if len(client.sent) != 1 {
		t.Errorf("undelivered row should be sent on the next cycle, sent %d", len(client.sent))
	}
}

func TestRunCycle_FailuresAreScopedToRequest(t *testing.T) {
	requests := []search.Request{
		{Park: "atlantis", ArrivalDate: "08/15/2021", StayNights: 1},
		{Park: "grayton beach", ArrivalDate: "09/01/2021", StayNights: 3},
		{Park: "bahia honda", ArrivalDate: "08/15/2021", StayNights: 2},
	}
	site := &fakeSite{
		rows: map[string][]availability.Row{
			"Bahia Honda": {{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}},
		},
		searchErr: map[string]error{"Atlantis": fmt.Errorf("search wait suggestion: %w", browser.ErrElementNotFound)},
		parseErr:  map[string]error{"Grayton Beach": errors.New("unexpected result page structure")},
	}
	client := &fakeClient{}

	report := newTestService(site, client, &fakeHistory{}, requests, false).RunCycle(context.Background())

	wantOrder := []string{"Atlantis", "Grayton Beach", "Bahia Honda"}
	if len(site.searched) != len(wantOrder) {
		t.Fatalf("searched %v, want %v", site.searched, wantOrder)
	}
	for i, park := range wantOrder {
		if site.searched[i] != park {
			t.Errorf("search %d = %q, want %q", i, site.searched[i], park)
		}
	}
	if report.Failed != 2 || report.Searched != 1 || report.Sent != 1 {
		t.Errorf("unexpected report: %+v", report)
	}
	if site.resets != 2 {
		t.Errorf("page reset %d times, want once per failed request (2)", site.resets)
	}
}

func TestRunCycle_SendFailureIsRecorded(t *testing.T) {
	site := &fakeSite{rows: map[string][]availability.Row{
		"Bahia Honda": {{Facility: "Buttonwood Campground", UnitType: "RV/Tent Site", Available: true}},
	}}
	history := &fakeHistory{}

	report := newTestService(site, &fakeClient{failing: true}, history, []search.Request{bahiaHonda}, false).RunCycle(context.Background())

	if report.SendFailures != 1 {
		t.Errorf("SendFailures = %d, want 1", report.SendFailures)
	}
	if len(history.records) != 1 || history.records[0].Delivered {
		t.Errorf("history should hold one undelivered record, got %+v", history.records)
	}
}

func TestRunCycle_CancelledContextStops(t *testing.T) {
	site := &fakeSite{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestService(site, &fakeClient{}, &fakeHistory{}, []search.Request{bahiaHonda, bahiaHonda}, false).RunCycle(ctx)

	if len(site.searched) != 0 {
		t.Errorf("no search should start after cancellation, got %v", site.searched)
	}
	if report.Requests != 2 || report.Searched != 0 {
		t.Errorf("unexpected report: %+v", report)
	}
}

func TestFormatMessage(t *testing.T) {
	got := FormatMessage(
		search.Request{Park: "Fort Clinch", ArrivalDate: "01/02/2022", StayNights: 7},
		availability.Row{Facility: availability.UnknownFacility, UnitType: ""},
	)
	want := "Fort Clinch\n\tFacility : N/A\n\tUnit Type : \n\tFrom 01/02/2022\nis AVAILABLE for 7 nights"
	if got != want {
		t.Errorf("FormatMessage() = %q, want %q", got, want)
	}
}
