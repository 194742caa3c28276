package telegram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
)

const testToken = "123:abc"

type fakeAPI struct {
	mu      sync.Mutex
	updates string
	sendOK  bool
	sent    []string
	srv     *httptest.Server
}

func (api *fakeAPI) rejectSends() {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.sendOK = false
}

func (api *fakeAPI) sentCount() int {
	api.mu.Lock()
	defer api.mu.Unlock()
	return len(api.sent)
}

func newFakeAPI(t *testing.T, updates string) *fakeAPI {
	api := &fakeAPI{updates: updates, sendOK: true}
	mux := http.NewServeMux()
	mux.HandleFunc("/bot"+testToken+"/getUpdates", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, api.updates)
	})
	mux.HandleFunc("/bot"+testToken+"/sendMessage", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		api.mu.Lock()
		api.sent = append(api.sent, string(body))
		ok := api.sendOK
		api.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			io.WriteString(w, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`)
			return
		}
		io.WriteString(w, `{"ok":true,"result":{"message_id":1,"date":1629000000,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	})
	api.srv = httptest.NewServer(mux)
	t.Cleanup(api.srv.Close)
	return api
}

func newTestAdapter(t *testing.T, api *fakeAPI) *TelebotAdapter {
	t.Helper()
	l := logrus.New()
	l.SetOutput(io.Discard)
	a, err := NewTelebotAdapter(testToken, api.srv.URL, logrus.NewEntry(l))
	if err != nil {
		t.Fatalf("NewTelebotAdapter() unexpected error: %v", err)
	}
	return a
}

func TestResolveTarget_LatestMessage(t *testing.T) {
	api := newFakeAPI(t, `{"ok":true,"result":[
		{"update_id":1,"message":{"message_id":10,"date":1,"chat":{"id":7,"type":"private","first_name":"Old"},"text":"hi"}},
		{"update_id":2,"message":{"message_id":11,"date":2,"chat":{"id":42,"type":"private","first_name":"Alice"},"text":"/start"}},
		{"update_id":3,"callback_query":{"id":"x","from":{"id":9,"first_name":"Cb"}}}
	]}`)
	a := newTestAdapter(t, api)

	target, err := a.ResolveTarget(context.Background())
	if err != nil {
		t.Fatalf("ResolveTarget() unexpected error: %v", err)
	}
	if target.ChatID != 42 {
		t.Errorf("ChatID = %d, want 42", target.ChatID)
	}
	if target.DisplayName != "Alice" {
		t.Errorf("DisplayName = %q, want %q", target.DisplayName, "Alice")
	}
}

func TestResolveTarget_NoUpdates(t *testing.T) {
	api := newFakeAPI(t, `{"ok":true,"result":[]}`)
	a := newTestAdapter(t, api)

	_, err := a.ResolveTarget(context.Background())
	if !errors.Is(err, ErrNoInboundMessage) {
		t.Fatalf("ResolveTarget() error = %v, want ErrNoInboundMessage", err)
	}
	if !errors.Is(err, ErrResolution) {
		t.Errorf("ErrNoInboundMessage should wrap ErrResolution")
	}
}

func TestResolveTarget_APIError(t *testing.T) {
	api := newFakeAPI(t, `{"ok":false,"error_code":401,"description":"Unauthorized"}`)
	a := newTestAdapter(t, api)

	if _, err := a.ResolveTarget(context.Background()); !errors.Is(err, ErrResolution) {
		t.Fatalf("ResolveTarget() error = %v, want ErrResolution", err)
	}
}

func TestSendMessage(t *testing.T) {
	api := newFakeAPI(t, `{"ok":true,"result":[]}`)
	a := newTestAdapter(t, api)

	if err := a.SendMessage(context.Background(), 42, "Campsite available"); err != nil {
		t.Fatalf("SendMessage() unexpected error: %v", err)
	}
	if n := api.sentCount(); n != 1 {
		t.Fatalf("got %d sendMessage calls, want 1", n)
	}

	api.rejectSends()
	if err := a.SendMessage(context.Background(), 42, "again"); err == nil {
		t.Error("SendMessage() expected error for rejected message")
	}
}

func TestSendMessage_CancelledContext(t *testing.T) {
	api := newFakeAPI(t, `{"ok":true,"result":[]}`)
	a := newTestAdapter(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := a.SendMessage(ctx, 42, "x"); !errors.Is(err, context.Canceled) {
		t.Fatalf("SendMessage() error = %v, want context.Canceled", err)
	}
	if api.sentCount() != 0 {
		t.Error("no request should be made after cancellation")
	}
}
