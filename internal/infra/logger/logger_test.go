package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"campsite_notification_bot/internal/infra/config"

	"github.com/sirupsen/logrus"
)

func TestFormatterFor(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"Staging", true},
		{"development", false},
		{"", false},
	}
	for _, tt := range tests {
		_, isJSON := formatterFor(tt.environment).(*logrus.JSONFormatter)
		if isJSON != tt.wantJSON {
			t.Errorf("formatterFor(%q) JSON = %v, want %v", tt.environment, isJSON, tt.wantJSON)
		}
	}
}

func TestInit_InvalidLevelFallsBackToInfo(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "chatty", Environment: "development"})
	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("level = %s, want info", Log.GetLevel())
	}

	Init(&config.AppConfig{LogLevel: "debug", Environment: "development"})
	if Log.GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", Log.GetLevel())
	}
}

func TestComponent(t *testing.T) {
	Init(&config.AppConfig{LogLevel: "info", Environment: "production"})
	var buf bytes.Buffer
	Log.SetOutput(&buf)

	Component("poll").Info("Poll cycle finished")

	var entry map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["component"] != "poll" {
		t.Errorf("component = %v, want poll", entry["component"])
	}
}
