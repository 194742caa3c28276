package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPath           = "campwatch.env"
	defaultWebsite        = "https://reserve.floridastateparks.org/Web/Facilities/SearchViewUnitAvailabity.aspx"
	defaultInputFile      = "data/Campsite Input.csv"
	defaultTelegramAPIURL = "https://api.telegram.org"
)

// AppConfig holds all configuration for the application.
// It is built once by Load and passed explicitly to each component.
type AppConfig struct {
	Website             string
	WebsiteLoadTime     time.Duration // upper bound for the search form to appear
	RuntimeInterval     time.Duration // poll period
	Browser             string        // firefox, chromium, webkit (playwright) or chrome (chromedp)
	Headless            bool
	InputFile           string
	TelegramToken       string
	TelegramAPIURL      string
	ElementTimeout      time.Duration
	SettleTime          time.Duration
	LogLevel            string
	Environment         string
	DatabaseURL         string // optional; enables the Postgres notification history
	DedupeNotifications bool
}

// Load reads the key-value configuration file at path. Files ending in .yaml or .yml
// are parsed as a flat YAML mapping, anything else as a dotenv file.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		path = DefaultPath
	}

	values, err := readValues(path)
	if err != nil {
		return nil, err
	}
	return FromValues(values)
}

func readValues(path string) (map[string]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		raw := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		values := make(map[string]string, len(raw))
		for k, v := range raw {
			if v == nil {
				continue
			}
			values[k] = fmt.Sprint(v)
		}
		return values, nil
	default:
		values, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return values, nil
	}
}

// FromValues builds an AppConfig from raw key-value pairs, applying defaults.
// Keys are matched case-insensitively.
func FromValues(values map[string]string) (*AppConfig, error) {
	v := make(map[string]string, len(values))
	for k, val := range values {
		v[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(val)
	}

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = v["token"]
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("token is not set")
	}

	cfg.Website = orDefault(v["website"], defaultWebsite)
	cfg.InputFile = orDefault(v["input_file"], defaultInputFile)
	cfg.TelegramAPIURL = strings.TrimRight(orDefault(v["telegram_api_url"], defaultTelegramAPIURL), "/")
	cfg.DatabaseURL = v["database_url"]

	cfg.Browser = strings.ToLower(orDefault(v["browser"], "firefox"))
	switch cfg.Browser {
	case "firefox", "chromium", "webkit", "chrome":
	default:
		return nil, fmt.Errorf("unsupported browser %q (want firefox, chromium, webkit or chrome)", cfg.Browser)
	}

	if cfg.WebsiteLoadTime, err = seconds(v, "website_load_time", 15); err != nil {
		return nil, err
	}
	if cfg.ElementTimeout, err = seconds(v, "element_timeout", 20); err != nil {
		return nil, err
	}
	if cfg.SettleTime, err = seconds(v, "settle_time", 2); err != nil {
		return nil, err
	}

	mins, err := positiveInt(v, "runtime_interval_mins", 5)
	if err != nil {
		return nil, err
	}
	cfg.RuntimeInterval = time.Duration(mins) * time.Minute

	if cfg.Headless, err = boolean(v, "headless", true); err != nil {
		return nil, err
	}
	if cfg.DedupeNotifications, err = boolean(v, "dedupe_notifications", false); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(orDefault(v["log_level"], "info"))
	cfg.Environment = strings.ToLower(orDefault(v["environment"], "development"))

	return cfg, nil
}

// CronSpec returns the robfig/cron schedule for the poll interval.
func (c *AppConfig) CronSpec() string {
	return "@every " + c.RuntimeInterval.String()
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func positiveInt(v map[string]string, key string, def int) (int, error) {
	raw, ok := v[key]
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive, got %d", key, n)
	}
	return n, nil
}

func seconds(v map[string]string, key string, def int) (time.Duration, error) {
	raw, ok := v[key]
	if !ok || raw == "" {
		return time.Duration(def) * time.Second, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid %s: must not be negative", key)
	}
	return time.Duration(f * float64(time.Second)), nil
}

func boolean(v map[string]string, key string, def bool) (bool, error) {
	raw, ok := v[key]
	if !ok || raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}
