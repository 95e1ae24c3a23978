package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ClientConfig configures the terminal client.
type ClientConfig struct {
	APIBaseURL  string
	SessionFile string
	AlertDelay  time.Duration
	LogLevel    string
}

func LoadClient() *ClientConfig {
	return &ClientConfig{
		APIBaseURL:  strings.TrimRight(getEnv("FINANCEAI_API_BASE_URL", "http://localhost:4000"), "/"),
		SessionFile: getEnv("FINANCEAI_SESSION_FILE", defaultSessionFile()),
		AlertDelay:  getEnvDuration("FINANCEAI_ALERT_DELAY", 8*time.Second),
		LogLevel:    getEnv("FINANCEAI_LOG_LEVEL", "warn"),
	}
}

func (c *ClientConfig) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIBaseURL); err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': must be an absolute http(s) URL", c.APIBaseURL))
	}
	if c.SessionFile == "" {
		errors = append(errors, "session file path cannot be empty")
	}
	if c.AlertDelay <= 0 {
		errors = append(errors, fmt.Sprintf("invalid alert delay %v: must be positive", c.AlertDelay))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", ".financeai-session.json")
	}
	return filepath.Join(dir, "financeai", "session.json")
}
