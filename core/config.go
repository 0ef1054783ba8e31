package core

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultBaseURL          = "https://api.simplyq.io"
	DefaultTimeout          = 30 * time.Second
	DefaultOpenTimeout      = 30 * time.Second
	DefaultReadTimeout      = 80 * time.Second
	DefaultWebhookTolerance = 300 * time.Second
)

type WebhookConfig struct {
	Tolerance time.Duration `koanf:"tolerance" mapstructure:"tolerance"`
}

// Config is the immutable client configuration. Callers build one value and
// pass it to NewClient; nothing in this module mutates it afterwards.
type Config struct {
	APIKey      string        `koanf:"api_key" mapstructure:"api_key"`
	BaseURL     string        `koanf:"base_url" mapstructure:"base_url"`
	Timeout     time.Duration `koanf:"timeout" mapstructure:"timeout"`
	OpenTimeout time.Duration `koanf:"open_timeout" mapstructure:"open_timeout"`
	ReadTimeout time.Duration `koanf:"read_timeout" mapstructure:"read_timeout"`
	Debugging   bool          `koanf:"debugging" mapstructure:"debugging"`
	UserAgent   string        `koanf:"user_agent" mapstructure:"user_agent"`
	Webhook     WebhookConfig `koanf:"webhook" mapstructure:"webhook"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL:     DefaultBaseURL,
		Timeout:     DefaultTimeout,
		OpenTimeout: DefaultOpenTimeout,
		ReadTimeout: DefaultReadTimeout,
		Webhook: WebhookConfig{
			Tolerance: DefaultWebhookTolerance,
		},
	}
}

// Validate checks structural settings only. The API key is checked per call
// so a client can be built before credentials are known.
func (c Config) Validate() error {
	base := strings.TrimSpace(c.BaseURL)
	if base == "" {
		return fmt.Errorf("core: base_url is required")
	}
	parsed, err := url.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("core: base_url %q is invalid", base)
	}
	if c.Timeout < 0 || c.OpenTimeout < 0 || c.ReadTimeout < 0 {
		return fmt.Errorf("core: timeouts must not be negative")
	}
	return nil
}

func (c Config) userAgent() string {
	if agent := strings.TrimSpace(c.UserAgent); agent != "" {
		return agent
	}
	return "simplyq-go/" + Version
}
