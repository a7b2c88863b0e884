package feed

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"folio-api/pkg/confkit"
)

// Config describes the upstream price-statistics feed.
type Config struct {
	URL string `yaml:"url"`

	ReconnectRaw string        `yaml:"reconnect"`
	Reconnect    time.Duration `yaml:"-"`

	// Assets optionally pins a baseline subscription set, used by the
	// ingestion daemon. Consumer-driven interest is added on top.
	Assets []string `yaml:"assets"`
}

// LoadConfig reads feed configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads feed configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/feed.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read feed config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal feed config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	c.URL = strings.TrimSpace(os.ExpandEnv(c.URL))
	c.ReconnectRaw = strings.TrimSpace(os.ExpandEnv(c.ReconnectRaw))
	if c.ReconnectRaw != "" {
		d, err := time.ParseDuration(c.ReconnectRaw)
		if err != nil {
			return fmt.Errorf("feed config: invalid reconnect %q: %w", c.ReconnectRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("feed config: reconnect must be positive, got %s", d)
		}
		c.Reconnect = d
	} else {
		c.Reconnect = defaultReconnectDelay
	}

	seen := make(map[string]struct{}, len(c.Assets))
	assets := make([]string, 0, len(c.Assets))
	for _, id := range c.Assets {
		id = strings.TrimSpace(os.ExpandEnv(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		assets = append(assets, id)
	}
	c.Assets = assets
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("feed config: url is required")
	}
	parsed, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("feed config: invalid url %q: %w", c.URL, err)
	}
	switch parsed.Scheme {
	case "ws", "wss":
	default:
		return fmt.Errorf("feed config: url scheme must be ws or wss, got %q", parsed.Scheme)
	}
	return nil
}

// NewTransportFromConfig wires a transport with the configured URL and delay.
func NewTransportFromConfig(cfg *Config, handler UpdateHandler, opts ...TransportOption) *Transport {
	base := []TransportOption{WithReconnectDelay(cfg.Reconnect)}
	return NewTransport(cfg.URL, handler, append(base, opts...)...)
}
