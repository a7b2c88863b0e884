package solana

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"folio-api/pkg/confkit"
)

// Config describes the RPC endpoint used for balance reads.
type Config struct {
	RPCURL     string `yaml:"rpc_url"`
	Commitment string `yaml:"commitment"`
	MaxRetries *int   `yaml:"max_retries"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`
}

// LoadConfig reads RPC configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open solana config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// MustLoad reads RPC configuration from the default project location and
// panics on error.
func MustLoad() *Config {
	cfg, err := LoadConfig(confkit.MustProjectPath("etc/solana.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read solana config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal solana config: %w", err)
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
	c.RPCURL = strings.TrimSpace(os.ExpandEnv(c.RPCURL))
	if c.RPCURL == "" {
		c.RPCURL = defaultRPCURL
	}
	c.Commitment = strings.TrimSpace(os.ExpandEnv(c.Commitment))
	if c.Commitment == "" {
		c.Commitment = defaultCommitment
	}
	c.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(c.TimeoutRaw))
	if c.TimeoutRaw != "" {
		d, err := time.ParseDuration(c.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("solana config: invalid timeout %q: %w", c.TimeoutRaw, err)
		}
		if d <= 0 {
			return fmt.Errorf("solana config: timeout must be positive, got %s", d)
		}
		c.Timeout = d
	} else {
		c.Timeout = defaultHTTPTimeout
	}
	return nil
}

// Validate ensures the configuration is structurally sound.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.RPCURL)
	if err != nil {
		return fmt.Errorf("solana config: invalid rpc_url %q: %w", c.RPCURL, err)
	}
	switch parsed.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("solana config: rpc_url scheme must be http or https, got %q", parsed.Scheme)
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		return fmt.Errorf("solana config: unknown commitment %q", c.Commitment)
	}
	if c.MaxRetries != nil && *c.MaxRetries < 0 {
		return fmt.Errorf("solana config: max_retries must be non-negative, got %d", *c.MaxRetries)
	}
	return nil
}

// NewClientFromConfig wires a client with the configured endpoint, timeout,
// and retry budget.
func NewClientFromConfig(cfg *Config, opts ...Option) *Client {
	base := []Option{
		WithRPCURL(cfg.RPCURL),
		WithCommitment(cfg.Commitment),
		WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	}
	if cfg.MaxRetries != nil {
		base = append(base, WithMaxRetries(*cfg.MaxRetries))
	}
	return NewClient(append(base, opts...)...)
}
