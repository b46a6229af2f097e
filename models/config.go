package models

import "time"

type EnvConfig struct {
	Host            string
	Port            int
	ProxyPathPrefix string

	OriginTimeout time.Duration
	MaxBodySize   int64
	UserAgent     string

	ExchangeURL     string
	ExchangeTimeout time.Duration

	AllowedOrigins  []string
	ShutdownTimeout time.Duration

	HTTPSProxy string
	HTTPProxy  string
	NoProxy    string

	ConfigFile string
	LogLevel   string
	LogFile    bool
}

// FileConfig is the layout of the optional YAML configuration file.
type FileConfig struct {
	Origins    map[string]*OriginConfig `yaml:"origins"`
	StaticKeys map[string]string        `yaml:"static_keys"`
}

// OriginConfig holds per-host settings applied when fetching from an origin.
type OriginConfig struct {
	HTTPProxy  string            `yaml:"http_proxy"`
	HTTPSProxy string            `yaml:"https_proxy"`
	NoProxy    string            `yaml:"no_proxy"`
	Headers    map[string]string `yaml:"headers"`
	Cookies    string            `yaml:"cookies"`
}
