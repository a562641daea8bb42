package config

import (
	"fmt"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"tarpitd/internal/generator"
)

// Config holds runtime parameters for the daemon. Load fills it from a
// file; Default returns the values used when no file is given. Validate
// must pass before anything starts listening.
type Config struct {
	HTTP      HTTPConfig      `json:"http" yaml:"http" toml:"http"`
	Generator GeneratorConfig `json:"generator" yaml:"generator" toml:"generator"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging" toml:"logging"`
}

// HTTPConfig configures the bait listener and its middleware.
type HTTPConfig struct {
	Addr string `json:"addr" yaml:"addr" toml:"addr"`
	// Routes to bait. Ignored when CatchAll is set.
	Routes   []string `json:"routes" yaml:"routes" toml:"routes"`
	CatchAll bool     `json:"catch_all" yaml:"catch_all" toml:"catch_all"`
	// ContentType sent on every bait response.
	ContentType string `json:"content_type" yaml:"content_type" toml:"content_type"`
	// RateLimit is requests per period per client IP; 0 disables.
	RateLimit           int  `json:"rate_limit" yaml:"rate_limit" toml:"rate_limit"`
	RateLimitPeriodSecs int  `json:"rate_limit_period_seconds" yaml:"rate_limit_period_seconds" toml:"rate_limit_period_seconds"`
	HealthEnabled       bool `json:"health_enabled" yaml:"health_enabled" toml:"health_enabled"`
	// HealthAddr hosts liveness and metrics, away from the bait port.
	HealthAddr  string   `json:"health_addr" yaml:"health_addr" toml:"health_addr"`
	CORSEnabled bool     `json:"cors_enabled" yaml:"cors_enabled" toml:"cors_enabled"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
}

// GeneratorConfig selects and tunes the content generator.
type GeneratorConfig struct {
	Type string `json:"type" yaml:"type" toml:"type"`
	// Data is the source path for markov (training corpus) and static
	// (decoy file). Unused by random.
	Data      string `json:"data" yaml:"data" toml:"data"`
	ChunkSize int    `json:"chunk_size" yaml:"chunk_size" toml:"chunk_size"`
	// Prefix is prepended to the first chunk only, so the stream opens
	// like a real document.
	Prefix        string `json:"prefix" yaml:"prefix" toml:"prefix"`
	MaxConcurrent int    `json:"max_concurrent" yaml:"max_concurrent" toml:"max_concurrent"`
	TimeLimitSecs int64  `json:"time_limit_seconds" yaml:"time_limit_seconds" toml:"time_limit_seconds"`
	SizeLimit     int64  `json:"size_limit_bytes" yaml:"size_limit_bytes" toml:"size_limit_bytes"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	// Path of the JSON log file; empty disables file logging.
	Path string `json:"path" yaml:"path" toml:"path"`
	// Console enables human-readable stderr logging.
	Console bool   `json:"console" yaml:"console" toml:"console"`
	Level   string `json:"level" yaml:"level" toml:"level"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:                ":8080",
			Routes:              []string{"/"},
			CatchAll:            true,
			ContentType:         "text/html",
			RateLimitPeriodSecs: 300,
			HealthAddr:          ":8081",
		},
		Generator: GeneratorConfig{
			Type:      string(generator.KindRandom),
			ChunkSize: 1024 * 16,
			Prefix:    "<!DOCTYPE html><html><body>\n",
		},
		Logging: LoggingConfig{
			Path:    "tarpitd.log",
			Console: true,
			Level:   "info",
		},
	}
}

// TimeLimit returns the generator time ceiling as a duration.
func (g GeneratorConfig) TimeLimit() time.Duration {
	return time.Duration(g.TimeLimitSecs) * time.Second
}

// Kind returns the parsed generator kind. Call Validate first.
func (g GeneratorConfig) Kind() generator.Kind {
	k, _ := generator.ParseKind(g.Type)
	return k
}

// Validate rejects configurations that must not reach the listen phase.
// Everything here is a fatal startup error by design: a honeypot with a
// half-working generator is worse than one that refuses to start.
func (c Config) Validate() error {
	if _, err := generator.ParseKind(c.Generator.Type); err != nil {
		return err
	}
	if c.Generator.ChunkSize < generator.MinChunkSize {
		return fmt.Errorf("generator.chunk_size %d below minimum %d (tiny chunks drown in per-chunk overhead)",
			c.Generator.ChunkSize, generator.MinChunkSize)
	}
	if c.Generator.MaxConcurrent < 0 {
		return fmt.Errorf("generator.max_concurrent must be >= 0")
	}
	if c.Generator.TimeLimitSecs < 0 || c.Generator.SizeLimit < 0 {
		return fmt.Errorf("generator limits must be >= 0 (0 disables)")
	}
	if !c.HTTP.CatchAll && len(c.HTTP.Routes) == 0 {
		return fmt.Errorf("http.catch_all is off but no http.routes were provided")
	}
	if c.HTTP.RateLimit < 0 {
		return fmt.Errorf("http.rate_limit must be >= 0")
	}
	if c.HTTP.RateLimit > 0 && c.HTTP.RateLimitPeriodSecs <= 0 {
		return fmt.Errorf("http.rate_limit is set but http.rate_limit_period_seconds is not")
	}
	if c.HTTP.HealthEnabled && c.HTTP.HealthAddr == c.HTTP.Addr {
		return fmt.Errorf("http.health_addr must differ from http.addr (both are %q)", c.HTTP.Addr)
	}
	return nil
}

// DefaultTOML renders the default configuration, for --print-default-config.
func DefaultTOML() (string, error) {
	b, err := toml.Marshal(Default())
	if err != nil {
		return "", err
	}
	return string(b), nil
}
