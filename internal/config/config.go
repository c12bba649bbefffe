package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/facegate/internal/constants"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Matching MatchingConfig `yaml:"matching"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	HNSW     HNSWConfig     `yaml:"hnsw"`
	Web      WebConfig      `yaml:"web"`
	Log      LogConfig      `yaml:"log"`
}

type MatchingConfig struct {
	Threshold     float64 `yaml:"threshold"`     // minimum similarity, exclusive
	Normalization float64 `yaml:"normalization"` // distance at which similarity reaches 0
	Policy        string  `yaml:"policy"`        // "first" or "best"
	Dim           int     `yaml:"dim"`           // descriptor length
}

type AuthConfig struct {
	MinDetectionConfidence float64 `yaml:"min_detection_confidence"`
	MatchThreshold         float64 `yaml:"match_threshold"`
}

type DatabaseConfig struct {
	URL          string `yaml:"-"`              // PostgreSQL connection URL (empty = in-memory store)
	MaxOpenConns int    `yaml:"max_open_conns"` // Maximum open connections (default 25)
	MaxIdleConns int    `yaml:"max_idle_conns"` // Maximum idle connections (default 5)
}

type HNSWConfig struct {
	Enabled   bool   `yaml:"enabled"`
	IndexPath string `yaml:"-"` // Path to persist the identity index (optional, rebuilt on startup otherwise)
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Backend returns the name of the configured identity store.
func (c *DatabaseConfig) Backend() string {
	if c.URL == "" {
		return "memory"
	}
	return "postgres"
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable as a float64.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean (1, true, yes, ...).
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList reads a comma separated list, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Defaults returns the configuration embedded in defaults.yaml.
func Defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the defaults overridden by environment variables.
func Load() *Config {
	d := Defaults()

	return &Config{
		Matching: MatchingConfig{
			Threshold:     envFloat("MATCH_THRESHOLD", d.Matching.Threshold),
			Normalization: envFloat("MATCH_NORMALIZATION", d.Matching.Normalization),
			Policy:        envString("MATCH_POLICY", d.Matching.Policy),
			Dim:           envInt("DESCRIPTOR_DIM", d.Matching.Dim),
		},
		Auth: AuthConfig{
			MinDetectionConfidence: envFloat("AUTH_MIN_DETECTION_CONFIDENCE", d.Auth.MinDetectionConfidence),
			MatchThreshold:         envFloat("AUTH_MATCH_THRESHOLD", d.Auth.MatchThreshold),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		HNSW: HNSWConfig{
			Enabled:   envBool("HNSW_ENABLED", d.HNSW.Enabled),
			IndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", d.Log.Level),
			Format: envString("LOG_FORMAT", d.Log.Format),
		},
	}
}

// inUnitRange is false for NaN, which strconv.ParseFloat accepts from the env.
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}

// Validate reports every out-of-range value at once.
func (c *Config) Validate() error {
	var errs []error

	if !inUnitRange(c.Matching.Threshold) {
		errs = append(errs, fmt.Errorf("MATCH_THRESHOLD must be in [0, 1], got %g", c.Matching.Threshold))
	}
	if !(c.Matching.Normalization > 0) || math.IsInf(c.Matching.Normalization, 1) {
		errs = append(errs, fmt.Errorf("MATCH_NORMALIZATION must be positive, got %g", c.Matching.Normalization))
	}
	switch c.Matching.Policy {
	case "first", "best":
	default:
		errs = append(errs, fmt.Errorf("MATCH_POLICY must be \"first\" or \"best\", got %q", c.Matching.Policy))
	}
	if c.Matching.Dim <= 0 {
		errs = append(errs, fmt.Errorf("DESCRIPTOR_DIM must be positive, got %d", c.Matching.Dim))
	}
	if !inUnitRange(c.Auth.MinDetectionConfidence) {
		errs = append(errs, fmt.Errorf("AUTH_MIN_DETECTION_CONFIDENCE must be in [0, 1], got %g", c.Auth.MinDetectionConfidence))
	}
	if !inUnitRange(c.Auth.MatchThreshold) {
		errs = append(errs, fmt.Errorf("AUTH_MATCH_THRESHOLD must be in [0, 1], got %g", c.Auth.MatchThreshold))
	}
	if c.Database.URL != "" && c.Matching.Dim != constants.DescriptorDim {
		errs = append(errs, fmt.Errorf("DESCRIPTOR_DIM must be %d with the PostgreSQL store, got %d",
			constants.DescriptorDim, c.Matching.Dim))
	}
	if c.HNSW.IndexPath != "" && !c.HNSW.Enabled {
		errs = append(errs, errors.New("HNSW_INDEX_PATH requires HNSW_ENABLED"))
	}

	return errors.Join(errs...)
}
