package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/efreitasn/matchbook/internal/loadgen"
)

var nameRegex = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// Config holds all runtime configuration for matchbook.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Ledger  LedgerConfig  `yaml:"ledger"`
	Log     LogConfig     `yaml:"log"`
	LoadGen LoadGenConfig `yaml:"loadgen"`
}

// EngineConfig configures the matching engine instance.
type EngineConfig struct {
	// Name identifies the instance and its ledger directory. Empty means
	// a fresh name is generated at startup.
	Name string `yaml:"name"`
}

// LedgerConfig configures the append-only logs.
type LedgerConfig struct {
	Dir  string `yaml:"dir"`
	Sync bool   `yaml:"sync"`
}

// LogConfig configures diagnostic logging. File is optional; when set,
// output is also written there and rotated by size.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// LoadGenConfig holds defaults for synthetic order flow.
type LoadGenConfig struct {
	MeanBid    float64 `yaml:"mean_bid"`
	MeanOffer  float64 `yaml:"mean_offer"`
	PriceStdev float64 `yaml:"price_stdev"`
	MeanQty    float64 `yaml:"mean_qty"`
	QtyStdev   float64 `yaml:"qty_stdev"`
	Seed       uint64  `yaml:"seed"`
}

// Default returns the built-in configuration. Load generator defaults
// come from loadgen.DefaultParams.
func Default() Config {
	p := loadgen.DefaultParams()
	return Config{
		Ledger: LedgerConfig{Dir: "ledger"},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		LoadGen: LoadGenConfig{
			MeanBid:    p.MeanBid,
			MeanOffer:  p.MeanOffer,
			PriceStdev: p.PriceStdev,
			MeanQty:    p.MeanQty,
			QtyStdev:   p.QtyStdev,
			Seed:       1,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at
// path, an optional .env file (MATCHBOOK_ENV_FILE, default ".env") and
// MATCHBOOK_* environment variables, in increasing precedence. It returns
// an error for any invalid value.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	envFile := getStr("MATCHBOOK_ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	var err error

	cfg.Engine.Name = getStr("MATCHBOOK_NAME", cfg.Engine.Name)
	cfg.Ledger.Dir = getStr("MATCHBOOK_LEDGER_DIR", cfg.Ledger.Dir)
	if cfg.Ledger.Sync, err = getBool("MATCHBOOK_LEDGER_SYNC", cfg.Ledger.Sync); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LEDGER_SYNC: %w", err)
	}

	cfg.Log.Level = getStr("MATCHBOOK_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getStr("MATCHBOOK_LOG_FILE", cfg.Log.File)
	if cfg.Log.MaxSizeMB, err = getInt("MATCHBOOK_LOG_MAX_SIZE_MB", cfg.Log.MaxSizeMB); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_SIZE_MB: %w", err)
	}
	if cfg.Log.MaxBackups, err = getInt("MATCHBOOK_LOG_MAX_BACKUPS", cfg.Log.MaxBackups); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_BACKUPS: %w", err)
	}
	if cfg.Log.MaxAgeDays, err = getInt("MATCHBOOK_LOG_MAX_AGE_DAYS", cfg.Log.MaxAgeDays); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_AGE_DAYS: %w", err)
	}
	if cfg.Log.Compress, err = getBool("MATCHBOOK_LOG_COMPRESS", cfg.Log.Compress); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LOG_COMPRESS: %w", err)
	}

	if cfg.LoadGen.Seed, err = getUint64("MATCHBOOK_LOADGEN_SEED", cfg.LoadGen.Seed); err != nil {
		return fmt.Errorf("invalid MATCHBOOK_LOADGEN_SEED: %w", err)
	}
	return nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	if c.Engine.Name != "" && !nameRegex.MatchString(c.Engine.Name) {
		return fmt.Errorf("invalid MATCHBOOK_NAME: %q, must match ^[A-Za-z0-9._-]{1,64}$", c.Engine.Name)
	}
	if c.Engine.Name == "." || c.Engine.Name == ".." {
		return fmt.Errorf("invalid MATCHBOOK_NAME: %q", c.Engine.Name)
	}
	if c.Ledger.Dir == "" {
		return errors.New("invalid MATCHBOOK_LEDGER_DIR: must not be empty")
	}
	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("invalid MATCHBOOK_LOG_LEVEL: %q, must be one of: debug, info, warn, error", c.Log.Level)
	}
	if c.Log.MaxSizeMB <= 0 {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_SIZE_MB: %d, must be positive", c.Log.MaxSizeMB)
	}
	if c.Log.MaxBackups < 0 {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_BACKUPS: %d, must not be negative", c.Log.MaxBackups)
	}
	if c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("invalid MATCHBOOK_LOG_MAX_AGE_DAYS: %d, must not be negative", c.Log.MaxAgeDays)
	}
	if c.LoadGen.MeanBid <= 0 || c.LoadGen.MeanOffer <= 0 || c.LoadGen.MeanQty <= 0 {
		return errors.New("invalid loadgen: mean bid, mean offer and mean qty must be positive")
	}
	if c.LoadGen.PriceStdev < 0 || c.LoadGen.QtyStdev < 0 {
		return errors.New("invalid loadgen: standard deviations must not be negative")
	}
	return nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getBool(key string, defaultVal bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(v)
}

func getUint64(key string, defaultVal uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
