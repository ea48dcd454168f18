// Package config loads tendereval settings from an optional YAML file and
// TENDEREVAL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"tendereval/services"
)

// Config is the complete application configuration.
type Config struct {
	Normalization NormalizationConfig `yaml:"normalization"`
	Money         MoneyConfig         `yaml:"money"`
	PTC           PTCConfig           `yaml:"ptc"`
	// Seed creates the demo project on first start.
	Seed bool `yaml:"seed"`
}

// NormalizationConfig holds the settings new evaluations start with.
type NormalizationConfig struct {
	NormalizeUnpriced         bool   `yaml:"normalize_unpriced"`
	NormalizeArithmeticErrors bool   `yaml:"normalize_arithmetic_errors"`
	Algorithm                 string `yaml:"algorithm" validate:"required,oneof=median lowest"`
}

// MoneyConfig controls how amounts are rendered in HTML and exports.
type MoneyConfig struct {
	Symbol   string `yaml:"symbol"`
	Grouping string `yaml:"grouping" validate:"required,oneof=indian international"`
}

// PTCConfig tunes clarification generation.
type PTCConfig struct {
	// DeviationThreshold is the relative distance from the item median
	// beyond which a price is queried (0.3 = 30%). 0 disables it.
	DeviationThreshold float64 `yaml:"deviation_threshold" validate:"gte=0,lte=10"`
}

// DefaultConfig returns a Config with the built-in defaults.
func DefaultConfig() *Config {
	d := services.DefaultSettings()
	return &Config{
		Normalization: NormalizationConfig{
			NormalizeUnpriced:         d.NormalizeUnpriced,
			NormalizeArithmeticErrors: d.NormalizeArithmeticErrors,
			Algorithm:                 string(d.Algorithm),
		},
		Money: MoneyConfig{
			Symbol:   services.DefaultMoneyFormat.Symbol,
			Grouping: services.DefaultMoneyFormat.Grouping,
		},
		PTC:  PTCConfig{DeviationThreshold: services.DefaultDeviationThreshold},
		Seed: true,
	}
}

var validate = validator.New()

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var ves validator.ValidationErrors
		if errors.As(err, &ves) {
			msgs := make([]string, 0, len(ves))
			for _, fe := range ves {
				msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty), then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Environment variables read by Load.
const (
	EnvPath                = "TENDEREVAL_CONFIG"
	EnvAlgorithm           = "TENDEREVAL_ALGORITHM"
	EnvNormalizeUnpriced   = "TENDEREVAL_NORMALIZE_UNPRICED"
	EnvNormalizeArithmetic = "TENDEREVAL_NORMALIZE_ARITHMETIC_ERRORS"
	EnvCurrencySymbol      = "TENDEREVAL_CURRENCY_SYMBOL"
	EnvGrouping            = "TENDEREVAL_GROUPING"
	EnvDeviationThreshold  = "TENDEREVAL_DEVIATION_THRESHOLD"
	EnvSeed                = "TENDEREVAL_SEED"
)

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAlgorithm); ok {
		c.Normalization.Algorithm = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := lookup(EnvCurrencySymbol); ok {
		c.Money.Symbol = v
	}
	if v, ok := lookup(EnvGrouping); ok {
		c.Money.Grouping = strings.ToLower(strings.TrimSpace(v))
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{EnvNormalizeUnpriced, &c.Normalization.NormalizeUnpriced},
		{EnvNormalizeArithmetic, &c.Normalization.NormalizeArithmeticErrors},
		{EnvSeed, &c.Seed},
	}
	for _, b := range bools {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", b.key, v)
		}
		*b.dst = parsed
	}

	if v, ok := lookup(EnvDeviationThreshold); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvDeviationThreshold, v)
		}
		c.PTC.DeviationThreshold = f
	}
	return nil
}

// Settings returns the default normalization settings for new evaluations.
func (c *Config) Settings() services.NormalizationSettings {
	return services.NormalizationSettings{
		NormalizeUnpriced:         c.Normalization.NormalizeUnpriced,
		NormalizeArithmeticErrors: c.Normalization.NormalizeArithmeticErrors,
		Algorithm:                 services.Algorithm(c.Normalization.Algorithm),
	}
}

// MoneyFormat returns the configured amount format.
func (c *Config) MoneyFormat() services.MoneyFormat {
	return services.MoneyFormat{Symbol: c.Money.Symbol, Grouping: c.Money.Grouping}
}
