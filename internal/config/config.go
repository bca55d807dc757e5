package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. Every analytical constant the pipeline
// uses is configurable here; the defaults are the tuned values and should
// only change with new evidence.
type Global struct {
	// ReferencePath points at the reference price catalog CSV.
	ReferencePath string `mapstructure:"reference_path" yaml:"reference_path"`

	// Matching
	MatchThreshold int `mapstructure:"match_threshold" yaml:"match_threshold"`
	MatchWorkers   int `mapstructure:"match_workers" yaml:"match_workers"`

	// Scoring model
	Contamination float64 `mapstructure:"contamination" yaml:"contamination"`
	Trees         int     `mapstructure:"trees" yaml:"trees"`
	Seed          int64   `mapstructure:"seed" yaml:"seed"`

	// Explanation rule thresholds
	PriceHighRatio       float64 `mapstructure:"price_high_ratio" yaml:"price_high_ratio"`
	PriceLowRatio        float64 `mapstructure:"price_low_ratio" yaml:"price_low_ratio"`
	DiscrepancyTolerance float64 `mapstructure:"discrepancy_tolerance" yaml:"discrepancy_tolerance"`
	QuantityZThreshold   float64 `mapstructure:"quantity_z_threshold" yaml:"quantity_z_threshold"`
	LowMatchScore        int     `mapstructure:"low_match_score" yaml:"low_match_score"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("BUDGETLENS")
	v.AutomaticEnv()

	v.SetDefault("reference_path", "")
	v.SetDefault("match_threshold", 70)
	v.SetDefault("match_workers", 0)
	v.SetDefault("contamination", 0.10)
	v.SetDefault("trees", 100)
	v.SetDefault("seed", 42)
	v.SetDefault("price_high_ratio", 1.5)
	v.SetDefault("price_low_ratio", 0.5)
	v.SetDefault("discrepancy_tolerance", 0.05)
	v.SetDefault("quantity_z_threshold", 2.0)
	v.SetDefault("low_match_score", 80)
	v.SetDefault("log_level", "info")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".budgetlens")
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is
// empty, it writes to ~/.budgetlens/config.yaml, creating the directory if
// necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, ".budgetlens")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
