package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Table parsing
	Delimiter          string   `mapstructure:"delimiter" yaml:"delimiter"`
	DecimalSeparator   string   `mapstructure:"decimal_separator" yaml:"decimal_separator"`
	ThousandsSeparator string   `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	NAValues           []string `mapstructure:"na_values" yaml:"na_values"`
	MaxRows            int      `mapstructure:"max_rows" yaml:"max_rows"`
	UnitNormalize      bool     `mapstructure:"unit_normalize" yaml:"unit_normalize"`

	// Output
	FullMatrix   bool   `mapstructure:"full_matrix" yaml:"full_matrix"`
	OutputFormat string `mapstructure:"output_format" yaml:"output_format"`

	// Run history
	StoreDSN     string `mapstructure:"store_dsn" yaml:"store_dsn"`
	StoreEnabled bool   `mapstructure:"store_enabled" yaml:"store_enabled"`

	// Prepared reference models kept in memory
	CacheSize int `mapstructure:"cache_size" yaml:"cache_size"`
}

// Dir returns the configuration directory, ~/.mess.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".mess"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.mess/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
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

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("MESS")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("delimiter", "")
	v.SetDefault("decimal_separator", "")
	v.SetDefault("thousands_separator", "")
	v.SetDefault("na_values", []string{"", "NA", "NaN", "null", "-9999"})
	v.SetDefault("max_rows", 0)
	v.SetDefault("unit_normalize", true)
	v.SetDefault("full_matrix", false)
	v.SetDefault("output_format", "csv")
	v.SetDefault("store_dsn", "")
	v.SetDefault("store_enabled", true)
	v.SetDefault("cache_size", 8)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
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
	// Resolve store_dsn default: ~/.mess/runs.db
	if c.StoreDSN == "" {
		c.StoreDSN = filepath.Join(dir, "runs.db")
	}
	if c.CacheSize <= 0 {
		c.CacheSize = 1
	}
	return &c, nil
}

// Rune resolves a separator setting to a rune. A single character stands
// for itself; the words tab, comma, dot, semicolon, pipe and space name
// the usual separators. An empty setting yields 0. ok is false for any
// other multi-character value.
func Rune(s string) (r rune, ok bool) {
	if s == "" {
		return 0, true
	}
	if utf8.RuneCountInString(s) == 1 {
		r, _ = utf8.DecodeRuneInString(s)
		return r, true
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tab", `\t`:
		return '\t', true
	case "comma":
		return ',', true
	case "dot":
		return '.', true
	case "semicolon":
		return ';', true
	case "pipe":
		return '|', true
	case "space":
		return ' ', true
	}
	return 0, false
}
