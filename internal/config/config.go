package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/vegasq/seqcat/composition"
	"github.com/vegasq/seqcat/output"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultFormat   = "jsonl"
	DefaultLogLevel = "info"
)

// Config holds the settings of the seqcat command. Fields map 1:1 to the
// YAML file; command-line flags override them.
type Config struct {
	Output OutputConfig `yaml:"output"`
	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
	Stats  StatsConfig  `yaml:"stats"`
}

// OutputConfig controls how results are written.
type OutputConfig struct {
	// Format is one of: jsonl | json | csv | table.
	Format string `yaml:"format"`

	// Limit caps the number of rows printed; 0 means no limit.
	Limit int64 `yaml:"limit"`
}

// EngineConfig controls query execution.
type EngineConfig struct {
	// Parallelism is the number of batches processed at once; 0 means one
	// per CPU.
	Parallelism int `yaml:"parallelism"`

	// BatchSize is the number of records per batch read from FASTA/FASTQ
	// files; 0 uses the reader default.
	BatchSize int `yaml:"batch_size"`

	// UndefinedGC is what gc_content reports for sequences without a single
	// informative base: null | zero.
	UndefinedGC string `yaml:"undefined_gc"`
}

// LogConfig controls diagnostic logging on stderr.
type LogConfig struct {
	// Level is one of: debug | info | warn | error.
	Level string `yaml:"level"`
}

// StatsConfig controls the execution statistics file.
type StatsConfig struct {
	// Path is where query statistics are written in Prometheus text format.
	// Empty disables the file.
	Path string `yaml:"path"`
}

// Policy returns the gc_content policy named by engine.undefined_gc
func (c *Config) Policy() composition.Policy {
	p, _ := composition.ParsePolicy(c.Engine.UndefinedGC)
	return p
}

// LogLevel returns the level named by log.level
func (c *Config) LogLevel() log.Level {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config pre-populated with default values.
func Default() *Config {
	return &Config{
		Output: OutputConfig{Format: DefaultFormat},
		Engine: EngineConfig{UndefinedGC: composition.PolicyNull.String()},
		Log:    LogConfig{Level: DefaultLogLevel},
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if _, err := output.New(c.Output.Format, nil); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output.limit must not be negative")
	}
	if c.Engine.Parallelism < 0 {
		return fmt.Errorf("engine.parallelism must not be negative")
	}
	if c.Engine.BatchSize < 0 {
		return fmt.Errorf("engine.batch_size must not be negative")
	}
	if _, err := composition.ParsePolicy(c.Engine.UndefinedGC); err != nil {
		return fmt.Errorf("engine.undefined_gc: %w", err)
	}
	if _, err := log.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	return nil
}
