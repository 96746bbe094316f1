// Package config loads runtime configuration from YAML, .env files and TRADELAB_*
// environment variables, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"options-trade-lab/internal/logging"
	"options-trade-lab/internal/ranking"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRADELAB_"

const defaultEnvFile = ".env"

// Config is the full runtime configuration.
type Config struct {
	DataDir string         `yaml:"data_dir"`
	Files   Files          `yaml:"files"`
	Log     Log            `yaml:"log"`
	Metrics Metrics        `yaml:"metrics"`
	Ranking ranking.Params `yaml:"ranking"`

	// Extra legacy strategy aliases, merged over the built-in table.
	StrategyAliases map[string]string `yaml:"strategy_aliases"`
}

// Files names the durable stores. Relative paths resolve against DataDir.
type Files struct {
	ValidationLog string `yaml:"validation_log"`
	LifecycleLog  string `yaml:"lifecycle_log"`
	DecisionsDir  string `yaml:"decisions_dir"`
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // console or json
}

// Metrics configures Prometheus output.
type Metrics struct {
	Namespace string `yaml:"namespace"`
	Textfile  string `yaml:"textfile"` // written after each command when set
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DataDir: "data",
		Files: Files{
			ValidationLog: "validation_events.jsonl",
			LifecycleLog:  "trade_lifecycle.jsonl",
			DecisionsDir:  "decisions",
		},
		Log: Log{
			Level:  "info",
			Format: logging.FormatConsole,
		},
		Metrics: Metrics{
			Namespace: "options_trade_lab",
		},
		Ranking: ranking.DefaultParams(),
	}
}

// Load builds the configuration: defaults, then the YAML file at path (optional),
// then the given .env files (./.env when none are given and it exists), then the
// process environment. The result is validated.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}

	dotenv, err := readEnvFiles(envFiles)
	if err != nil {
		return nil, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	cfg.applyEnv(lookup)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func readEnvFiles(files []string) (map[string]string, error) {
	if len(files) == 0 {
		if _, err := os.Stat(defaultEnvFile); err != nil {
			return map[string]string{}, nil
		}
		files = []string{defaultEnvFile}
	}
	env, err := godotenv.Read(files...)
	if err != nil {
		return nil, fmt.Errorf("read env files: %w", err)
	}
	return env, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		name   string
		target *string
	}{
		{"DATA_DIR", &c.DataDir},
		{"VALIDATION_LOG", &c.Files.ValidationLog},
		{"LIFECYCLE_LOG", &c.Files.LifecycleLog},
		{"DECISIONS_DIR", &c.Files.DecisionsDir},
		{"LOG_LEVEL", &c.Log.Level},
		{"LOG_FORMAT", &c.Log.Format},
		{"METRICS_NAMESPACE", &c.Metrics.Namespace},
		{"METRICS_TEXTFILE", &c.Metrics.Textfile},
	}
	for _, o := range overrides {
		if v, ok := lookup(EnvPrefix + o.name); ok {
			*o.target = strings.TrimSpace(v)
		}
	}
}

// Validate checks every field and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.DataDir) == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	if c.Files.ValidationLog == "" || c.Files.LifecycleLog == "" || c.Files.DecisionsDir == "" {
		errs = append(errs, errors.New("files.validation_log, files.lifecycle_log and files.decisions_dir must be set"))
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be %s or %s", c.Log.Format, logging.FormatConsole, logging.FormatJSON))
	}
	if c.Metrics.Namespace == "" {
		errs = append(errs, errors.New("metrics.namespace must be set"))
	}
	if err := c.Ranking.Validate(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// ValidationLogPath returns the resolved validation log path.
func (c *Config) ValidationLogPath() string {
	return c.resolve(c.Files.ValidationLog)
}

// LifecycleLogPath returns the resolved lifecycle log path.
func (c *Config) LifecycleLogPath() string {
	return c.resolve(c.Files.LifecycleLog)
}

// DecisionsPath returns the resolved decisions directory.
func (c *Config) DecisionsPath() string {
	return c.resolve(c.Files.DecisionsDir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.DataDir, p)
}
