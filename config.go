package symdiff

import (
	"bytes"
	"flag"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultTolerance is the residual below which an iterate counts as a root.
	DefaultTolerance = 1e-12

	defaultMaxIterations = 1000
)

// Config controls the Newton solver.
type Config struct {
	MaxIterations uint    `yaml:"max_iterations"`
	Tolerance     float64 `yaml:"tolerance"`
	InitialGuess  float64 `yaml:"initial_guess"`
	Trace         bool    `yaml:"trace"`
}

// DefaultConfig returns the configuration the flags default to.
func DefaultConfig() Config {
	return Config{
		MaxIterations: defaultMaxIterations,
		Tolerance:     DefaultTolerance,
	}
}

func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("newton.", f)
}

func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.UintVar(&cfg.MaxIterations, prefix+"max-iterations", defaultMaxIterations, "Maximum number of Newton steps before the solve fails")
	f.Float64Var(&cfg.Tolerance, prefix+"tolerance", DefaultTolerance, "Absolute residual at which an iterate is accepted as a root")
	f.Float64Var(&cfg.InitialGuess, prefix+"initial-guess", 0, "Starting point used when a request does not provide one")
	f.BoolVar(&cfg.Trace, prefix+"trace", false, "Log every iterate at debug level")
}

func (cfg *Config) Validate() error {
	if cfg.MaxIterations == 0 {
		return errors.New("max_iterations must be greater than 0")
	}
	if !(cfg.Tolerance > 0) || math.IsInf(cfg.Tolerance, 0) {
		return errors.Errorf("tolerance must be a positive finite number, got %v", cfg.Tolerance)
	}
	if !IsFinite(cfg.InitialGuess) {
		return errors.Errorf("initial_guess must be finite, got %v", cfg.InitialGuess)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	buf, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config file")
	}
	if err := ParseConfig(buf, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config file %s", path)
	}
	return cfg, nil
}

// ParseConfig decodes YAML into cfg, keeping values the document leaves out,
// and validates the result.
func ParseConfig(buf []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "decode yaml")
	}
	return cfg.Validate()
}
