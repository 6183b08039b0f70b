package app

import "errors"

// Config holds everything an App instance needs to run.
type Config struct {
	SuitePath string // .hcl file or directory

	LogFormat string
	LogLevel  string
	DryRun    bool
	// Templated forces templated continuation for every test, on top of
	// the per-test attribute.
	Templated bool
}

// NewConfig validates a Config.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.SuitePath == "" {
		return nil, errors.New("SuitePath is a required configuration field and cannot be empty")
	}
	return &cfg, nil
}
