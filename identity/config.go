package identity

import "errors"

// Errors returned by the checkpoint manager.
var (
	ErrNilStance     = errors.New("identity: stance is required")
	ErrNotFound      = errors.New("identity: checkpoint not found")
	ErrInvalidConfig = errors.New("identity: invalid config")
	ErrEmptyName     = errors.New("identity: core value name is required")
)

// Config controls automatic checkpointing, retention and core value decay.
type Config struct {
	Enabled            bool    `json:"enabled" yaml:"enabled"`
	Interval           int     `json:"interval" yaml:"interval"`
	MaxCheckpoints     int     `json:"max_checkpoints" yaml:"max_checkpoints"`
	CoreValueThreshold float64 `json:"core_value_threshold" yaml:"core_value_threshold"`
}

// DefaultConfig returns the retention and trigger defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Interval:           10,
		MaxCheckpoints:     50,
		CoreValueThreshold: 30,
	}
}

// Validate checks that interval and capacity are positive.
func (c Config) Validate() error {
	if c.Interval < 1 {
		return errors.Join(ErrInvalidConfig, errors.New("interval must be at least 1"))
	}
	if c.MaxCheckpoints < 1 {
		return errors.Join(ErrInvalidConfig, errors.New("max_checkpoints must be at least 1"))
	}
	if c.CoreValueThreshold < 0 || c.CoreValueThreshold > 100 {
		return errors.Join(ErrInvalidConfig, errors.New("core_value_threshold must be between 0 and 100"))
	}
	return nil
}
