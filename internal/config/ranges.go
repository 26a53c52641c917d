package config

import (
	"fmt"
	"time"

	"github.com/xkilldash9x/mimic/internal/jitter"
)

// DurationRange is an inclusive [Min, Max] window a randomized delay is drawn from.
type DurationRange struct {
	Min time.Duration `mapstructure:"min" yaml:"min"`
	Max time.Duration `mapstructure:"max" yaml:"max"`
}

// Sample draws a uniformly distributed duration from the range.
func (r DurationRange) Sample() time.Duration {
	return jitter.Duration(r.Min, r.Max)
}

// Validate rejects negative or inverted ranges.
func (r DurationRange) Validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s must satisfy 0 <= min <= max (got %v..%v)", name, r.Min, r.Max)
	}
	return nil
}

// IntRange is an inclusive integer window.
type IntRange struct {
	Min int `mapstructure:"min" yaml:"min"`
	Max int `mapstructure:"max" yaml:"max"`
}

func (r IntRange) Sample() int {
	return jitter.Int(r.Min, r.Max)
}

func (r IntRange) Validate(name string) error {
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%s must satisfy 0 <= min <= max (got %d..%d)", name, r.Min, r.Max)
	}
	return nil
}

// FloatRange is a half-open [Min, Max) window.
type FloatRange struct {
	Min float64 `mapstructure:"min" yaml:"min"`
	Max float64 `mapstructure:"max" yaml:"max"`
}

func (r FloatRange) Sample() float64 {
	return jitter.Float(r.Min, r.Max)
}

func (r FloatRange) Validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("%s must satisfy min <= max (got %g..%g)", name, r.Min, r.Max)
	}
	return nil
}
