// File: internal/config/humanoid_config.go
// This file defines the HumanoidConfig struct, which contains the tunable
// timing and geometry parameters for the input simulation: pointer paths,
// hover tremor, click hold, warm-up wandering, and keystroke rhythm.
//
// The configuration is loaded from the YAML file via Viper, so the
// "personality" of the simulated user can be tuned without code changes.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HumanoidConfig holds the parameters for pointer and keyboard simulation.
type HumanoidConfig struct {
	// -- Trajectory --
	PathSteps IntRange      `mapstructure:"path_steps" yaml:"path_steps"`
	StepDelay DurationRange `mapstructure:"step_delay" yaml:"step_delay"`
	// Control1/Control2 are the fractions of the start->end vector at which
	// the two Bezier control points are placed along the path axis.
	Control1 FloatRange `mapstructure:"control1" yaml:"control1"`
	Control2 FloatRange `mapstructure:"control2" yaml:"control2"`
	// Deviation bounds the perpendicular control-point offset as a fraction of the span.
	Deviation float64 `mapstructure:"deviation" yaml:"deviation"`

	// -- Hover settle --
	HoverSettle   DurationRange `mapstructure:"hover_settle" yaml:"hover_settle"`
	HoverInterval DurationRange `mapstructure:"hover_interval" yaml:"hover_interval"`
	HoverRadius   float64       `mapstructure:"hover_radius" yaml:"hover_radius"`

	// -- Clicking --
	ClickHold  DurationRange `mapstructure:"click_hold" yaml:"click_hold"`
	ClickInset FloatRange    `mapstructure:"click_inset" yaml:"click_inset"`

	// -- Warm-up wandering --
	WarmupMovements   IntRange      `mapstructure:"warmup_movements" yaml:"warmup_movements"`
	WarmupSettle      DurationRange `mapstructure:"warmup_settle" yaml:"warmup_settle"`
	ScrollProbability float64       `mapstructure:"scroll_probability" yaml:"scroll_probability"`
	ScrollDistance    int           `mapstructure:"scroll_distance" yaml:"scroll_distance"`

	// -- Typing --
	KeyDelay         DurationRange `mapstructure:"key_delay" yaml:"key_delay"`
	ThinkProbability float64       `mapstructure:"think_probability" yaml:"think_probability"`
	ThinkPause       DurationRange `mapstructure:"think_pause" yaml:"think_pause"`
	FocusSettle      DurationRange `mapstructure:"focus_settle" yaml:"focus_settle"`
	TypingSettle     DurationRange `mapstructure:"typing_settle" yaml:"typing_settle"`
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("humanoid.path_steps.min", 35)
	v.SetDefault("humanoid.path_steps.max", 50)
	v.SetDefault("humanoid.step_delay.min", "5ms")
	v.SetDefault("humanoid.step_delay.max", "15ms")
	v.SetDefault("humanoid.control1.min", 0.2)
	v.SetDefault("humanoid.control1.max", 0.4)
	v.SetDefault("humanoid.control2.min", 0.6)
	v.SetDefault("humanoid.control2.max", 0.8)
	v.SetDefault("humanoid.deviation", 0.5)

	v.SetDefault("humanoid.hover_settle.min", "600ms")
	v.SetDefault("humanoid.hover_settle.max", "1200ms")
	v.SetDefault("humanoid.hover_interval.min", "20ms")
	v.SetDefault("humanoid.hover_interval.max", "50ms")
	v.SetDefault("humanoid.hover_radius", 2.0)

	v.SetDefault("humanoid.click_hold.min", "50ms")
	v.SetDefault("humanoid.click_hold.max", "150ms")
	v.SetDefault("humanoid.click_inset.min", 0.2)
	v.SetDefault("humanoid.click_inset.max", 0.8)

	v.SetDefault("humanoid.warmup_movements.min", 3)
	v.SetDefault("humanoid.warmup_movements.max", 7)
	v.SetDefault("humanoid.warmup_settle.min", "500ms")
	v.SetDefault("humanoid.warmup_settle.max", "2s")
	v.SetDefault("humanoid.scroll_probability", 0.25)
	v.SetDefault("humanoid.scroll_distance", 300)

	v.SetDefault("humanoid.key_delay.min", "50ms")
	v.SetDefault("humanoid.key_delay.max", "200ms")
	v.SetDefault("humanoid.think_probability", 0.1)
	v.SetDefault("humanoid.think_pause.min", "400ms")
	v.SetDefault("humanoid.think_pause.max", "1s")
	v.SetDefault("humanoid.focus_settle.min", "300ms")
	v.SetDefault("humanoid.focus_settle.max", "800ms")
	v.SetDefault("humanoid.typing_settle.min", "200ms")
	v.SetDefault("humanoid.typing_settle.max", "500ms")
}

// Validate checks the humanoid parameters for internal consistency.
func (h *HumanoidConfig) Validate() error {
	if h.PathSteps.Min < 1 {
		return fmt.Errorf("path_steps.min must be at least 1")
	}
	if err := h.PathSteps.Validate("path_steps"); err != nil {
		return err
	}
	if err := h.WarmupMovements.Validate("warmup_movements"); err != nil {
		return err
	}
	for name, r := range map[string]DurationRange{
		"step_delay":     h.StepDelay,
		"hover_settle":   h.HoverSettle,
		"hover_interval": h.HoverInterval,
		"click_hold":     h.ClickHold,
		"warmup_settle":  h.WarmupSettle,
		"key_delay":      h.KeyDelay,
		"think_pause":    h.ThinkPause,
		"focus_settle":   h.FocusSettle,
		"typing_settle":  h.TypingSettle,
	} {
		if err := r.Validate(name); err != nil {
			return err
		}
	}
	if h.ClickInset.Min < 0 || h.ClickInset.Max > 1 {
		return fmt.Errorf("click_inset must lie within [0, 1]")
	}
	if err := h.ClickInset.Validate("click_inset"); err != nil {
		return err
	}
	if err := h.Control1.Validate("control1"); err != nil {
		return err
	}
	if err := h.Control2.Validate("control2"); err != nil {
		return err
	}
	if h.Deviation < 0 {
		return fmt.Errorf("deviation must not be negative")
	}
	if h.HoverRadius < 0 {
		return fmt.Errorf("hover_radius must not be negative")
	}
	if h.ScrollProbability < 0 || h.ScrollProbability > 1 {
		return fmt.Errorf("scroll_probability must lie within [0, 1]")
	}
	if h.ThinkProbability < 0 || h.ThinkProbability > 1 {
		return fmt.Errorf("think_probability must lie within [0, 1]")
	}
	return nil
}
