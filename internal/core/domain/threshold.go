package domain

import "fmt"

// Default bounds of the threshold input control, in percent.
const (
	DefaultMinThreshold = 80
	DefaultMaxThreshold = 95
	DefaultThreshold    = 95
	// AdvisoryThreshold is the level below which false positives become likely.
	AdvisoryThreshold = 85
)

// ThresholdRange bounds a user-supplied threshold percentage.
// The classifier itself accepts any value; this belongs to the input layer.
type ThresholdRange struct {
	Min     float64 `json:"min" mapstructure:"min_threshold"`
	Max     float64 `json:"max" mapstructure:"max_threshold"`
	Default float64 `json:"default" mapstructure:"threshold"`
}

// DefaultThresholdRange returns the 80..95 range with 95 as default.
func DefaultThresholdRange() ThresholdRange {
	return ThresholdRange{
		Min:     DefaultMinThreshold,
		Max:     DefaultMaxThreshold,
		Default: DefaultThreshold,
	}
}

// Validate checks min <= default <= max.
func (r ThresholdRange) Validate() error {
	if r.Min > r.Max {
		return fmt.Errorf("threshold range min %.0f exceeds max %.0f", r.Min, r.Max)
	}
	if r.Default < r.Min || r.Default > r.Max {
		return fmt.Errorf("default threshold %.0f outside [%.0f, %.0f]", r.Default, r.Min, r.Max)
	}
	return nil
}

// Clamp pins t into [Min, Max].
func (r ThresholdRange) Clamp(t float64) float64 {
	if t < r.Min {
		return r.Min
	}
	if t > r.Max {
		return r.Max
	}
	return t
}

// Advisory returns a warning for thresholds below AdvisoryThreshold, or "".
func (r ThresholdRange) Advisory(t float64) string {
	if t < AdvisoryThreshold {
		return fmt.Sprintf("thresholds below %d%% might introduce more false positives", AdvisoryThreshold)
	}
	return ""
}
