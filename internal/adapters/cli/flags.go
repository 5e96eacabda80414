package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// matchFlags are shared by every command that scores records.
type matchFlags struct {
	threshold float64
	template  string
	weights   []string
}

func (f *matchFlags) register(cmd *cobra.Command, withThreshold bool) {
	if withThreshold {
		cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "threshold percentage (default from config)")
	}
	cmd.Flags().StringVar(&f.template, "template", "", "apply a saved cleaning template")
	cmd.Flags().StringSliceVarP(&f.weights, "weight", "w", nil, "field weight as field=weight, repeatable")
}

// thresholdPtr returns nil unless --threshold was given.
func (f *matchFlags) thresholdPtr(cmd *cobra.Command) *float64 {
	if !cmd.Flags().Changed("threshold") {
		return nil
	}
	t := f.threshold
	return &t
}

func (f *matchFlags) weightMap() (map[string]float64, error) {
	return parseWeights(f.weights)
}

// parseWeights turns ["name=0.4", "email=0.6"] into a map.
func parseWeights(specs []string) (map[string]float64, error) {
	if len(specs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(specs))
	for _, spec := range specs {
		field, value, ok := strings.Cut(spec, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid weight %q: want field=weight", spec)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", spec, err)
		}
		out[field] = w
	}
	return out, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
