package cli

import (
	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/adapters/source"
	"github.com/baditaflorin/go_fuzzy_dedupe/internal/service"
)

var (
	countFlags matchFlags
	pairsFlags matchFlags
	pairsJSON  bool
)

var countCmd = &cobra.Command{
	Use:   "count <file>",
	Short: "Count likely duplicate pairs in a record file",
	Long: `Count the record pairs whose weighted score is strictly above the threshold.

The file may be CSV (with name and email columns), JSON or YAML.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runDuplicates(cmd, args[0], &countFlags, false)
		if err != nil {
			return err
		}
		printf(cmd, "%d\n", out.Count)
		return nil
	},
}

var pairsCmd = &cobra.Command{
	Use:   "pairs <file>",
	Short: "List likely duplicate pairs in a record file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := runDuplicates(cmd, args[0], &pairsFlags, true)
		if err != nil {
			return err
		}
		if pairsJSON {
			return printJSON(cmd, out)
		}

		printf(cmd, "Threshold: %.0f%%  Pairs examined: %d  Duplicates: %d\n",
			out.Threshold, out.PairsExamined, out.Count)
		for _, p := range out.Pairs {
			a, b := p.IDA, p.IDB
			if a == "" && b == "" {
				printf(cmd, "  #%d <-> #%d  %.4f\n", p.I, p.J, p.Score)
				continue
			}
			printf(cmd, "  %s <-> %s  %.4f\n", a, b, p.Score)
		}
		return nil
	},
}

func runDuplicates(cmd *cobra.Command, path string, f *matchFlags, includePairs bool) (service.Outcome, error) {
	records, err := source.Load(path)
	if err != nil {
		return service.Outcome{}, err
	}
	weights, err := f.weightMap()
	if err != nil {
		return service.Outcome{}, err
	}

	out, err := matcher().Duplicates(cmd.Context(), service.Request{
		Threshold:    f.thresholdPtr(cmd),
		Records:      records,
		Weights:      weights,
		Template:     f.template,
		IncludePairs: includePairs,
	})
	if err != nil {
		return service.Outcome{}, err
	}

	if out.Clamped {
		cmd.PrintErrf("Threshold clamped to %.0f%%\n", out.Threshold)
	}
	if out.Advisory != "" {
		cmd.PrintErrf("Warning: %s\n", out.Advisory)
	}
	return out, nil
}

func init() {
	countFlags.register(countCmd, true)
	pairsFlags.register(pairsCmd, true)
	pairsCmd.Flags().BoolVar(&pairsJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(pairsCmd)
}
