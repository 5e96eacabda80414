package cli

import (
	"github.com/spf13/cobra"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

var (
	scoreFlags matchFlags
	scoreA     domain.Record
	scoreB     domain.Record
	scoreJSON  bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score two contact records",
	Long:  "Score two records field by field and print the weighted total.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		weights, err := scoreFlags.weightMap()
		if err != nil {
			return err
		}

		bd, err := matcher().Breakdown(cmd.Context(), scoreA, scoreB, weights, scoreFlags.template)
		if err != nil {
			return err
		}

		if scoreJSON {
			return printJSON(cmd, bd)
		}
		for _, f := range bd.Fields {
			printf(cmd, "%-10s similarity %.4f  weight %.2f  contribution %.4f\n",
				f.Field, f.Similarity, f.Weight, f.Contribution)
		}
		printf(cmd, "total      %.4f\n", bd.Total)
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreA.Name, "name-a", "", "name of the first record")
	scoreCmd.Flags().StringVar(&scoreA.Email, "email-a", "", "email of the first record")
	scoreCmd.Flags().StringVar(&scoreB.Name, "name-b", "", "name of the second record")
	scoreCmd.Flags().StringVar(&scoreB.Email, "email-b", "", "email of the second record")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "output as JSON")
	scoreFlags.register(scoreCmd, false)
	rootCmd.AddCommand(scoreCmd)
}
