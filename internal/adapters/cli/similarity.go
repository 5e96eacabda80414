package cli

import (
	"github.com/spf13/cobra"
)

var similarityJSON bool

var similarityCmd = &cobra.Command{
	Use:   "similarity <a> <b>",
	Short: "Score the similarity of two strings",
	Long: `Score two strings between 0 and 1, ignoring case.

Identical strings score 1, a string contained in the other scores 0.8,
anything else scores the share of distinct characters they have in common.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		score := matcher().Similarity(args[0], args[1])
		if similarityJSON {
			return printJSON(cmd, map[string]float64{"score": score})
		}
		printf(cmd, "%.4f\n", score)
		return nil
	},
}

func init() {
	similarityCmd.Flags().BoolVar(&similarityJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(similarityCmd)
}
