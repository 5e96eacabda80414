package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/baditaflorin/go_fuzzy_dedupe/internal/core/domain"
)

var (
	templatesJSON    bool
	saveSettingsFile string
	saveThreshold    float64
	saveWeights      []string
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Manage saved cleaning templates",
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved templates, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}
		list, err := store.List(cmd.Context())
		if err != nil {
			return err
		}

		if templatesJSON {
			if list == nil {
				list = []domain.Template{}
			}
			return printJSON(cmd, list)
		}
		if len(list) == 0 {
			printf(cmd, "No templates saved.\n")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tTHRESHOLD\tUPDATED")
		for _, t := range list {
			threshold := "-"
			if t.Threshold > 0 {
				threshold = fmt.Sprintf("%.0f%%", t.Threshold)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, threshold, t.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}
		t, err := store.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(cmd, t)
	},
}

var templatesSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Save or replace a template",
	Long: `Save a template under name. Settings are read from a YAML or JSON file
with the email, phone, name, company and job_title groups; omitted groups keep
their defaults (disabled).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}

		settings := domain.DefaultNormalizationSettings()
		if saveSettingsFile != "" {
			raw, err := os.ReadFile(saveSettingsFile)
			if err != nil {
				return fmt.Errorf("reading settings: %w", err)
			}
			if err := yaml.Unmarshal(raw, &settings); err != nil {
				return fmt.Errorf("parsing settings: %w", err)
			}
		}
		weights, err := parseWeights(saveWeights)
		if err != nil {
			return err
		}

		saved, err := store.Put(cmd.Context(), domain.Template{
			Name:      args[0],
			Settings:  settings,
			Threshold: saveThreshold,
			Weights:   weights,
		})
		if err != nil {
			return err
		}
		printf(cmd, "Saved template %q (%s)\n", saved.Name, saved.ID)
		return nil
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := templateStore()
		if err != nil {
			return err
		}
		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		printf(cmd, "Deleted template %q\n", args[0])
		return nil
	},
}

func init() {
	templatesListCmd.Flags().BoolVar(&templatesJSON, "json", false, "output as JSON")

	templatesSaveCmd.Flags().StringVarP(&saveSettingsFile, "settings", "s", "", "YAML or JSON settings file")
	templatesSaveCmd.Flags().Float64VarP(&saveThreshold, "threshold", "t", 0, "threshold percentage stored with the template")
	templatesSaveCmd.Flags().StringSliceVarP(&saveWeights, "weight", "w", nil, "field weight as field=weight, repeatable")

	templatesCmd.AddCommand(templatesListCmd, templatesShowCmd, templatesSaveCmd, templatesDeleteCmd)
	rootCmd.AddCommand(templatesCmd)
}
