// ABOUTME: models command listing backend models
// ABOUTME: Prints the models that support content generation
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oli8788/stek-meeting-minutes/pkg/inference"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models that can generate minutes",
		Long: `List the models the backend offers for content generation, using the
API key from the environment (GEMINI_API_KEY).

Examples:
  minutes models`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, closeLog, err := g.logger(cmd, false)
			if err != nil {
				return err
			}
			defer closeLog()

			gen, err := localGenerator(cmd.Context(), backend, "", logger)
			if err != nil {
				return err
			}
			lister, ok := gen.(inference.ModelLister)
			if !ok {
				return fmt.Errorf("model listing is not supported by %s", gen.Name())
			}

			names, err := lister.ListModels(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", inference.BackendGemini, "Backend: gemini or openai")
	return cmd
}
