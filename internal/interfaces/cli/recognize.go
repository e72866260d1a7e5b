package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/FigureLens/internal/application/recognition"
)

func newRecognizeCommand(opts *RootOptions) *cobra.Command {
	var (
		imagePath   string
		description string
		showSteps   bool
		summary     bool
	)

	cmd := &cobra.Command{
		Use:   "recognize",
		Short: "Recognize a candidate figure against the configured catalog",
		Long: `Recognize runs the full pipeline against the catalog from the loaded
configuration.  Give --image, --text, or both; with both, either side may
fail as long as the other produces a match.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if imagePath == "" && description == "" {
				return fmt.Errorf("at least one of --image or --text is required")
			}

			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			log, err := buildLogger(cfg)
			if err != nil {
				return err
			}

			a, err := buildApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			var onProgress recognition.ProgressFunc
			if showSteps {
				onProgress = func(p recognition.Progress) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%-14s %3.0f%%\n", p.State, p.Fraction*100)
				}
			}

			var result *recognition.Result
			switch {
			case imagePath != "" && description != "":
				data, rerr := os.ReadFile(imagePath)
				if rerr != nil {
					return fmt.Errorf("failed to read image: %w", rerr)
				}
				result, err = a.orch.RecognizeMultiModal(cmd.Context(), data, description, onProgress)
			case imagePath != "":
				data, rerr := os.ReadFile(imagePath)
				if rerr != nil {
					return fmt.Errorf("failed to read image: %w", rerr)
				}
				result, err = a.orch.Recognize(cmd.Context(), data, onProgress)
			default:
				result, err = a.orch.RecognizeFromDescription(cmd.Context(), description, onProgress)
			}
			if err != nil {
				return err
			}
			if summary {
				fmt.Fprint(cmd.OutOrStdout(), result.Summary())
				return nil
			}
			return printJSON(cmd, result)
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "candidate image file")
	cmd.Flags().StringVarP(&description, "text", "t", "", "candidate description")
	cmd.Flags().BoolVar(&showSteps, "progress", false, "print pipeline progress to stderr")
	cmd.Flags().BoolVar(&summary, "summary", false, "print a human-readable report instead of JSON")
	return cmd
}
