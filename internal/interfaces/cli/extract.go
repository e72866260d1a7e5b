package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/FigureLens/internal/domain/feature"
)

func newExtractCommand(opts *RootOptions) *cobra.Command {
	var minDim int

	cmd := &cobra.Command{
		Use:   "extract <image>",
		Short: "Extract visual features from an image and print them as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}

			extractor := feature.NewExtractor(feature.ExtractorConfig{MinDimension: minDim}, nil)
			features, err := extractor.Extract(cmd.Context(), data)
			if err != nil {
				return err
			}
			return printJSON(cmd, features)
		},
	}

	cmd.Flags().IntVar(&minDim, "min-dimension", 0, "reject images whose shorter side is below this many pixels")
	return cmd
}
