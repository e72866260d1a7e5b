package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/FigureLens/internal/domain/text"
)

func newAnalyzeCommand(opts *RootOptions) *cobra.Command {
	var (
		fromFile     string
		synonymsPath string
	)

	cmd := &cobra.Command{
		Use:   "analyze [description...]",
		Short: "Analyze a figure description and print the extracted terms as JSON",
		Long: `Analyze accepts either a structured JSON description or free text.
Structured input keeps its declared confidence; free text falls back to
synonym-aware keyword scanning.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			if fromFile != "" {
				raw, err := os.ReadFile(fromFile)
				if err != nil {
					return fmt.Errorf("failed to read description file: %w", err)
				}
				input = string(raw)
			}
			if strings.TrimSpace(input) == "" {
				return fmt.Errorf("a description is required, either as arguments or via --file")
			}

			synonyms := text.DefaultSynonymTable()
			if synonymsPath != "" {
				var err error
				synonyms, err = text.LoadSynonymTable(synonymsPath)
				if err != nil {
					return err
				}
			}

			analysis, err := text.NewAnalyzer(synonyms, nil).Analyze(input)
			if err != nil {
				return err
			}
			return printJSON(cmd, analysis)
		},
	}

	cmd.Flags().StringVar(&fromFile, "file", "", "read the description from a file")
	cmd.Flags().StringVar(&synonymsPath, "synonyms", "", "override the built-in synonym table (YAML)")
	return cmd
}
