package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"langextract/internal/langextract/prompting"
	"langextract/internal/langextract/types"
	"langextract/pkg/langextract"
)

var (
	extractTask         string
	extractExamplesFile string
	extractOutputFile   string
	extractPasses       int
	extractFormat       string
	extractRawOutputDir string
)

var extractCmd = &cobra.Command{
	Use:   "extract [input]",
	Short: "Extract structured values from text or a URL",
	Long: `Runs the extraction pipeline over input, which may be a literal text
string or an http(s):// URL to fetch first. --examples must point to a JSON
file holding an array of few-shot ExampleData records.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := AppFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if app.Model == nil {
			return fmt.Errorf("no model provider configured: set OPENAI_API_KEY or provider.api_key in config.yaml")
		}
		if extractTask == "" {
			return fmt.Errorf("--task is required")
		}
		if extractExamplesFile == "" {
			return fmt.Errorf("--examples is required")
		}

		examples, err := loadExamples(extractExamplesFile)
		if err != nil {
			return fmt.Errorf("failed to load examples: %w", err)
		}

		cfg := langextract.Default()
		cfg.MaxCharBuffer = app.Config.MaxCharBuffer
		cfg.BatchLength = app.Config.BatchLength
		cfg.MaxWorkers = app.Config.MaxWorkers
		cfg.Temperature = app.Config.Temperature
		cfg.AdditionalContext = app.Config.AdditionalContext
		if extractFormat == "yaml" {
			cfg.FormatType = prompting.FormatYAML
		}
		if extractPasses > 1 {
			cfg.ExtractionPasses = extractPasses
			cfg.EnableMultipass = true
		}
		if extractRawOutputDir != "" {
			w, err := newRawOutputWriter(extractRawOutputDir)
			if err != nil {
				return fmt.Errorf("failed to initialize raw output writer: %w", err)
			}
			cfg.RawOutputWriter = w
		}

		doc, err := langextract.Extract(cmd.Context(), args[0], extractTask, examples, app.Model, cfg)
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to render result: %w", err)
		}

		if extractOutputFile != "" {
			if err := os.WriteFile(extractOutputFile, out, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", extractOutputFile, err)
			}
			fmt.Printf("Wrote %d extractions to %s\n", len(doc.Extractions), extractOutputFile)
			return nil
		}

		fmt.Println(string(out))
		return nil
	},
}

func loadExamples(path string) ([]types.ExampleData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var examples []types.ExampleData
	if err := json.Unmarshal(data, &examples); err != nil {
		return nil, err
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("examples file %s contains no examples", path)
	}
	return examples, nil
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractTask, "task", "", "Task description given to the model")
	extractCmd.Flags().StringVar(&extractExamplesFile, "examples", "", "Path to a JSON file of few-shot examples")
	extractCmd.Flags().StringVarP(&extractOutputFile, "output", "o", "", "Write the result to this file instead of stdout")
	extractCmd.Flags().IntVar(&extractPasses, "passes", 1, "Number of multi-pass refinement passes (>1 enables multi-pass)")
	extractCmd.Flags().StringVar(&extractFormat, "format", "json", "Example/output serialization format: json or yaml")
	extractCmd.Flags().StringVar(&extractRawOutputDir, "raw-output-dir", "", "Directory to persist raw model responses for forensics")
}
