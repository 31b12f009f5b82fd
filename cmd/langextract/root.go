// Package cmd is the cobra CLI surface over pkg/langextract.Extract,
// grounded on the teacher's cmd/root.go: a PersistentPreRunE that loads
// configuration and wires a long-lived application instance into the
// command's context, a context-key-typed lookup helper, and a doctor
// subcommand that reports whether a model provider is configured (it makes
// no network call).
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"langextract/internal/config"
	"langextract/internal/providers/openai"
)

type contextKey string

const appKey contextKey = "app"

// App bundles the collaborators a subcommand needs.
type App struct {
	Config config.ExtractConfig
	Model  *openai.Provider
}

var rootCmd = &cobra.Command{
	Use:   "langextract",
	Short: "langextract CLI",
	Long:  "langextract runs structured extraction over text or a URL using an LLM, grounding each result back to its source position.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" {
			return nil
		}

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		var provider *openai.Provider
		if cmd.Name() != "doctor" || cfg.Provider.APIKey != "" || os.Getenv("OPENAI_API_KEY") != "" {
			provider, err = openai.New(cfg.Provider.APIKey, cfg.ModelID, cfg.Provider.BaseURL)
			if err != nil && cmd.Name() != "doctor" {
				return fmt.Errorf("failed to initialize model provider: %w", err)
			}
		}

		app := &App{Config: cfg, Model: provider}
		ctx := context.WithValue(cmd.Context(), appKey, app)
		cmd.SetContext(ctx)
		return nil
	},
}

// Execute runs the CLI, exiting the process with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// AppFromContext retrieves the App instance PersistentPreRunE stored.
func AppFromContext(ctx context.Context) (*App, error) {
	app, ok := ctx.Value(appKey).(*App)
	if !ok || app == nil {
		return nil, fmt.Errorf("application instance not found in context")
	}
	return app, nil
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check model provider configuration (no network call is made)",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := AppFromContext(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("Checking model provider configuration...")
		if app.Model == nil {
			return fmt.Errorf("no model provider configured: set OPENAI_API_KEY or provider.api_key in config.yaml")
		}
		fmt.Printf("Provider %q ready with model %q.\n", app.Model.ProviderName(), app.Model.ModelID())
		return nil
	},
}
