package commands

import (
	"github.com/spf13/cobra"

	"legal-ai/internal/config"
)

var configPath string

// NewRootCmd builds the legalai command tree.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legalai",
		Short: "Question answering over uploaded PDF documents",
		Long: `legalai indexes uploaded PDF documents and answers questions about them
with an LLM, keeping per-user conversation history.

Examples:
  legalai serve
  legalai ingest ./contrato.pdf
  legalai ask --email ana@example.com "Qual o prazo de rescisão?"`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to the YAML config file")

	cmd.AddCommand(
		NewServeCmd(),
		NewIngestCmd(),
		NewAskCmd(),
		NewResetIndexCmd(),
		NewMigrateCmd(),
	)
	return cmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
