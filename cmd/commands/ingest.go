package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"legal-ai/internal/helper"
	"legal-ai/internal/models"
)

func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Upload and index a PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.rag.Upload(ctx, filepath.Base(args[0]), data)
	if err != nil {
		return err
	}
	res, err := a.rag.Process(ctx, doc.Filename)
	if err != nil {
		return err
	}
	return helper.PrettyPrint(cmd.OutOrStdout(), models.ProcessResponse{
		Message:   res.Message,
		Filename:  res.Filename,
		NumChunks: res.Chunks,
	})
}
