package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"legal-ai/internal/db"
)

func NewResetIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-index",
		Short: "Delete the vector index; documents must be processed again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			index, err := openIndex(cfg)
			if err != nil {
				return err
			}
			if err := index.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "vector index reset (generation %d)\n", index.Generation())
			return nil
		},
	}
}

var migrateDrop bool

func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the relational tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			bdb, err := openDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer bdb.Close()

			if migrateDrop {
				log.Warn().Msg("Dropping all tables")
				if err := db.DropTables(ctx, bdb); err != nil {
					return err
				}
			}
			if err := db.InitDB(ctx, bdb); err != nil {
				return err
			}
			log.Info().Msg("Database tables ready")
			return nil
		},
	}
	cmd.Flags().BoolVar(&migrateDrop, "drop", false, "Drop existing tables first")
	return cmd
}
