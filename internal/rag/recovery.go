package rag

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"legal-ai/internal/chromemdb"
)

func isDimensionMismatch(err error) bool {
	return errors.Is(err, chromemdb.ErrDimensionMismatch)
}

// resetIndex wipes the vector index after a dimension mismatch. gen is the
// generation observed before the failing call; if another request already
// reset the index since then, the fresh index is left alone.
func (r *RAG) resetIndex(ctx context.Context, gen uint64, cause error) error {
	logger := log.Ctx(ctx)
	logger.Warn().Err(cause).Uint64("generation", gen).Msg("Embedding dimension mismatch, resetting vector index")

	did, err := r.Index.ResetIfGeneration(ctx, gen)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to reset vector index")
		return err
	}
	if !did {
		logger.Info().Msg("Vector index already reset by another request")
	}
	return nil
}
