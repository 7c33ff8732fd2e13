// Package summarize memoizes progress-aware summaries.
//
// Summaries are cached per (user, document, progress rounded to 0.5%).
// The rounding trades cache hit-rate against staleness: two requests at
// 42.3% and 42.6% share one cache row. The Progress Windower is always
// called with the RAW percentage — only the cache key is rounded.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// ErrNoContent means the progress window covers no chunks, so there is
// nothing to summarize yet.
var ErrNoContent = errors.New("no content in reading window")

// cacheGranularity is the rounding step for cache keys, in percent.
const cacheGranularity = 0.5

// Store is the slice of persistence the cache needs.
// Go Pattern: Accept interfaces, return structs — the database satisfies
// this, and tests swap in a fake.
type Store interface {
	GetCachedSummary(ctx context.Context, userID, documentID string, progress float64) (*models.CachedSummary, error)
	UpsertCachedSummary(ctx context.Context, cs *models.CachedSummary) error
}

// Windower resolves a progress percentage into the chunk prefix the
// reader has seen.
type Windower interface {
	ChunksUpTo(ctx context.Context, documentID string, pct float64) ([]models.Chunk, error)
}

// Generator produces summary text from a chunk window — in production,
// the language-model call.
type Generator func(ctx context.Context, chunks []models.Chunk) (string, error)

// Service implements get-or-generate over the summary cache.
type Service struct {
	store    Store
	windower Windower
}

// New creates a summarize service.
func New(store Store, windower Windower) *Service {
	return &Service{store: store, windower: windower}
}

// RoundProgress rounds a percentage to the cache granularity.
func RoundProgress(pct float64) float64 {
	return math.Round(pct/cacheGranularity) * cacheGranularity
}

// GetOrGenerate returns the cached summary for (user, document, rounded
// progress) when one exists, otherwise generates, caches, and returns a
// fresh one. forceRefresh skips the cache read but still writes through.
func (s *Service) GetOrGenerate(ctx context.Context, userID, documentID string, pct float64, generate Generator, forceRefresh bool) (*models.SummaryResponse, error) {
	rounded := RoundProgress(pct)

	if !forceRefresh {
		cached, err := s.store.GetCachedSummary(ctx, userID, documentID, rounded)
		if err != nil {
			// A broken cache read shouldn't block generation.
			log.Printf("⚠️  Summary cache read failed for document %s: %v", documentID, err)
		} else if cached != nil {
			return &models.SummaryResponse{
				Summary:       cached.SummaryText,
				FromCache:     true,
				Progress:      rounded,
				ChunkEndIndex: cached.ChunkEndIndex,
			}, nil
		}
	}

	chunks, err := s.windower.ChunksUpTo(ctx, documentID, pct)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reading window: %w", err)
	}
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	text, err := generate(ctx, chunks)
	if err != nil {
		// Nothing is cached on failure — the caller gets a retry
		// affordance, not a poisoned cache row.
		return nil, err
	}

	chunkEnd := chunks[len(chunks)-1].ChunkIndex
	cs := &models.CachedSummary{
		UserID:        userID,
		DocumentID:    documentID,
		Progress:      rounded,
		SummaryText:   text,
		ChunkEndIndex: chunkEnd,
	}
	if err := s.store.UpsertCachedSummary(ctx, cs); err != nil {
		// The summary is still good — losing the cache write costs a
		// regeneration later, not correctness now.
		log.Printf("⚠️  Summary cache write failed for document %s: %v", documentID, err)
	}

	return &models.SummaryResponse{
		Summary:       text,
		FromCache:     false,
		Progress:      rounded,
		ChunkEndIndex: chunkEnd,
	}, nil
}
