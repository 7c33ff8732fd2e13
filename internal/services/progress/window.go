// Package progress maps a reading-progress percentage onto a prefix of a
// document's chunk sequence: "everything the reader has seen so far".
//
// Chunk count is used as a linear proxy for reading position. Chunks of
// uneven length introduce proportional error, which is an accepted
// tradeoff — do not "fix" this by weighting on word count without
// changing the contract everywhere it is consumed.
package progress

import (
	"context"
	"math"

	"github.com/Shimizu-Technology/reader-tools-api/internal/database"
	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// WindowSize returns how many chunks of a total a progress percentage
// covers: ceil(pct/100 * total), clamped to [0, total].
func WindowSize(total int, pct float64) int {
	if total <= 0 || pct <= 0 {
		return 0
	}
	if pct >= 100 {
		return total
	}
	n := int(math.Ceil(pct / 100 * float64(total)))
	if n > total {
		n = total
	}
	return n
}

// ChunksUpTo returns the first WindowSize chunks of a document by
// sequence index. A document with zero chunks yields an empty slice.
func ChunksUpTo(ctx context.Context, db *database.DB, documentID string, pct float64) ([]models.Chunk, error) {
	total, err := db.CountChunks(ctx, documentID)
	if err != nil {
		return nil, err
	}

	n := WindowSize(total, pct)
	if n == 0 {
		return []models.Chunk{}, nil
	}
	return db.GetChunks(ctx, documentID, n)
}

// Windower binds ChunksUpTo to a database, satisfying the interface the
// summarize service consumes.
type Windower struct {
	DB *database.DB
}

// ChunksUpTo implements summarize.Windower.
func (w *Windower) ChunksUpTo(ctx context.Context, documentID string, pct float64) ([]models.Chunk, error) {
	return ChunksUpTo(ctx, w.DB, documentID, pct)
}
