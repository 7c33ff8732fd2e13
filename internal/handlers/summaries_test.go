// summaries_test.go — Unit tests for progress-update helpers.
package handlers

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

// TestPriorProgress: only a missing row counts as "never opened" — a
// failed lookup must not be mistaken for a first progress report.
func TestPriorProgress(t *testing.T) {
	stored := &models.ReadingProgress{UserID: "u1", DocumentID: "d1", Progress: 42.5}

	tests := []struct {
		name string
		rp   *models.ReadingProgress
		err  error
		want *models.ReadingProgress
	}{
		{
			name: "existing row returned as-is",
			rp:   stored,
			want: stored,
		},
		{
			name: "no row means first report",
			err:  sql.ErrNoRows,
		},
		{
			name: "wrapped no-rows still recognized",
			err:  errors.Join(errors.New("get progress"), sql.ErrNoRows),
		},
		{
			name: "lookup failure yields no prior position",
			err:  errors.New("connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := priorProgress(tt.rp, tt.err, "d1")
			if got != tt.want {
				t.Errorf("priorProgress = %+v, want %+v", got, tt.want)
			}
		})
	}
}
