// summarize_test.go — Unit tests for the summary cache with fakes
// standing in for the database and the progress windower.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Shimizu-Technology/reader-tools-api/internal/models"
)

type fakeStore struct {
	rows      map[string]*models.CachedSummary
	getErr    error
	upsertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]*models.CachedSummary)}
}

func cacheKey(userID, documentID string, progress float64) string {
	return fmt.Sprintf("%s/%s/%.1f", userID, documentID, progress)
}

func (s *fakeStore) GetCachedSummary(_ context.Context, userID, documentID string, progress float64) (*models.CachedSummary, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.rows[cacheKey(userID, documentID, progress)], nil
}

func (s *fakeStore) UpsertCachedSummary(_ context.Context, cs *models.CachedSummary) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.rows[cacheKey(cs.UserID, cs.DocumentID, cs.Progress)] = cs
	return nil
}

type fakeWindower struct {
	chunks []models.Chunk
	gotPct float64
}

func (w *fakeWindower) ChunksUpTo(_ context.Context, _ string, pct float64) ([]models.Chunk, error) {
	w.gotPct = pct
	return w.chunks, nil
}

func someChunks() []models.Chunk {
	return []models.Chunk{
		{ID: "c0", ChunkIndex: 0, Content: "first part of the story"},
		{ID: "c1", ChunkIndex: 1, Content: "second part of the story"},
		{ID: "c7", ChunkIndex: 7, Content: "latest part the reader reached"},
	}
}

func TestRoundProgress(t *testing.T) {
	tests := []struct {
		pct  float64
		want float64
	}{
		{0, 0},
		{42.3, 42.5},
		{42.6, 42.5},
		{42.75, 43.0},
		{42.2, 42.0},
		{99.8, 100},
		{100, 100},
	}

	for _, tt := range tests {
		if got := RoundProgress(tt.pct); got != tt.want {
			t.Errorf("RoundProgress(%v) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

// TestGetOrGenerateCaches: the first request generates and caches; a
// second request at a percentage rounding to the same key is served from
// cache without another model call.
func TestGetOrGenerateCaches(t *testing.T) {
	store := newFakeStore()
	windower := &fakeWindower{chunks: someChunks()}
	svc := New(store, windower)

	calls := 0
	gen := func(_ context.Context, chunks []models.Chunk) (string, error) {
		calls++
		return "a summary", nil
	}

	first, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 42.3, gen, false)
	if err != nil {
		t.Fatalf("first GetOrGenerate: %v", err)
	}
	if first.FromCache {
		t.Error("first call should not be served from cache")
	}
	if first.Progress != 42.5 {
		t.Errorf("first call Progress = %v, want rounded 42.5", first.Progress)
	}
	if first.ChunkEndIndex != 7 {
		t.Errorf("ChunkEndIndex = %d, want 7 (last chunk in the window)", first.ChunkEndIndex)
	}
	if calls != 1 {
		t.Fatalf("generator called %d times, want 1", calls)
	}

	// 42.6 rounds to the same 42.5 key.
	second, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 42.6, gen, false)
	if err != nil {
		t.Fatalf("second GetOrGenerate: %v", err)
	}
	if !second.FromCache {
		t.Error("second call should hit the cache")
	}
	if second.Summary != "a summary" {
		t.Errorf("cached summary = %q, want the generated text", second.Summary)
	}
	if calls != 1 {
		t.Errorf("generator called %d times after cache hit, want 1", calls)
	}
}

// TestGetOrGenerateRawPercentageToWindower: the cache key is rounded but
// the windower must receive the raw requested percentage.
func TestGetOrGenerateRawPercentageToWindower(t *testing.T) {
	store := newFakeStore()
	windower := &fakeWindower{chunks: someChunks()}
	svc := New(store, windower)

	gen := func(_ context.Context, _ []models.Chunk) (string, error) { return "s", nil }
	if _, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 42.3, gen, false); err != nil {
		t.Fatalf("GetOrGenerate: %v", err)
	}
	if windower.gotPct != 42.3 {
		t.Errorf("windower received pct %v, want raw 42.3", windower.gotPct)
	}
}

func TestGetOrGenerateForceRefresh(t *testing.T) {
	store := newFakeStore()
	windower := &fakeWindower{chunks: someChunks()}
	svc := New(store, windower)

	calls := 0
	gen := func(_ context.Context, _ []models.Chunk) (string, error) {
		calls++
		return fmt.Sprintf("summary %d", calls), nil
	}

	if _, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, gen, false); err != nil {
		t.Fatalf("first GetOrGenerate: %v", err)
	}

	resp, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, gen, true)
	if err != nil {
		t.Fatalf("forced GetOrGenerate: %v", err)
	}
	if resp.FromCache {
		t.Error("forceRefresh must bypass the cache read")
	}
	if calls != 2 {
		t.Errorf("generator called %d times, want 2", calls)
	}
	if resp.Summary != "summary 2" {
		t.Errorf("summary = %q, want the regenerated text", resp.Summary)
	}

	// The refresh writes through: the next plain call sees the new text.
	again, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, gen, false)
	if err != nil {
		t.Fatalf("followup GetOrGenerate: %v", err)
	}
	if !again.FromCache || again.Summary != "summary 2" {
		t.Errorf("followup = (fromCache=%v, %q), want cached summary 2", again.FromCache, again.Summary)
	}
}

func TestGetOrGenerateNoContent(t *testing.T) {
	store := newFakeStore()
	windower := &fakeWindower{} // empty window
	svc := New(store, windower)

	gen := func(_ context.Context, _ []models.Chunk) (string, error) {
		t.Fatal("generator must not run with an empty window")
		return "", nil
	}

	_, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 10, gen, false)
	if !errors.Is(err, ErrNoContent) {
		t.Errorf("err = %v, want ErrNoContent", err)
	}
}

// TestGetOrGenerateFailureNotCached: a failed generation caches nothing,
// so a retry runs the generator again.
func TestGetOrGenerateFailureNotCached(t *testing.T) {
	store := newFakeStore()
	windower := &fakeWindower{chunks: someChunks()}
	svc := New(store, windower)

	boom := errors.New("model unavailable")
	failing := func(_ context.Context, _ []models.Chunk) (string, error) { return "", boom }

	if _, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, failing, false); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want the generation error", err)
	}
	if len(store.rows) != 0 {
		t.Fatalf("cache holds %d rows after a failure, want 0", len(store.rows))
	}

	working := func(_ context.Context, _ []models.Chunk) (string, error) { return "recovered", nil }
	resp, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, working, false)
	if err != nil {
		t.Fatalf("retry GetOrGenerate: %v", err)
	}
	if resp.FromCache || resp.Summary != "recovered" {
		t.Errorf("retry = (fromCache=%v, %q), want fresh recovered summary", resp.FromCache, resp.Summary)
	}
}

// TestGetOrGenerateSurvivesCacheErrors: broken cache reads fall through to
// generation, and a failed cache write still returns the summary.
func TestGetOrGenerateSurvivesCacheErrors(t *testing.T) {
	store := newFakeStore()
	store.getErr = errors.New("connection reset")
	store.upsertErr = errors.New("connection reset")
	windower := &fakeWindower{chunks: someChunks()}
	svc := New(store, windower)

	gen := func(_ context.Context, _ []models.Chunk) (string, error) { return "still works", nil }
	resp, err := svc.GetOrGenerate(context.Background(), "u1", "d1", 50, gen, false)
	if err != nil {
		t.Fatalf("GetOrGenerate with broken cache: %v", err)
	}
	if resp.Summary != "still works" {
		t.Errorf("summary = %q, want the generated text despite cache errors", resp.Summary)
	}
}
