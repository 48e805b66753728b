package ledger

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/quickkeys/internal/model"
	"github.com/verte-zerg/quickkeys/internal/store"
)

type failingStorage struct {
	getErr error
	setErr error
}

func (f failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, f.getErr
}

func (f failingStorage) Set(context.Context, string, []byte) error {
	return f.setErr
}

func newTestLedger(storage Storage) *Ledger {
	n := 0
	return New(storage, zerolog.Nop(),
		WithClock(func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }),
		WithIDFunc(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
	)
}

func TestLoadEmpty(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	if got := l.Load(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty ledger, got %+v", got)
	}
}

func TestRecordOnEmptyLedger(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	entry, entries := l.Record(context.Background(), 7.456)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entry.Score != 7.46 || entry.Date != "2026-10-18" || entry.ID != "id-1" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entries[0] != entry {
		t.Fatalf("expected list to hold the new entry, got %+v", entries[0])
	}
}

func TestRecordKeepsFiveSmallest(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	ctx := context.Background()
	var entries []model.ScoreEntry
	for _, score := range []float64{9, 4, 7, 5, 6, 8} {
		_, entries = l.Record(ctx, score)
	}
	want := []float64{4, 5, 6, 7, 8}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, score := range want {
		if entries[i].Score != score {
			t.Fatalf("position %d: expected %.2f, got %.2f", i, score, entries[i].Score)
		}
	}
}

func TestRecordIncreasingScoresDropsWorst(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	ctx := context.Background()
	var entries []model.ScoreEntry
	for i := 1; i <= 6; i++ {
		_, entries = l.Record(ctx, float64(i))
	}
	if len(entries) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(entries))
	}
	for i, e := range entries {
		if e.Score != float64(i+1) {
			t.Fatalf("position %d: expected %d, got %.2f", i, i+1, e.Score)
		}
	}
}

func TestLoadAfterRecordRoundTrip(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "quickkeys.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	ctx := context.Background()
	l := newTestLedger(st)
	l.Record(ctx, 12.3)
	_, recorded := l.Record(ctx, 10.01)

	loaded := newTestLedger(st).Load(ctx)
	if len(loaded) != len(recorded) {
		t.Fatalf("expected %d entries, got %d", len(recorded), len(loaded))
	}
	for i := range recorded {
		if loaded[i] != recorded[i] {
			t.Fatalf("entry %d mismatch: %+v vs %+v", i, loaded[i], recorded[i])
		}
	}
}

func TestTiesKeepInsertionOrder(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	ctx := context.Background()
	l.Record(ctx, 5)
	_, entries := l.Record(ctx, 5)
	if entries[0].ID != "id-1" || entries[1].ID != "id-2" {
		t.Fatalf("expected older entry first on ties, got %+v", entries)
	}
}

func TestCorruptDataTreatedAsEmpty(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	if err := mem.Set(ctx, StorageKey, []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l := newTestLedger(mem)
	if got := l.Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty ledger, got %+v", got)
	}
	_, entries := l.Record(ctx, 3)
	if len(entries) != 1 {
		t.Fatalf("expected corrupt data to be replaced, got %+v", entries)
	}
}

func TestLoadNormalizesStoredList(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()
	raw := `[{"id":"a","score":9,"date":"x"},{"id":"b","score":1,"date":"x"},{"id":"c","score":3,"date":"x"},
		{"id":"d","score":2,"date":"x"},{"id":"e","score":8,"date":"x"},{"id":"f","score":4,"date":"x"}]`
	if err := mem.Set(ctx, StorageKey, []byte(raw)); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got := newTestLedger(mem).Load(ctx)
	if len(got) != MaxEntries || got[0].ID != "b" || got[4].ID != "e" {
		t.Fatalf("unexpected normalized list: %+v", got)
	}
}

func TestStorageFailuresDegrade(t *testing.T) {
	l := newTestLedger(failingStorage{getErr: errors.New("boom"), setErr: errors.New("boom")})
	ctx := context.Background()
	if got := l.Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty ledger on read failure")
	}
	entry, entries := l.Record(ctx, 4.2)
	if len(entries) != 1 || entries[0] != entry {
		t.Fatalf("expected unsaved snapshot, got %+v", entries)
	}
}

func TestClear(t *testing.T) {
	l := newTestLedger(store.NewMemory())
	ctx := context.Background()
	l.Record(ctx, 1)
	if err := l.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := l.Load(ctx); len(got) != 0 {
		t.Fatalf("expected empty after clear, got %+v", got)
	}
}

func TestIsPersonalBest(t *testing.T) {
	entries := []model.ScoreEntry{{Score: 5.5}, {Score: 7}}
	cases := []struct {
		score float64
		want  bool
	}{
		{5.5, true},
		{5.499, true},
		{5.51, false},
		{9, false},
	}
	for _, tc := range cases {
		if got := IsPersonalBest(entries, tc.score); got != tc.want {
			t.Fatalf("IsPersonalBest(%v) = %v, want %v", tc.score, got, tc.want)
		}
	}
	if IsPersonalBest(nil, 1) {
		t.Fatalf("empty list has no personal best")
	}
}

type countingStorage struct {
	getErr error
	sets   int
}

func (c *countingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, c.getErr
}

func (c *countingStorage) Set(context.Context, string, []byte) error {
	c.sets++
	return nil
}

func TestRecordSkipsSaveWhenReadFails(t *testing.T) {
	storage := &countingStorage{getErr: errors.New("disk I/O error")}
	l := newTestLedger(storage)
	entry, entries := l.Record(context.Background(), 2.5)
	if len(entries) != 1 || entries[0] != entry {
		t.Fatalf("expected unsaved snapshot, got %+v", entries)
	}
	if storage.sets != 0 {
		t.Fatalf("expected stored scores left untouched, got %d writes", storage.sets)
	}

	storage.getErr = nil
	l.Record(context.Background(), 3)
	if storage.sets != 1 {
		t.Fatalf("expected a write once reads succeed, got %d", storage.sets)
	}
}
