// Package ledger keeps the ranked list of best finished-game scores.
package ledger

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/quickkeys/internal/model"
)

const (
	// StorageKey names the slot the list is stored under.
	StorageKey = "quickkeys_highscores"
	// MaxEntries caps the number of retained scores.
	MaxEntries = 5
	// DateLayout formats ScoreEntry.Date.
	DateLayout = "2006-01-02"
)

// Storage is a key-value slot store.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Ledger records scores into Storage. Persistence is best effort: failures
// are logged and the in-memory result is still returned.
type Ledger struct {
	storage Storage
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used for entry dates.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDFunc overrides entry id generation.
func WithIDFunc(fn func() string) Option {
	return func(l *Ledger) {
		l.newID = fn
	}
}

// New returns a Ledger backed by storage.
func New(storage Storage, logger zerolog.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		storage: storage,
		logger:  logger.With().Str("component", "ledger").Logger(),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load returns the stored list. Absent or unreadable data yields an empty list.
func (l *Ledger) Load(ctx context.Context) []model.ScoreEntry {
	entries, err := l.load(ctx)
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read high scores")
	}
	return entries
}

// load returns an error only when storage could not be read. Corrupt data is
// logged and treated as empty.
func (l *Ledger) load(ctx context.Context) ([]model.ScoreEntry, error) {
	raw, ok, err := l.storage.Get(ctx, StorageKey)
	if err != nil {
		return []model.ScoreEntry{}, err
	}
	if !ok || len(raw) == 0 {
		return []model.ScoreEntry{}, nil
	}
	var entries []model.ScoreEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.logger.Warn().Err(err).Msg("discarding unparseable high scores")
		return []model.ScoreEntry{}, nil
	}
	return rank(entries), nil
}

// Record adds a finished game's score and persists the updated list. It
// returns the new entry and the ranked list, which may not contain the entry
// when the score did not make the cut. When the stored list cannot be read
// the result is not saved, so earlier scores are never overwritten.
func (l *Ledger) Record(ctx context.Context, score float64) (model.ScoreEntry, []model.ScoreEntry) {
	entry := model.ScoreEntry{
		ID:    l.newID(),
		Score: Round2(score),
		Date:  l.now().Format(DateLayout),
	}
	stored, err := l.load(ctx)
	entries := rank(append(stored, entry))
	if err != nil {
		l.logger.Warn().Err(err).Msg("failed to read high scores; score not saved")
		return entry, entries
	}

	raw, err := json.Marshal(entries)
	if err != nil {
		l.logger.Error().Err(err).Msg("failed to encode high scores")
		return entry, entries
	}
	if err := l.storage.Set(ctx, StorageKey, raw); err != nil {
		l.logger.Warn().Err(err).Msg("failed to save high scores")
		return entry, entries
	}
	l.logger.Debug().Str("id", entry.ID).Float64("score", entry.Score).Int("kept", len(entries)).Msg("recorded score")
	return entry, entries
}

// Clear empties the stored list.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.storage.Set(ctx, StorageKey, []byte("[]"))
}

// IsPersonalBest reports whether score is at least as good as the best entry
// of an already-updated list.
func IsPersonalBest(entries []model.ScoreEntry, score float64) bool {
	if len(entries) == 0 {
		return false
	}
	return entries[0].Score >= Round2(score)
}

// Round2 rounds a score to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func rank(entries []model.ScoreEntry) []model.ScoreEntry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score < entries[j].Score
	})
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries
}
