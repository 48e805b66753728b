// Package tui provides the Bubble Tea game interface.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/quickkeys/internal/engine"
	"github.com/verte-zerg/quickkeys/internal/ledger"
	"github.com/verte-zerg/quickkeys/internal/model"
)

// GameRecorder stores finished games for the stats view.
type GameRecorder interface {
	InsertGame(ctx context.Context, result model.GameResult) (int64, error)
}

type flashExpiredMsg struct {
	token uint64
}

// Model implements the Bubble Tea game UI.
type Model struct {
	engine  *engine.Engine
	ledger  *ledger.Ledger
	history GameRecorder
	logger  zerolog.Logger

	highScores   []model.ScoreEntry
	lastEntry    model.ScoreEntry
	finalScore   float64
	personalBest bool

	progress progress.Model
	width    int
	height   int
}

// NewModel constructs the game UI. history may be nil.
func NewModel(eng *engine.Engine, led *ledger.Ledger, history GameRecorder, logger zerolog.Logger) *Model {
	m := &Model{
		engine:   eng,
		ledger:   led,
		history:  history,
		logger:   logger.With().Str("component", "tui").Logger(),
		progress: progress.New(progress.WithGradient("#3B82F6", "#A855F7"), progress.WithoutPercentage()),
	}
	m.highScores = led.Load(context.Background())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = progressWidth(msg.Width)
		return m, nil
	case flashExpiredMsg:
		m.engine.ClearFlash(msg.token)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		switch m.engine.Phase() {
		case model.PhaseNotStarted:
			return m, tea.Quit
		case model.PhaseFinished:
			m.engine.ReturnToMenu()
		}
		return m, nil
	}

	var flash tea.Cmd
	for _, k := range keysFromMsg(msg) {
		if cmd := m.applyKey(k); cmd != nil {
			flash = cmd
		}
	}
	return m, flash
}

// applyKey feeds one key to the engine. Only the latest mismatch's token can
// clear the flash, so earlier ticks from the same batch are not needed.
func (m *Model) applyKey(k engine.Key) tea.Cmd {
	out := m.engine.HandleKey(k)
	switch out.Kind {
	case engine.OutcomeStarted:
		m.personalBest = false
		m.logger.Debug().Msg("game started")
	case engine.OutcomeMiss:
		token := out.Flash.Token
		return tea.Tick(out.Flash.Delay, func(time.Time) tea.Msg {
			return flashExpiredMsg{token: token}
		})
	case engine.OutcomeFinished:
		m.finishGame(*out.Result)
	}
	return nil
}

func (m *Model) finishGame(result model.GameResult) {
	ctx := context.Background()
	m.finalScore = result.Score
	m.lastEntry, m.highScores = m.ledger.Record(ctx, result.Score)
	m.personalBest = ledger.IsPersonalBest(m.highScores, result.Score)
	m.logger.Info().
		Float64("score", result.Score).
		Int("mistakes", result.Mistakes).
		Bool("personal_best", m.personalBest).
		Msg("game finished")
	if m.history == nil {
		return
	}
	if _, err := m.history.InsertGame(ctx, result); err != nil {
		m.logger.Warn().Err(err).Msg("failed to save game history")
	}
}

// keysFromMsg converts a Bubble Tea key event into engine keys. The terminal
// reader reports consecutive runes from one read as a single message, so
// each rune becomes its own key. Only plain, unmodified runes carry text.
func keysFromMsg(msg tea.KeyMsg) []engine.Key {
	switch msg.Type {
	case tea.KeySpace:
		if msg.Alt {
			return []engine.Key{{Name: msg.String()}}
		}
		return []engine.Key{{Name: engine.StartKey, Text: " "}}
	case tea.KeyRunes:
		if msg.Alt || msg.Paste {
			return []engine.Key{{Name: msg.String()}}
		}
		keys := make([]engine.Key, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			if r == ' ' {
				keys = append(keys, engine.Key{Name: engine.StartKey, Text: " "})
				continue
			}
			text := string(r)
			keys = append(keys, engine.Key{Name: text, Text: text})
		}
		return keys
	default:
		return []engine.Key{{Name: msg.String()}}
	}
}

func progressWidth(total int) int {
	w := total / 2
	if w > 60 {
		w = 60
	}
	if w < 10 {
		w = 10
	}
	return w
}
