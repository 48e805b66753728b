// Package engine implements the round and scoring state machine.
//
// The engine is owned by a single event loop. Key presses and flash expiry
// callbacks must be delivered by that loop one at a time; nothing here locks.
package engine

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/verte-zerg/quickkeys/internal/model"
)

// StartKey is the key name that starts a game outside of play.
const StartKey = "space"

// DefaultFlashDelay is how long the error flash stays on after a mismatch.
const DefaultFlashDelay = 200 * time.Millisecond

// CharSource produces target characters.
type CharSource interface {
	Next() rune
}

// Key is a raw key event. Name identifies the key ("space", "shift",
// "a"), Text holds the character it produces, if any.
type Key struct {
	Name string
	Text string
}

// OutcomeKind classifies what a key event did.
type OutcomeKind int

const (
	OutcomeIgnored OutcomeKind = iota
	OutcomeStarted
	OutcomeHit
	OutcomeMiss
	OutcomeFinished
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStarted:
		return "started"
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeFinished:
		return "finished"
	default:
		return "ignored"
	}
}

// FlashRequest asks the host loop to call ClearFlash(Token) after Delay.
type FlashRequest struct {
	Token uint64
	Delay time.Duration
}

// Outcome reports the effect of a single key event.
type Outcome struct {
	Kind    OutcomeKind
	Elapsed float64
	Flash   *FlashRequest
	Result  *model.GameResult
}

// Engine tracks the state of one player's games.
type Engine struct {
	rules      model.Rules
	source     CharSource
	clock      Clock
	flashDelay time.Duration

	phase     model.Phase
	target    rune
	round     int
	score     float64
	lastEvent time.Time
	startedAt time.Time
	mistakes  int
	actions   []model.Action

	flash    bool
	flashGen uint64
}

// Option customizes an Engine.
type Option func(*Engine)

// WithFlashDelay overrides the error flash duration.
func WithFlashDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.flashDelay = d
		}
	}
}

// New returns an engine waiting for the start key.
func New(rules model.Rules, source CharSource, clock Clock, opts ...Option) *Engine {
	if rules.TotalRounds <= 0 {
		rules.TotalRounds = model.DefaultTotalRounds
	}
	if rules.PenaltySeconds < 0 {
		rules.PenaltySeconds = 0
	}
	if clock == nil {
		clock = SystemClock{}
	}
	e := &Engine{
		rules:      rules,
		source:     source,
		clock:      clock,
		flashDelay: DefaultFlashDelay,
		phase:      model.PhaseNotStarted,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start resets the game and draws the first target.
func (e *Engine) Start() {
	now := e.clock.Now()
	e.round = 1
	e.score = 0
	e.mistakes = 0
	e.actions = nil
	e.target = e.source.Next()
	e.phase = model.PhasePlaying
	e.lastEvent = now
	e.startedAt = now
	e.flash = false
}

// HandleKey processes one key event.
func (e *Engine) HandleKey(k Key) Outcome {
	if e.phase != model.PhasePlaying {
		if k.Name == StartKey {
			e.Start()
			return Outcome{Kind: OutcomeStarted}
		}
		return Outcome{Kind: OutcomeIgnored}
	}

	pressed, ok := printableRune(k.Text)
	if !ok {
		return Outcome{Kind: OutcomeIgnored}
	}
	pressed = unicode.ToUpper(pressed)

	now := e.clock.Now()
	elapsed := now.Sub(e.lastEvent).Seconds()
	e.lastEvent = now

	if pressed == e.target {
		return e.hit(pressed, elapsed, now)
	}
	return e.miss(pressed, elapsed)
}

func (e *Engine) hit(pressed rune, elapsed float64, now time.Time) Outcome {
	e.flash = false
	e.score += elapsed
	e.actions = append(e.actions, model.Action{
		Target:  e.target,
		Pressed: pressed,
		Correct: true,
		Delta:   elapsed,
	})

	if e.round < e.rules.TotalRounds {
		e.round++
		e.target = e.source.Next()
		return Outcome{Kind: OutcomeHit, Elapsed: elapsed}
	}

	e.phase = model.PhaseFinished
	result := model.GameResult{
		StartedAt:      e.startedAt,
		EndedAt:        now,
		Score:          e.score,
		Rounds:         e.rules.TotalRounds,
		Mistakes:       e.mistakes,
		PenaltySeconds: e.rules.PenaltySeconds,
		Actions:        append([]model.Action(nil), e.actions...),
	}
	return Outcome{Kind: OutcomeFinished, Elapsed: elapsed, Result: &result}
}

func (e *Engine) miss(pressed rune, elapsed float64) Outcome {
	e.flash = true
	e.flashGen++
	e.score += elapsed + e.rules.PenaltySeconds
	e.mistakes++
	e.actions = append(e.actions, model.Action{
		Target:  e.target,
		Pressed: pressed,
		Delta:   elapsed,
		Penalty: true,
	})
	return Outcome{
		Kind:    OutcomeMiss,
		Elapsed: elapsed,
		Flash:   &FlashRequest{Token: e.flashGen, Delay: e.flashDelay},
	}
}

// ClearFlash turns the error flash off if token belongs to the latest
// mismatch. It reports whether anything changed.
func (e *Engine) ClearFlash(token uint64) bool {
	if token != e.flashGen || !e.flash {
		return false
	}
	e.flash = false
	return true
}

// ReturnToMenu moves a finished game back to the not-started phase.
func (e *Engine) ReturnToMenu() bool {
	if e.phase != model.PhaseFinished {
		return false
	}
	e.phase = model.PhaseNotStarted
	e.flash = false
	return true
}

// Snapshot returns the render-facing state.
func (e *Engine) Snapshot() model.Snapshot {
	s := model.Snapshot{
		Phase:       e.phase,
		Round:       e.round,
		TotalRounds: e.rules.TotalRounds,
		Score:       e.score,
		Flash:       e.flash,
		Mistakes:    e.mistakes,
	}
	if e.phase == model.PhasePlaying {
		s.Target = e.target
	}
	return s
}

// Phase returns the current phase.
func (e *Engine) Phase() model.Phase {
	return e.phase
}

// Rules returns the rules the engine plays by.
func (e *Engine) Rules() model.Rules {
	return e.rules
}

func printableRune(text string) (rune, bool) {
	if utf8.RuneCountInString(text) != 1 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || !unicode.IsPrint(r) {
		return 0, false
	}
	return r, true
}
