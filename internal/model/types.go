// Package model defines shared data structures.
package model

import "time"

// Phase is the current stage of a game.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhasePlaying    Phase = "playing"
	PhaseFinished   Phase = "finished"
)

const (
	DefaultTotalRounds    = 20
	DefaultPenaltySeconds = 1.0
	DefaultAlphabet       = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Rules holds the fixed game constants.
type Rules struct {
	TotalRounds    int
	PenaltySeconds float64
	Alphabet       string
}

// DefaultRules returns the rules every real game is played with.
func DefaultRules() Rules {
	return Rules{
		TotalRounds:    DefaultTotalRounds,
		PenaltySeconds: DefaultPenaltySeconds,
		Alphabet:       DefaultAlphabet,
	}
}

// ScoreEntry is a completed game's score in the high score list.
type ScoreEntry struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	Date  string  `json:"date"`
}

// Action is one scored key press.
type Action struct {
	Target  rune
	Pressed rune
	Correct bool
	Delta   float64
	Penalty bool
}

// GameResult captures a finished game.
type GameResult struct {
	StartedAt      time.Time
	EndedAt        time.Time
	Score          float64
	Rounds         int
	Mistakes       int
	PenaltySeconds float64
	Actions        []Action
}

// Snapshot is the observable engine state after a transition.
type Snapshot struct {
	Phase       Phase
	Target      rune
	Round       int
	TotalRounds int
	Score       float64
	Flash       bool
	Mistakes    int
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Since  *time.Time
	Last   int
	Window int
}

// CharAggregate aggregates character stats across games.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// GameAggregate summarizes a stored game for reporting.
type GameAggregate struct {
	GameID     int64
	EndedAt    time.Time
	Score      float64
	Rounds     int
	Mistakes   int
	DurationMs int64
}
