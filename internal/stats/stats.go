// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/quickkeys/internal/model"
)

const sparkChars = " .:-=+*#%@"

// GameMetrics computes average seconds per round and accuracy for a game.
func GameMetrics(score float64, rounds, mistakes int) (perRound, accuracy float64) {
	if rounds <= 0 {
		return 0, 0
	}
	perRound = score / float64(rounds)
	accuracy = float64(rounds) / float64(rounds+mistakes)
	return perRound, accuracy
}

// CharMetrics computes accuracy and average latency in milliseconds.
func CharMetrics(agg model.CharAggregate) (accuracy, latencyMs float64) {
	total := agg.Correct + agg.Incorrect
	if total > 0 {
		accuracy = float64(agg.Correct) / float64(total)
	}
	if agg.LatencyCount > 0 {
		latencyMs = float64(agg.LatencySumMs) / float64(agg.LatencyCount)
	}
	return accuracy, latencyMs
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// Summary aggregates a list of games.
type Summary struct {
	Games       int
	BestScore   float64
	AvgScore    float64
	AvgPerRound float64
	AvgAccuracy float64
	Mistakes    int
}

// Summarize computes a Summary over games.
func Summarize(games []model.GameAggregate) Summary {
	if len(games) == 0 {
		return Summary{}
	}
	s := Summary{Games: len(games), BestScore: games[0].Score}
	var totalScore, totalPerRound, totalAcc float64
	for _, g := range games {
		perRound, acc := GameMetrics(g.Score, g.Rounds, g.Mistakes)
		totalScore += g.Score
		totalPerRound += perRound
		totalAcc += acc
		s.Mistakes += g.Mistakes
		if g.Score < s.BestScore {
			s.BestScore = g.Score
		}
	}
	count := float64(len(games))
	s.AvgScore = totalScore / count
	s.AvgPerRound = totalPerRound / count
	s.AvgAccuracy = totalAcc / count
	return s
}

// ScoreCurves returns moving averages of score and accuracy (percent).
func ScoreCurves(games []model.GameAggregate, window int) (scores, accuracies []float64) {
	scores = make([]float64, len(games))
	accuracies = make([]float64, len(games))
	for i, g := range games {
		_, acc := GameMetrics(g.Score, g.Rounds, g.Mistakes)
		scores[i] = g.Score
		accuracies[i] = acc * 100
	}
	return MovingAverage(scores, window), MovingAverage(accuracies, window)
}

// RenderSummary prints a summary block for games.
func RenderSummary(w io.Writer, games []model.GameAggregate) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(w, "No games found.")
		return err
	}
	s := Summarize(games)
	lines := []string{
		"Summary",
		fmt.Sprintf("Games: %d", s.Games),
		fmt.Sprintf("Best: %.2fs", s.BestScore),
		fmt.Sprintf("Avg: %.2fs", s.AvgScore),
		fmt.Sprintf("Avg per round: %.3fs", s.AvgPerRound),
		fmt.Sprintf("Avg accuracy: %.2f%%", s.AvgAccuracy*100),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// CharRows builds table rows for per-character aggregates, weakest first:
// lowest accuracy, then slowest.
func CharRows(aggs []model.CharAggregate) [][]string {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ai, li := CharMetrics(sorted[i])
		aj, lj := CharMetrics(sorted[j])
		if ai != aj {
			return ai < aj
		}
		if li != lj {
			return li > lj
		}
		return sorted[i].Char < sorted[j].Char
	})
	rows := make([][]string, 0, len(sorted))
	for _, agg := range sorted {
		acc, lat := CharMetrics(agg)
		rows = append(rows, []string{
			agg.Char,
			fmt.Sprintf("%.2f%%", acc*100),
			fmt.Sprintf("%.1f", lat),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	return rows
}

// CharHeaders are the column titles matching CharRows.
var CharHeaders = []string{"Key", "Accuracy", "Avg Latency (ms)", "Correct", "Missed"}

// RenderCharTable prints per-character aggregates.
func RenderCharTable(w io.Writer, aggs []model.CharAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No key stats found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Per-Key (Windowed)"); err != nil {
		return err
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(CharHeaders, CharRows(aggs), rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
