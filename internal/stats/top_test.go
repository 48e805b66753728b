package stats

import (
	"testing"

	"github.com/verte-zerg/quickkeys/internal/model"
)

func TestSlowestChars(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "B", Correct: 2, LatencySumMs: 800, LatencyCount: 2},
		{Char: "A", Correct: 1, LatencySumMs: 400, LatencyCount: 1},
		{Char: "C", Correct: 1, LatencySumMs: 900, LatencyCount: 1},
		{Char: "D", Incorrect: 3},
	}
	top := SlowestChars(aggs, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 chars, got %d", len(top))
	}
	if top[0] != "C" || top[1] != "A" || top[2] != "B" {
		t.Fatalf("unexpected order: %v", top)
	}
}
