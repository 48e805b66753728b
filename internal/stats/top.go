// Package stats contains statistics calculations and reporting.
package stats

import (
	"sort"

	"github.com/verte-zerg/quickkeys/internal/model"
)

// SlowestChars returns the n characters with the highest average latency.
// Characters never pressed correctly are skipped.
func SlowestChars(aggs []model.CharAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	type item struct {
		ch      string
		latency float64
	}
	items := make([]item, 0, len(aggs))
	for _, agg := range aggs {
		if agg.LatencyCount == 0 {
			continue
		}
		_, lat := CharMetrics(agg)
		items = append(items, item{ch: agg.Char, latency: lat})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].latency == items[j].latency {
			return items[i].ch < items[j].ch
		}
		return items[i].latency > items[j].latency
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].ch)
	}
	return out
}
