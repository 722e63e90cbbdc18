package parser

import (
	"strings"

	"github.com/atikulmunna/towerscan/internal/geo"
	"github.com/atikulmunna/towerscan/internal/model"
)

type coordKey struct{ lat, lon float64 }

// FillMissingStates assigns a state to records that have a location but no
// state, using the most common state seen at the same coordinates rounded to
// precision decimals. Ties go to the state seen first. The input is not
// modified; the returned slice is a copy.
func FillMissingStates(records []model.LocationRecord, precision int) ([]model.LocationRecord, int) {
	key := func(r model.LocationRecord) coordKey {
		return coordKey{geo.Round(r.Latitude, precision), geo.Round(r.Longitude, precision)}
	}

	type tally struct {
		counts map[string]int
		order  []string
	}
	seen := make(map[coordKey]*tally)

	for _, r := range records {
		state := strings.TrimSpace(r.State)
		if state == "" || !r.HasLocation() {
			continue
		}
		k := key(r)
		t, ok := seen[k]
		if !ok {
			t = &tally{counts: make(map[string]int)}
			seen[k] = t
		}
		if t.counts[state] == 0 {
			t.order = append(t.order, state)
		}
		t.counts[state]++
	}

	best := make(map[coordKey]string, len(seen))
	for k, t := range seen {
		top := ""
		for _, s := range t.order {
			if top == "" || t.counts[s] > t.counts[top] {
				top = s
			}
		}
		best[k] = top
	}

	out := make([]model.LocationRecord, len(records))
	copy(out, records)

	filled := 0
	for i := range out {
		if strings.TrimSpace(out[i].State) != "" || !out[i].HasLocation() {
			continue
		}
		if s, ok := best[key(out[i])]; ok {
			out[i].State = s
			filled++
		}
	}
	return out, filled
}
