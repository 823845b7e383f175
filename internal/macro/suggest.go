package macro

import (
	"sort"

	"github.com/hbollon/go-edlib"
)

// DefaultSuggestThreshold is the Jaro-Winkler similarity a registered name
// needs to be suggested for an unknown one.
const DefaultSuggestThreshold = 0.8

// Suggest returns registered macro names similar to name, best first.
func (e *Engine) Suggest(name string, threshold float64) []string {
	if name == "" {
		return nil
	}
	type scored struct {
		name  string
		score float64
	}
	var hits []scored
	for _, cand := range e.Names() {
		s, err := edlib.StringsSimilarity(name, cand, edlib.JaroWinkler)
		if err != nil || float64(s) < threshold {
			continue
		}
		hits = append(hits, scored{cand, float64(s)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
