package index

import (
	"math"
	"sort"
)

// Metric is the raw similarity or distance a vector backend reports.
type Metric int

const (
	MetricCosine Metric = iota
	MetricDot
	MetricEuclid
	MetricManhattan
)

// NormalizeScore maps a backend's raw value to [0, 1] where higher is more relevant.
// Similarities are clamped; distances d become 1/(1+d).
func NormalizeScore(m Metric, raw float64) float64 {
	switch m {
	case MetricEuclid, MetricManhattan:
		if raw < 0 {
			raw = 0
		}
		return 1 / (1 + raw)
	default:
		return clamp01(raw)
	}
}

// Blend linearly combines semantic and keyword scores.
func Blend(alpha, semantic, keyword float64) float64 {
	return alpha*semantic + (1-alpha)*keyword
}

// Cosine returns the cosine similarity of a and b, or 0 if either is empty,
// zero or of different length.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// rank sorts hits best first, breaking ties by record ID, drops hits with no
// relevance and keeps at most k.
func rank(hits []Hit, k int) []Hit {
	kept := hits[:0]
	for _, h := range hits {
		if h.Score > 0 {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Score != kept[j].Score {
			return kept[i].Score > kept[j].Score
		}
		return kept[i].Record.ID < kept[j].Record.ID
	})
	if len(kept) > k {
		kept = kept[:k]
	}
	return kept
}

func scoreHit(q Query, r Record, semantic float64) Hit {
	keyword := KeywordScore(q.Text, r.Text, r.Title)
	return Hit{
		Record:   r,
		Semantic: semantic,
		Keyword:  keyword,
		Score:    Blend(q.Alpha, semantic, keyword),
	}
}
