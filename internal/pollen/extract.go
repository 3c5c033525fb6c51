package pollen

import (
	"github.com/shopspring/decimal"
)

// ZeroPolicy decides how a reading with an index value of exactly 0 is treated.
type ZeroPolicy int

const (
	// ZeroAsMissing skips zero readings, together with their recommendations.
	ZeroAsMissing ZeroPolicy = iota

	// ZeroAsReading counts zero readings toward the category average.
	ZeroAsReading
)

// String returns the policy name.
func (p ZeroPolicy) String() string {
	if p == ZeroAsReading {
		return "zero_as_reading"
	}
	return "zero_as_missing"
}

// Extractor groups plant readings into category values.
type Extractor struct {
	taxonomy   *Taxonomy
	zeroPolicy ZeroPolicy
}

// NewExtractor creates an extractor. A nil taxonomy uses the default table.
func NewExtractor(taxonomy *Taxonomy, policy ZeroPolicy) *Extractor {
	if taxonomy == nil {
		taxonomy = defaultTaxonomy
	}
	return &Extractor{taxonomy: taxonomy, zeroPolicy: policy}
}

// ZeroPolicy returns the extractor's zero policy.
func (e *Extractor) ZeroPolicy() ZeroPolicy {
	return e.zeroPolicy
}

// Extract averages readings per category and collects their recommendations.
func (e *Extractor) Extract(readings []PlantReading) Extracted {
	values := make(map[Category][]float64, len(Categories))
	recs := map[Category]*orderedSet{
		CategoryTree:  newOrderedSet(),
		CategoryGrass: newOrderedSet(),
		CategoryWeed:  newOrderedSet(),
	}

	for _, r := range readings {
		category := e.taxonomy.CategoryOf(r.Code)
		if category == CategoryNone {
			continue
		}
		if !e.usable(r.IndexValue) {
			continue
		}
		values[category] = append(values[category], *r.IndexValue)
		recs[category].add(r.Recommendations...)
	}

	return Extracted{
		Tree:                 average(values[CategoryTree]),
		Grass:                average(values[CategoryGrass]),
		Weed:                 average(values[CategoryWeed]),
		TreeRecommendations:  recs[CategoryTree].items,
		GrassRecommendations: recs[CategoryGrass].items,
		WeedRecommendations:  recs[CategoryWeed].items,
	}
}

func (e *Extractor) usable(v *float64) bool {
	if v == nil {
		return false
	}
	if *v == 0 {
		return e.zeroPolicy == ZeroAsReading
	}
	return true
}

// Extract uses the default taxonomy and ZeroAsMissing.
func Extract(readings []PlantReading) Extracted {
	return NewExtractor(nil, ZeroAsMissing).Extract(readings)
}

// average returns the mean rounded to one decimal, or 0 for no values.
func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(decimal.NewFromFloat(v))
	}
	mean := sum.Div(decimal.NewFromInt(int64(len(values))))
	return mean.Round(1).InexactFloat64()
}

type orderedSet struct {
	seen  map[string]struct{}
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{}), items: []string{}}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}
