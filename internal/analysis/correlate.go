// Package analysis correlates symptom severity with pollen exposure.
package analysis

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
	"github.com/pollenpaw/pollenpaw/internal/symptom"
)

// MinDays is the number of logged days a correlation needs.
const MinDays = 3

// Status is the outcome of a correlation run.
type Status string

const (
	StatusSuccess          Status = "success"
	StatusInsufficientData Status = "insufficient_data"
)

// Observation is one logged day joined with that day's pollen.
type Observation struct {
	Date        string
	Axes        symptom.Axes
	TreePollen  float64
	GrassPollen float64
	WeedPollen  float64
}

// Series is ascending by date.
type Series []Observation

// FromEntries converts the symptom repository's joined rows.
func FromEntries(entries []symptom.SeriesEntry) Series {
	series := make(Series, 0, len(entries))
	for _, e := range entries {
		series = append(series, Observation{
			Date:        e.LogDate,
			Axes:        e.Axes,
			TreePollen:  e.TreePollen,
			GrassPollen: e.GrassPollen,
			WeedPollen:  e.WeedPollen,
		})
	}
	return series
}

// Correlations are Pearson coefficients rounded to two decimals.
type Correlations struct {
	Tree            float64
	Grass           float64
	Weed            float64
	TopTrigger      pollen.Category
	TopTriggerValue float64
}

// ChartPoint is one day of chart data.
type ChartPoint struct {
	Date            string
	SymptomSeverity float64
	TreePollen      float64
	GrassPollen     float64
	WeedPollen      float64
}

// Insights are sentences templated from the top trigger.
type Insights struct {
	TopTrigger string
	Threshold  string
	Action     string
}

// Result is either a success with correlations, or an insufficient-data
// notice with DaysNeeded and Message set.
type Result struct {
	Status       Status
	PetName      string
	DaysLogged   int
	DaysNeeded   int
	Message      string
	Correlations *Correlations
	ChartData    []ChartPoint
	Insights     *Insights
}

// Correlate computes the symptom/pollen correlation for one pet.
// Fewer than MinDays observations yield StatusInsufficientData.
func Correlate(petName string, series Series) Result {
	n := len(series)
	if n < MinDays {
		return Result{
			Status:     StatusInsufficientData,
			PetName:    petName,
			DaysLogged: n,
			DaysNeeded: MinDays - n,
			Message:    fmt.Sprintf("Need more data. Have %d day(s), need %d days for accurate analysis", n, MinDays),
		}
	}

	severity := make([]float64, n)
	tree := make([]float64, n)
	grass := make([]float64, n)
	weed := make([]float64, n)
	chart := make([]ChartPoint, n)

	for i, obs := range series {
		severity[i] = obs.Axes.Severity()
		tree[i] = obs.TreePollen
		grass[i] = obs.GrassPollen
		weed[i] = obs.WeedPollen

		chart[i] = ChartPoint{
			Date:            obs.Date,
			SymptomSeverity: round2(severity[i]),
			TreePollen:      obs.TreePollen,
			GrassPollen:     obs.GrassPollen,
			WeedPollen:      obs.WeedPollen,
		}
	}

	coefficients := map[pollen.Category]float64{
		pollen.CategoryTree:  Pearson(severity, tree),
		pollen.CategoryGrass: Pearson(severity, grass),
		pollen.CategoryWeed:  Pearson(severity, weed),
	}
	top := TopTrigger(coefficients)

	return Result{
		Status:     StatusSuccess,
		PetName:    petName,
		DaysLogged: n,
		Correlations: &Correlations{
			Tree:            round2(coefficients[pollen.CategoryTree]),
			Grass:           round2(coefficients[pollen.CategoryGrass]),
			Weed:            round2(coefficients[pollen.CategoryWeed]),
			TopTrigger:      top,
			TopTriggerValue: round2(coefficients[top]),
		},
		ChartData: chart,
		Insights:  buildInsights(petName, top, coefficients[top]),
	}
}

// Pearson returns the correlation coefficient of two equal-length series.
// A zero denominator (either series constant, or empty input) yields 0.
func Pearson(x, y []float64) float64 {
	n := float64(len(x))
	if len(x) == 0 || len(x) != len(y) || constant(x) || constant(y) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}

	numerator := n*sumXY - sumX*sumY
	denominator := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if denominator == 0 || math.IsNaN(denominator) {
		return 0
	}
	return numerator / denominator
}

// TopTrigger picks the category with the largest |r|. Ties go to the
// earlier category in pollen.Categories order.
func TopTrigger(coefficients map[pollen.Category]float64) pollen.Category {
	top := pollen.Categories[0]
	for _, c := range pollen.Categories[1:] {
		if math.Abs(coefficients[c]) > math.Abs(coefficients[top]) {
			top = c
		}
	}
	return top
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
