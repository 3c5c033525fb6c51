package analysis

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pollenpaw/pollenpaw/internal/pollen"
)

// InsightThreshold is the pollen index quoted in threshold insights.
const InsightThreshold = 7.0

// DisplayName renders a category for people, e.g. "Tree Pollen".
func DisplayName(c pollen.Category) string {
	return cases.Title(language.English).String(c.Key()) + " Pollen"
}

func buildInsights(petName string, top pollen.Category, r float64) *Insights {
	name := DisplayName(top)
	lower := strings.ToLower(name)
	threshold := decimal.NewFromFloat(InsightThreshold).StringFixed(1)

	return &Insights{
		TopTrigger: fmt.Sprintf("%s's symptoms highly correlate with %s (r=%s)", petName, name, decimal.NewFromFloat(r).StringFixed(2)),
		Threshold:  fmt.Sprintf("Symptoms appear when %s > %s", lower, threshold),
		Action:     fmt.Sprintf("Recommend closing windows when %s index > %s", lower, threshold),
	}
}
