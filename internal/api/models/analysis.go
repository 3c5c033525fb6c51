package models

// Correlation statuses.
const (
	CorrelationStatusSuccess          = "success"
	CorrelationStatusInsufficientData = "insufficient_data"
)

// CorrelationAnalysis is the symptom/pollen correlation response.
// Only the fields for the given status are populated.
type CorrelationAnalysis struct {
	Status       string             `json:"status"`
	PetName      string             `json:"petName"`
	DaysLogged   int                `json:"daysLogged"`
	DaysNeeded   *int               `json:"daysNeeded,omitempty"`
	Message      string             `json:"message,omitempty"`
	Correlations *Correlations      `json:"correlations,omitempty"`
	ChartData    []CorrelationPoint `json:"chartData,omitempty"`
	Insights     *Insights          `json:"insights,omitempty"`
}

// Correlations holds the rounded Pearson coefficients.
type Correlations struct {
	TreeCorr        float64 `json:"treeCorr"`
	GrassCorr       float64 `json:"grassCorr"`
	WeedCorr        float64 `json:"weedCorr"`
	TopTrigger      string  `json:"topTrigger"`
	TopTriggerValue float64 `json:"topTriggerValue"`
}

// CorrelationPoint is one chart point.
type CorrelationPoint struct {
	Date            string  `json:"date"`
	SymptomSeverity float64 `json:"symptomSeverity"`
	TreePollen      float64 `json:"treePollen"`
	GrassPollen     float64 `json:"grassPollen"`
	WeedPollen      float64 `json:"weedPollen"`
}

// Insights are the templated sentences derived from the top trigger.
type Insights struct {
	TopTriggerInsight    string `json:"topTriggerInsight"`
	ThresholdInsight     string `json:"thresholdInsight"`
	ActionRecommendation string `json:"actionRecommendation"`
}
