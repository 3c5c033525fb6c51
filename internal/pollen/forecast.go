package pollen

// BuildDailyForecast runs one day's readings through extraction,
// classification and recommendation merging.
func BuildDailyForecast(date string, readings []PlantReading, extractor *Extractor) DailyForecast {
	if extractor == nil {
		extractor = NewExtractor(nil, ZeroAsMissing)
	}
	extracted := extractor.Extract(readings)
	return DailyForecast{
		Date:            date,
		Extracted:       extracted,
		Level:           extracted.Level(),
		Recommendations: CombineRecommendations(extracted),
	}
}

// BuildForecast converts provider days into daily forecasts, keeping order.
func BuildForecast(days []DayReadings, extractor *Extractor) []DailyForecast {
	out := make([]DailyForecast, 0, len(days))
	for _, d := range days {
		out = append(out, BuildDailyForecast(d.Date.String(), d.Readings, extractor))
	}
	return out
}
