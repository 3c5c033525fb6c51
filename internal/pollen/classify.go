package pollen

// Level thresholds, inclusive to the higher band.
const (
	VeryHighThreshold = 4.0
	HighThreshold     = 3.0
	ModerateThreshold = 2.0
)

// Classify maps the day's category values to a level using their maximum.
func Classify(tree, grass, weed float64) Level {
	highest := max(tree, grass, weed)

	switch {
	case highest >= VeryHighThreshold:
		return LevelVeryHigh
	case highest >= HighThreshold:
		return LevelHigh
	case highest >= ModerateThreshold:
		return LevelModerate
	default:
		return LevelLow
	}
}

// Level classifies the extracted values.
func (e Extracted) Level() Level {
	return Classify(e.Tree, e.Grass, e.Weed)
}
