package symptom

// Axis bounds for every symptom score.
const (
	MinScore = 1
	MaxScore = 5
)

// Axes are the four observed symptom scores. A nil axis was not observed.
type Axes struct {
	EyeSymptoms    *int
	FurQuality     *int
	SkinIrritation *int
	Respiratory    *int
}

// Severity is the mean of the non-zero axes, or 0 when none are.
func Severity(eye, fur, skin, respiratory int) float64 {
	sum, n := 0, 0
	for _, v := range [...]int{eye, fur, skin, respiratory} {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// Severity treats unobserved axes as absent.
func (a Axes) Severity() float64 {
	return Severity(orZero(a.EyeSymptoms), orZero(a.FurQuality), orZero(a.SkinIrritation), orZero(a.Respiratory))
}

// IsEmpty reports whether no axis was observed.
func (a Axes) IsEmpty() bool {
	return a.EyeSymptoms == nil && a.FurQuality == nil && a.SkinIrritation == nil && a.Respiratory == nil
}

func orZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
