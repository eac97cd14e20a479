package scoring

const maxFeedback = 3

// Feedback walks the dimensions in declaration order and sorts each into a
// strength (its display name) or an improvement (its tip). A dimension lands
// in at most one list and each list holds at most three entries.
func Feedback(mode *Mode, dims []DimensionScore) (strengths, improvements []string) {
	strengths = []string{}
	improvements = []string{}
	for _, ds := range dims {
		d, ok := mode.Dimension(ds.Key)
		if !ok {
			continue
		}
		switch {
		case ds.Value >= mode.StrengthAt:
			if len(strengths) < maxFeedback {
				strengths = append(strengths, d.Name)
			}
		case ds.Value < mode.ImproveBelow:
			if len(improvements) < maxFeedback {
				improvements = append(improvements, d.Tip)
			}
		}
	}
	return strengths, improvements
}
