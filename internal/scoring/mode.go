package scoring

import "math"

// Dimension is one weighted axis of a scoring mode.
type Dimension struct {
	Key    string
	Name   string
	Weight float64
	Tip    string
	Score  func(f *Features) float64
}

// GradeBand maps every overall score at or above Min to Grade.
type GradeBand struct {
	Min   float64
	Grade string
}

// Mode is a complete scoring configuration. Behavioral and Voice are the two
// built-in modes; they differ only in data.
type Mode struct {
	Name          string
	Max           float64 // upper bound of every dimension
	MinWords      int     // fewer words yields no evaluation
	StrengthAt    float64 // dimension value that earns a strength
	ImproveBelow  float64 // dimension value that earns a tip
	STAR          STARLexicon
	PowerVerbs    []string
	Dimensions    []Dimension
	Grades        []GradeBand // descending by Min
	FallbackGrade string
	// GradeWhole grades the overall rounded to a whole number instead of
	// the raw weighted sum.
	GradeWhole bool
}

func (m *Mode) gradeInput(raw float64) float64 {
	if m.GradeWhole {
		return math.Round(raw)
	}
	return raw
}

// Grade buckets an overall score. Boundaries are inclusive on the lower edge.
func (m *Mode) Grade(overall float64) string {
	for _, b := range m.Grades {
		if overall >= b.Min {
			return b.Grade
		}
	}
	return m.FallbackGrade
}

// Dimension returns the dimension with the given key.
func (m *Mode) Dimension(key string) (Dimension, bool) {
	for _, d := range m.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return Dimension{}, false
}

const (
	ModeBehavioral = "behavioral"
	ModeVoice      = "voice"
)

// ModeByName resolves a mode name.
func ModeByName(name string) (*Mode, bool) {
	switch name {
	case ModeBehavioral:
		return Behavioral, true
	case ModeVoice:
		return Voice, true
	}
	return nil, false
}

// Behavioral scores typed answers on a 0-100 scale per dimension.
var Behavioral = &Mode{
	Name:         ModeBehavioral,
	Max:          100,
	MinWords:     10,
	StrengthAt:   75,
	ImproveBelow: 50,
	STAR:         WrittenSTAR,
	PowerVerbs:   ConfidenceVerbs,
	Dimensions: []Dimension{
		{
			Key:    "star",
			Name:   "STAR Structure",
			Weight: 0.35,
			Tip:    "Structure your answer using the STAR method: Situation → Task → Action → Result",
			Score: func(f *Features) float64 {
				h := f.STARHits
				return math.Min(100, float64(min(h[Situation], 3)*5+min(h[Task], 3)*5+min(h[Action], 5)*7+min(h[Result], 4)*10))
			},
		},
		{
			Key:    "length",
			Name:   "Length",
			Weight: 0.20,
			Tip:    "Aim for 100-200 words for a complete response",
			Score: func(f *Features) float64 {
				wc := f.Metrics.Words
				switch {
				case wc < 30:
					return 20
				case wc < 60:
					return 45
				case wc < 100:
					return 70
				case wc <= 220:
					return 100
				default:
					return math.Max(40, 100-float64(wc-220)/5)
				}
			},
		},
		{
			Key:    "specificity",
			Name:   "Specificity",
			Weight: 0.20,
			Tip:    `Add specific numbers or metrics to make your impact measurable, e.g. "reduced by 30%"`,
			Score: func(f *Features) float64 {
				s := 15.0
				if f.Metrics.Words > 80 {
					s = 30
				}
				if f.HasDigits {
					s += 40
				}
				if f.HasPercent {
					s += 30
				}
				return math.Min(100, s)
			},
		},
		{
			Key:    "clarity",
			Name:   "Clarity",
			Weight: 0.15,
			Tip:    `Practice cutting filler phrases such as "um", "like" and "basically"`,
			Score: func(f *Features) float64 {
				return math.Max(20, 100-float64(f.SpeechFillers)*15)
			},
		},
		{
			Key:    "confidence",
			Name:   "Confidence",
			Weight: 0.10,
			Tip:    `Use stronger action verbs like "led", "achieved", "delivered", "resolved"`,
			Score: func(f *Features) float64 {
				return math.Min(100, 40+float64(len(f.PowerWords))*15)
			},
		},
	},
	Grades: []GradeBand{
		{85, "A"},
		{70, "B"},
		{55, "C"},
	},
	FallbackGrade: "D",
	GradeWhole:    true,
}

// Voice scores transcribed answers on a 0-10 scale per dimension.
var Voice = &Mode{
	Name:         ModeVoice,
	Max:          10,
	MinWords:     1,
	StrengthAt:   7.5,
	ImproveBelow: 5,
	STAR:         SpokenSTAR,
	PowerVerbs:   PowerVerbs,
	Dimensions: []Dimension{
		{
			Key:    "relevance",
			Name:   "Relevance",
			Weight: 0.18,
			Tip:    "Add more context, the answer is too brief",
			Score: func(f *Features) float64 {
				return math.Min(10, 3+math.Min(5, float64(f.Metrics.Words)/20)+bonus(f.HasNumbers, 1.5)+bonus(f.HasSpecifics, 0.5))
			},
		},
		{
			Key:    "star",
			Name:   "STAR",
			Weight: 0.15,
			Tip:    "Use STAR method: Situation → Task → Action → Result",
			Score: func(f *Features) float64 {
				return math.Min(10, float64(f.STAR.Filled())*2.5)
			},
		},
		{
			Key:    "clarity",
			Name:   "Clarity",
			Weight: 0.15,
			Tip:    "Reduce uhm/um, pause silently instead of filling gaps",
			Score: func(f *Features) float64 {
				return f.Metrics.Flesch/10 - f.FillerPenalty
			},
		},
		{
			Key:    "tone",
			Name:   "Tone",
			Weight: 0.10,
			Tip:    `Use positive action language: "I led", "I achieved"`,
			Score: func(f *Features) float64 {
				return 5 + float64(f.PositiveWords) + float64(len(f.PowerWords))*0.3 - float64(f.VocalFillerCount)*0.4
			},
		},
		{
			Key:    "depth",
			Name:   "Depth",
			Weight: 0.18,
			Tip:    `Add numbers: "reduced by 40%", "served 10K users"`,
			Score: func(f *Features) float64 {
				return math.Min(10, 3+math.Min(4, float64(f.Metrics.Words)/30)+bonus(f.HasNumbers, 2.5)+bonus(f.HasSpecifics, 0.5))
			},
		},
		{
			Key:    "vocabulary",
			Name:   "Vocabulary",
			Weight: 0.10,
			Tip:    "Use power verbs: implemented, optimized, delivered",
			Score: func(f *Features) float64 {
				return math.Min(10, 4+f.Metrics.UniqueRatio*5+math.Min(2, float64(len(f.PowerWords))*0.3))
			},
		},
		{
			Key:    "conciseness",
			Name:   "Conciseness",
			Weight: 0.07,
			Tip:    "Aim for 120-180 words, be precise",
			Score: func(f *Features) float64 {
				ideal := 150.0
				if f.QuestionType == "Technical" {
					ideal = 200
				}
				return math.Max(3, 10-math.Abs(float64(f.Metrics.Words)-ideal)/ideal*5)
			},
		},
		{
			Key:    "enthusiasm",
			Name:   "Enthusiasm",
			Weight: 0.07,
			Tip:    "Show more passion, energy is contagious in interviews",
			Score: func(f *Features) float64 {
				return math.Min(10, 5+float64(len(f.PowerWords))*0.3+bonus(f.Exclaims, 1)+float64(f.PositiveWords)*0.4)
			},
		},
	},
	Grades: []GradeBand{
		{88, "A+"},
		{80, "A"},
		{73, "B+"},
		{65, "B"},
		{55, "C+"},
		{45, "C"},
	},
	FallbackGrade: "D",
}

func bonus(ok bool, v float64) float64 {
	if ok {
		return v
	}
	return 0
}
