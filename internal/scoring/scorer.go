package scoring

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInsufficientInput is returned by callers that need an error when
// Evaluate yields no result.
var ErrInsufficientInput = errors.New("answer too short to evaluate")

var (
	quantified   = regexp.MustCompile(`\d+\s*(%|percent|x\b|times|users|hours|days|weeks|months|k\b|m\b)`)
	specifics    = regexp.MustCompile(`(for example|specifically|in particular|such as|including)`)
	digits       = regexp.MustCompile(`\d`)
	percentMarks = regexp.MustCompile(`%|\bpercent\b`)
)

// Features are the text signals every dimension scores from. They are
// computed once per evaluation.
type Features struct {
	QuestionType     string
	Metrics          Readability
	Fillers          []FillerHit
	FillerCount      int
	VocalFillerCount int
	FillerPenalty    float64
	SpeechFillers    int
	PowerWords       []string
	PositiveWords    int
	STARHits         STARHits
	STAR             STARPhases
	HasNumbers       bool
	HasSpecifics     bool
	HasDigits        bool
	HasPercent       bool
	Exclaims         bool
}

// Extract computes the features of text with the STAR and power-verb
// lexicons of mode.
func Extract(text, questionType string, mode *Mode) *Features {
	lower := strings.ToLower(text)
	fillers := DetectFillers(lower)
	total, vocal := FillerTotals(fillers)

	penalty := 0.0
	for _, h := range fillers {
		penalty += float64(h.Count) * float64(h.Severity) * 0.25
	}

	starHits := MatchSTAR(lower, mode.STAR)
	return &Features{
		QuestionType:     questionType,
		Metrics:          Measure(text),
		Fillers:          fillers,
		FillerCount:      total,
		VocalFillerCount: vocal,
		FillerPenalty:    penalty,
		SpeechFillers:    len(MatchTerms(lower, SpeechFillers)),
		PowerWords:       MatchTerms(lower, mode.PowerVerbs),
		PositiveWords:    len(MatchTerms(lower, PositiveWords)),
		STARHits:         starHits,
		STAR:             starHits.Phases(),
		HasNumbers:       quantified.MatchString(lower),
		HasSpecifics:     specifics.MatchString(lower),
		HasDigits:        digits.MatchString(lower),
		HasPercent:       percentMarks.MatchString(lower),
		Exclaims:         strings.Contains(text, "!"),
	}
}

// DimensionScore is one clamped dimension value.
type DimensionScore struct {
	Key    string  `json:"key"`
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Max    float64 `json:"max"`
	Weight float64 `json:"weight"`
}

// Scaled returns the value on a 0-100 scale.
func (d DimensionScore) Scaled() float64 {
	if d.Max == 0 {
		return 0
	}
	return d.Value * 100 / d.Max
}

// Evaluation is an immutable scoring snapshot of one answer.
type Evaluation struct {
	Mode             string           `json:"mode"`
	QuestionType     string           `json:"questionType,omitempty"`
	Overall          float64          `json:"overall"`
	Grade            string           `json:"grade"`
	Dimensions       []DimensionScore `json:"dimensions"`
	Fillers          []FillerHit      `json:"fillers"`
	FillerCount      int              `json:"fillerCount"`
	VocalFillerCount int              `json:"vocalFillerCount"`
	STAR             STARPhases       `json:"star"`
	STARFilled       int              `json:"starFilled"`
	PowerWords       []string         `json:"powerWords"`
	Readability      Readability      `json:"readability"`
	HasNumbers       bool             `json:"hasNumbers"`
	Strengths        []string         `json:"strengths"`
	Improvements     []string         `json:"improvements"`
}

// DimScores returns the 0-100 dimension scores keyed by lowercase display
// name, rounded to whole numbers.
func (e *Evaluation) DimScores() map[string]float64 {
	out := make(map[string]float64, len(e.Dimensions))
	for _, d := range e.Dimensions {
		out[strings.ToLower(d.Name)] = float64(int(d.Scaled() + 0.5))
	}
	return out
}

// Dimension looks up a dimension by key.
func (e *Evaluation) Dimension(key string) (DimensionScore, bool) {
	for _, d := range e.Dimensions {
		if d.Key == key {
			return d, true
		}
	}
	return DimensionScore{}, false
}

// Evaluate scores text under mode. It returns nil when the text is blank or
// shorter than the mode's minimum word count.
func Evaluate(text, questionType string, mode *Mode) *Evaluation {
	if strings.TrimSpace(text) == "" || WordCount(text) < max(mode.MinWords, 1) {
		return nil
	}

	f := Extract(text, questionType, mode)

	dims := make([]DimensionScore, 0, len(mode.Dimensions))
	overall := 0.0
	for _, d := range mode.Dimensions {
		v := clamp(d.Score(f), 0, mode.Max)
		ds := DimensionScore{Key: d.Key, Name: d.Name, Value: v, Max: mode.Max, Weight: d.Weight}
		dims = append(dims, ds)
		overall += d.Weight * ds.Scaled()
	}
	overall = clamp(overall, 0, 100)
	grade := mode.Grade(mode.gradeInput(overall))
	overall = round1(overall)

	strengths, improvements := Feedback(mode, dims)

	power := f.PowerWords
	if power == nil {
		power = []string{}
	}
	fillers := f.Fillers
	if fillers == nil {
		fillers = []FillerHit{}
	}

	return &Evaluation{
		Mode:             mode.Name,
		QuestionType:     questionType,
		Overall:          overall,
		Grade:            grade,
		Dimensions:       dims,
		Fillers:          fillers,
		FillerCount:      f.FillerCount,
		VocalFillerCount: f.VocalFillerCount,
		STAR:             f.STAR,
		STARFilled:       f.STAR.Filled(),
		PowerWords:       power,
		Readability:      f.Metrics,
		HasNumbers:       f.HasNumbers,
		Strengths:        strengths,
		Improvements:     improvements,
	}
}
