package scoring

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// FillerHit reports how often one filler occurred in a text.
type FillerHit struct {
	Word     string         `json:"word"`
	Count    int            `json:"count"`
	Severity Severity       `json:"severity"`
	Category FillerCategory `json:"category"`
}

var patternCache sync.Map // phrase -> *regexp.Regexp

// termPattern compiles a phrase into a literal, case-folded pattern. Words are
// separated by any run of whitespace; a word boundary is required on each side
// whose edge character is a word character, so "%" matches literally while
// "um" never matches inside "umbrella".
func termPattern(phrase string) *regexp.Regexp {
	if re, ok := patternCache.Load(phrase); ok {
		return re.(*regexp.Regexp)
	}

	tokens := strings.Fields(strings.ToLower(phrase))
	quoted := make([]string, len(tokens))
	for i, t := range tokens {
		quoted[i] = regexp.QuoteMeta(t)
	}
	body := strings.Join(quoted, `\s+`)

	first, _ := utf8.DecodeRuneInString(phrase)
	last, _ := utf8.DecodeLastRuneInString(phrase)
	if isWordRune(first) {
		body = `\b` + body
	}
	if isWordRune(last) {
		body += `\b`
	}

	re := regexp.MustCompile(body)
	patternCache.Store(phrase, re)
	return re
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// CountOccurrences counts whole-word occurrences of phrase in text, ignoring
// case.
func CountOccurrences(text, phrase string) int {
	if strings.TrimSpace(phrase) == "" {
		return 0
	}
	return len(termPattern(phrase).FindAllStringIndex(strings.ToLower(text), -1))
}

// Contains reports whether phrase occurs as a whole word in text.
func Contains(text, phrase string) bool {
	if strings.TrimSpace(phrase) == "" {
		return false
	}
	return termPattern(phrase).MatchString(strings.ToLower(text))
}

// MatchTerms returns the distinct terms that occur in text, in lexicon order.
func MatchTerms(text string, terms []string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, t := range terms {
		if strings.TrimSpace(t) == "" {
			continue
		}
		if termPattern(t).MatchString(lower) {
			found = append(found, t)
		}
	}
	return found
}

// DetectFillers counts every filler of the tiered lexicon in text. Hits are
// sorted by severity times count, heaviest first; ties keep lexicon order.
func DetectFillers(text string) []FillerHit {
	lower := strings.ToLower(text)
	var hits []FillerHit
	for _, f := range Fillers {
		n := len(termPattern(f.Phrase).FindAllStringIndex(lower, -1))
		if n == 0 {
			continue
		}
		hits = append(hits, FillerHit{
			Word:     f.Phrase,
			Count:    n,
			Severity: f.Severity,
			Category: f.Category,
		})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return int(hits[i].Severity)*hits[i].Count > int(hits[j].Severity)*hits[j].Count
	})
	return hits
}

// FillerTotals sums filler occurrences overall and for the vocal category.
func FillerTotals(hits []FillerHit) (total, vocal int) {
	for _, h := range hits {
		total += h.Count
		if h.Category == CategoryVocal {
			vocal += h.Count
		}
	}
	return total, vocal
}

// STARPhases records which STAR phases an answer touched.
type STARPhases struct {
	Situation bool `json:"situation"`
	Task      bool `json:"task"`
	Action    bool `json:"action"`
	Result    bool `json:"result"`
}

// Filled counts the phases present.
func (p STARPhases) Filled() int {
	n := 0
	for _, ok := range []bool{p.Situation, p.Task, p.Action, p.Result} {
		if ok {
			n++
		}
	}
	return n
}

// Has reports whether the given phase is present.
func (p STARPhases) Has(phase Phase) bool {
	switch phase {
	case Situation:
		return p.Situation
	case Task:
		return p.Task
	case Action:
		return p.Action
	case Result:
		return p.Result
	}
	return false
}

// STARHits counts distinct indicator phrases per phase.
type STARHits map[Phase]int

// Phases collapses hit counts into presence flags.
func (h STARHits) Phases() STARPhases {
	return STARPhases{
		Situation: h[Situation] > 0,
		Task:      h[Task] > 0,
		Action:    h[Action] > 0,
		Result:    h[Result] > 0,
	}
}

// MatchSTAR counts, for each phase, how many distinct indicator phrases of
// the lexicon occur in text.
func MatchSTAR(text string, lex STARLexicon) STARHits {
	hits := make(STARHits, len(Phases))
	for _, p := range Phases {
		hits[p] = len(MatchTerms(text, lex[p]))
	}
	return hits
}
