package scoring

import (
	"math"
	"regexp"
	"strings"
)

var (
	sentenceSplit = regexp.MustCompile(`[.!?]+`)
	vowelCluster  = regexp.MustCompile(`[aeiou]+`)
)

// Readability holds the plain text metrics of an answer.
type Readability struct {
	Words             int     `json:"words"`
	Sentences         int     `json:"sentences"`
	Syllables         int     `json:"syllables"`
	AvgSentenceLength float64 `json:"avgSentenceLength"`
	AvgSyllables      float64 `json:"avgSyllables"`
	UniqueRatio       float64 `json:"uniqueRatio"`
	Flesch            float64 `json:"flesch"`
}

// WordCount counts whitespace-separated tokens.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Measure computes word, sentence and syllable statistics together with a
// Flesch reading-ease score clamped to [0,100].
func Measure(text string) Readability {
	words := strings.Fields(text)
	wc := len(words)

	sentences := 0
	for _, frag := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(frag) != "" {
			sentences++
		}
	}

	syllables := 0
	distinct := make(map[string]struct{}, wc)
	for _, w := range words {
		lw := strings.ToLower(w)
		distinct[lw] = struct{}{}
		syllables += max(1, len(vowelCluster.FindAllStringIndex(lw, -1)))
	}

	avgSen := float64(wc) / float64(max(sentences, 1))
	avgSyl := float64(syllables) / float64(max(wc, 1))

	return Readability{
		Words:             wc,
		Sentences:         sentences,
		Syllables:         syllables,
		AvgSentenceLength: avgSen,
		AvgSyllables:      avgSyl,
		UniqueRatio:       float64(len(distinct)) / float64(max(wc, 1)),
		Flesch:            clamp(206.835-1.015*avgSen-84.6*avgSyl, 0, 100),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
