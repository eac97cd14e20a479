package scoring

import (
	"fmt"
	"math"
	"strings"
)

// MinuteLabel is the coarse verdict shown for a minute of speech.
type MinuteLabel string

const (
	LabelGreat     MinuteLabel = "Great"
	LabelOK        MinuteLabel = "OK"
	LabelNeedsWork MinuteLabel = "NeedsWork"
)

// IdealWordsPerMinute is the speaking pace that earns a full pace score.
const IdealWordsPerMinute = 130

// MinuteScore rates one 60-second window of a live recording.
type MinuteScore struct {
	Minute           int         `json:"minute"`
	Score            int         `json:"score"`
	WordsPerMinute   int         `json:"wordsPerMinute"`
	FillerCount      int         `json:"fillerCount"`
	VocalFillerCount int         `json:"vocalFillerCount"`
	Issues           []string    `json:"issues"`
	Label            MinuteLabel `json:"label"`
}

// ScoreMinute scores the words spoken during one window. Pace counts for 35%
// and filler density for 65%.
func ScoreMinute(segment string, minute int) MinuteScore {
	wpm := len(strings.Fields(segment))
	total, vocal := FillerTotals(DetectFillers(segment))
	density := float64(total) / float64(max(wpm, 1))

	pace := math.Max(20, 100-math.Abs(float64(wpm-IdealWordsPerMinute))*0.5)
	filler := math.Max(0, 100-density*300-float64(vocal)*8)
	score := int(math.Round(pace*0.35 + filler*0.65))

	issues := []string{}
	if vocal >= 3 {
		issues = append(issues, fmt.Sprintf("%d× uhm/um heard", vocal))
	}
	if total >= 5 {
		issues = append(issues, fmt.Sprintf("%d filler words", total))
	}
	if wpm < 50 {
		issues = append(issues, "Too slow")
	} else if wpm > 200 {
		issues = append(issues, "Too fast")
	}

	return MinuteScore{
		Minute:           minute,
		Score:            score,
		WordsPerMinute:   wpm,
		FillerCount:      total,
		VocalFillerCount: vocal,
		Issues:           issues,
		Label:            minuteLabel(score),
	}
}

func minuteLabel(score int) MinuteLabel {
	switch {
	case score >= 80:
		return LabelGreat
	case score >= 60:
		return LabelOK
	default:
		return LabelNeedsWork
	}
}
