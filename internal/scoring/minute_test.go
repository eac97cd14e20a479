package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMinute(t *testing.T) {
	tests := []struct {
		name       string
		segment    string
		wantScore  int
		wantLabel  MinuteLabel
		wantIssues []string
	}{
		{
			name:       "ideal pace no fillers",
			segment:    strings.Repeat("word ", IdealWordsPerMinute),
			wantScore:  100,
			wantLabel:  LabelGreat,
			wantIssues: []string{},
		},
		{
			name:       "vocal flood",
			segment:    "um um um um um um",
			wantScore:  13,
			wantLabel:  LabelNeedsWork,
			wantIssues: []string{"6× uhm/um heard", "6 filler words", "Too slow"},
		},
		{
			name:       "too fast",
			segment:    strings.Repeat("word ", 240),
			wantScore:  81,
			wantLabel:  LabelGreat,
			wantIssues: []string{"Too fast"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := ScoreMinute(tt.segment, 2)
			assert.Equal(t, 2, ms.Minute)
			assert.Equal(t, tt.wantScore, ms.Score)
			assert.Equal(t, tt.wantLabel, ms.Label)
			assert.Equal(t, tt.wantIssues, ms.Issues)
		})
	}
}

func TestScoreMinute_Counts(t *testing.T) {
	ms := ScoreMinute("so um I basically think uh we shipped it", 1)

	assert.Equal(t, 9, ms.WordsPerMinute)
	assert.Equal(t, 4, ms.FillerCount)
	assert.Equal(t, 2, ms.VocalFillerCount)
}

func TestMinuteLabel(t *testing.T) {
	assert.Equal(t, LabelGreat, minuteLabel(80))
	assert.Equal(t, LabelOK, minuteLabel(79))
	assert.Equal(t, LabelOK, minuteLabel(60))
	assert.Equal(t, LabelNeedsWork, minuteLabel(59))
}
