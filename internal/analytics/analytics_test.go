package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/store"
)

var now = time.Date(2026, 5, 20, 15, 0, 0, 0, time.UTC)

func rec(kind string, score float64, daysAgo int) store.Record {
	return store.Record{
		SessionType:  kind,
		OverallScore: score,
		CreatedAt:    now.AddDate(0, 0, -daysAgo).Format(time.RFC3339Nano),
	}
}

func TestCompute_Empty(t *testing.T) {
	assert.Nil(t, Compute(nil, now))
}

func TestCompute_Totals(t *testing.T) {
	a := rec("voice", 70, 0)
	a.FillerCount, a.VocalFillerCount = 4, 2
	b := rec("behavioral", 81.25, 1)
	b.FillerCount = 3
	c := rec("voice", 55.5, 2)
	c.FillerCount, c.VocalFillerCount = 1, 1

	s := Compute([]store.Record{a, b, c}, now)
	require.NotNil(t, s)

	assert.Equal(t, 3, s.TotalSessions)
	assert.Equal(t, 68.9, s.AvgScore)
	assert.Equal(t, 81.25, s.BestScore)
	assert.Equal(t, map[string]int{"voice": 2, "behavioral": 1}, s.ByType)
	assert.Equal(t, 8, s.TotalFillerWords)
	assert.Equal(t, 3, s.TotalVocalFillers)
}

func TestCompute_TrendWindowAndOrder(t *testing.T) {
	records := []store.Record{
		rec("voice", 80, 0),
		rec("voice", 61, 0),
		rec("voice", 40, 3),
		rec("voice", 99, 31),
	}

	s := Compute(records, now)
	require.NotNil(t, s)

	assert.Equal(t, []TrendPoint{
		{Date: "2026-05-17", AvgScore: 40, Count: 1},
		{Date: "2026-05-20", AvgScore: 70.5, Count: 2},
	}, s.Trend)
}

func TestCompute_DimAveragesVoiceOnly(t *testing.T) {
	v1 := rec("voice", 70, 0)
	v1.DimScores = map[string]float64{"clarity": 70, "tone": 50}
	v2 := rec("voice", 70, 0)
	v2.DimScores = map[string]float64{"clarity": 75}
	b := rec("behavioral", 70, 0)
	b.DimScores = map[string]float64{"clarity": 0, "length": 100}

	s := Compute([]store.Record{v1, v2, b}, now)
	require.NotNil(t, s)

	assert.Equal(t, map[string]int{"clarity": 73, "tone": 50}, s.DimAvgs)
}

func TestCompute_Streak(t *testing.T) {
	tests := []struct {
		name    string
		daysAgo []int
		want    int
	}{
		{"today only", []int{0}, 1},
		{"three consecutive", []int{0, 1, 2}, 3},
		{"today missing keeps streak", []int{1, 2}, 2},
		{"gap breaks", []int{0, 1, 3, 4}, 2},
		{"gap before yesterday", []int{2, 3}, 0},
		{"duplicates count once", []int{0, 0, 1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []store.Record
			for _, d := range tt.daysAgo {
				records = append(records, rec("voice", 50, d))
			}
			s := Compute(records, now)
			require.NotNil(t, s)
			assert.Equal(t, tt.want, s.StreakDays)
		})
	}
}

func TestCompute_MalformedTimestampStillCounted(t *testing.T) {
	r := store.Record{SessionType: "voice", OverallScore: 42, CreatedAt: "not-a-date"}

	s := Compute([]store.Record{r}, now)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.TotalSessions)
	assert.Empty(t, s.Trend)
	assert.Equal(t, 0, s.StreakDays)
}
