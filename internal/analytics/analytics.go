// Package analytics derives progress statistics from stored sessions.
package analytics

import (
	"math"
	"sort"
	"time"

	"ai-interview-eval-service/internal/store"
)

const (
	trendWindow = 30 * 24 * time.Hour
	maxStreak   = 365
	dayLayout   = "2006-01-02"
)

// TrendPoint is the mean score of one calendar day (UTC).
type TrendPoint struct {
	Date     string  `json:"date"`
	AvgScore float64 `json:"avg_score"`
	Count    int     `json:"count"`
}

// Summary aggregates a set of session records.
type Summary struct {
	TotalSessions     int            `json:"total_sessions"`
	AvgScore          float64        `json:"avg_score"`
	BestScore         float64        `json:"best_score"`
	ByType            map[string]int `json:"by_type"`
	Trend             []TrendPoint   `json:"trend"`
	DimAvgs           map[string]int `json:"dim_avgs"`
	StreakDays        int            `json:"streak_days"`
	TotalFillerWords  int            `json:"total_filler_words"`
	TotalVocalFillers int            `json:"total_vocal_fillers"`
}

// Compute summarizes records as of now. It returns nil when there are no
// records.
func Compute(records []store.Record, now time.Time) *Summary {
	if len(records) == 0 {
		return nil
	}
	now = now.UTC()

	s := &Summary{
		TotalSessions: len(records),
		ByType:        map[string]int{},
		Trend:         []TrendPoint{},
		DimAvgs:       map[string]int{},
	}

	var (
		sum      float64
		days     = map[string]bool{}
		trend    = map[string]*dayTotals{}
		dimSums  = map[string]float64{}
		dimCount = map[string]int{}
		cutoff   = now.Add(-trendWindow)
	)
	for i, r := range records {
		sum += r.OverallScore
		if i == 0 || r.OverallScore > s.BestScore {
			s.BestScore = r.OverallScore
		}
		s.ByType[r.SessionType]++
		s.TotalFillerWords += r.FillerCount
		s.TotalVocalFillers += r.VocalFillerCount

		if ts := r.Time(); !ts.IsZero() {
			day := ts.UTC().Format(dayLayout)
			days[day] = true
			if !ts.Before(cutoff) {
				d := trend[day]
				if d == nil {
					d = &dayTotals{}
					trend[day] = d
				}
				d.sum += r.OverallScore
				d.count++
			}
		}

		if r.SessionType == "voice" {
			for k, v := range r.DimScores {
				dimSums[k] += v
				dimCount[k]++
			}
		}
	}

	s.AvgScore = round1(sum / float64(len(records)))

	for day, d := range trend {
		s.Trend = append(s.Trend, TrendPoint{Date: day, AvgScore: round1(d.sum / float64(d.count)), Count: d.count})
	}
	sort.Slice(s.Trend, func(i, j int) bool { return s.Trend[i].Date < s.Trend[j].Date })

	for k, total := range dimSums {
		s.DimAvgs[k] = int(math.Round(total / float64(dimCount[k])))
	}

	s.StreakDays = streak(days, now)
	return s
}

type dayTotals struct {
	sum   float64
	count int
}

// streak counts consecutive practice days backward from today. A missing
// today does not break the streak; the first gap before it does.
func streak(days map[string]bool, now time.Time) int {
	n := 0
	for i := 0; i < maxStreak; i++ {
		day := now.AddDate(0, 0, -i).Format(dayLayout)
		if days[day] {
			n++
		} else if i > 0 {
			break
		}
	}
	return n
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
