package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"ai-interview-eval-service/internal/analytics"
	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/store"
)

var (
	excellentColor = color.New(color.FgGreen, color.Bold)
	goodColor      = color.New(color.FgGreen)
	fairColor      = color.New(color.FgYellow)
	poorColor      = color.New(color.FgRed, color.Bold)
	headingColor   = color.New(color.Bold)
)

// gradeLabel colours a letter grade by its band.
func gradeLabel(grade string) string {
	switch {
	case strings.HasPrefix(grade, "A"):
		return excellentColor.Sprint(grade)
	case strings.HasPrefix(grade, "B"):
		return goodColor.Sprint(grade)
	case strings.HasPrefix(grade, "C"):
		return fairColor.Sprint(grade)
	default:
		return poorColor.Sprint(grade)
	}
}

func minuteLabel(l scoring.MinuteLabel) string {
	switch l {
	case scoring.LabelGreat:
		return goodColor.Sprint(l)
	case scoring.LabelOK:
		return fairColor.Sprint(l)
	default:
		return poorColor.Sprint(l)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func fmtScore(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

func newTable(w io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignLeft
	})
	return table
}

func render(table *tablewriter.Table, data [][]string) error {
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

func writeEvaluation(w io.Writer, ev *scoring.Evaluation, sessionID string) error {
	if _, err := fmt.Fprintf(w, "%s %s  grade %s  (%s mode)\n",
		headingColor.Sprint("Overall"), fmtScore(ev.Overall), gradeLabel(ev.Grade), ev.Mode); err != nil {
		return err
	}
	if sessionID != "" {
		if _, err := fmt.Fprintf(w, "Saved as session %s\n", sessionID); err != nil {
			return err
		}
	}

	var data [][]string
	for _, d := range ev.Dimensions {
		data = append(data, []string{d.Name, fmtScore(d.Value) + "/" + fmtScore(d.Max), strconv.Itoa(int(d.Scaled() + 0.5))})
	}
	if err := render(newTable(w, "Dimension", "Points", "Score"), data); err != nil {
		return err
	}

	phases := []struct {
		name string
		ok   bool
	}{
		{"Situation", ev.STAR.Situation},
		{"Task", ev.STAR.Task},
		{"Action", ev.STAR.Action},
		{"Result", ev.STAR.Result},
	}
	var star []string
	for _, p := range phases {
		mark := poorColor.Sprint("-")
		if p.ok {
			mark = goodColor.Sprint("+")
		}
		star = append(star, mark+p.name)
	}
	lines := []string{
		fmt.Sprintf("STAR: %s (%d/4)", strings.Join(star, " "), ev.STARFilled),
		fmt.Sprintf("Words: %d  Fillers: %d (vocal %d)", ev.Readability.Words, ev.FillerCount, ev.VocalFillerCount),
	}
	if len(ev.Fillers) > 0 {
		var hits []string
		for _, f := range ev.Fillers {
			hits = append(hits, fmt.Sprintf("%s x%d", f.Word, f.Count))
		}
		lines = append(lines, "Filler words: "+strings.Join(hits, ", "))
	}
	if len(ev.PowerWords) > 0 {
		lines = append(lines, "Power words: "+strings.Join(ev.PowerWords, ", "))
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}

	if err := writeList(w, "Strengths", ev.Strengths, goodColor); err != nil {
		return err
	}
	return writeList(w, "Improvements", ev.Improvements, fairColor)
}

func writeList(w io.Writer, title string, items []string, c *color.Color) error {
	if len(items) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, headingColor.Sprint(title)); err != nil {
		return err
	}
	for _, item := range items {
		if _, err := fmt.Fprintf(w, "  %s %s\n", c.Sprint("*"), item); err != nil {
			return err
		}
	}
	return nil
}

func writeMinutes(w io.Writer, minutes []scoring.MinuteScore) error {
	var data [][]string
	for _, m := range minutes {
		data = append(data, []string{
			strconv.Itoa(m.Minute),
			strconv.Itoa(m.Score),
			minuteLabel(m.Label),
			strconv.Itoa(m.WordsPerMinute),
			strconv.Itoa(m.FillerCount),
			strings.Join(m.Issues, "; "),
		})
	}
	return render(newTable(w, "Minute", "Score", "Label", "WPM", "Fillers", "Issues"), data)
}

func writeQuestions(w io.Writer, qs []questions.Question) error {
	var data [][]string
	for _, q := range qs {
		data = append(data, []string{strconv.Itoa(q.ID), q.Category, q.Text})
	}
	return render(newTable(w, "ID", "Category", "Question"), data)
}

func writeHistory(w io.Writer, records []store.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}
	var data [][]string
	for _, r := range records {
		data = append(data, []string{
			r.ID,
			r.Time().Format("2006-01-02 15:04"),
			r.SessionType,
			r.QuestionType,
			fmtScore(r.OverallScore),
			gradeLabel(r.Grade),
			strconv.Itoa(r.WordCount),
			strconv.Itoa(r.FillerCount),
		})
	}
	return render(newTable(w, "ID", "Date", "Type", "Question Type", "Score", "Grade", "Words", "Fillers"), data)
}

func writeAnalytics(w io.Writer, s *analytics.Summary) error {
	if s == nil {
		_, err := fmt.Fprintln(w, "No sessions recorded yet.")
		return err
	}

	types := make([]string, 0, len(s.ByType))
	for t, n := range s.ByType {
		types = append(types, fmt.Sprintf("%s %d", t, n))
	}
	sort.Strings(types)

	summary := [][]string{
		{"Total sessions", strconv.Itoa(s.TotalSessions)},
		{"Average score", fmtScore(s.AvgScore)},
		{"Best score", fmtScore(s.BestScore)},
		{"By type", strings.Join(types, ", ")},
		{"Streak (days)", strconv.Itoa(s.StreakDays)},
		{"Filler words", strconv.Itoa(s.TotalFillerWords)},
		{"Vocal fillers", strconv.Itoa(s.TotalVocalFillers)},
	}
	if err := render(newTable(w, "Metric", "Value"), summary); err != nil {
		return err
	}

	if len(s.DimAvgs) > 0 {
		dims := make([]string, 0, len(s.DimAvgs))
		for d := range s.DimAvgs {
			dims = append(dims, d)
		}
		sort.Strings(dims)
		var data [][]string
		for _, d := range dims {
			data = append(data, []string{d, strconv.Itoa(s.DimAvgs[d])})
		}
		if err := render(newTable(w, "Dimension", "Average"), data); err != nil {
			return err
		}
	}

	var trend [][]string
	for _, p := range s.Trend {
		trend = append(trend, []string{p.Date, fmtScore(p.AvgScore), strconv.Itoa(p.Count)})
	}
	return render(newTable(w, "Date", "Avg Score", "Sessions"), trend)
}
