// Package export writes stored practice sessions to Parquet files for
// offline analysis.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"ai-interview-eval-service/internal/store"
)

// File names written by WriteDir.
const (
	SessionsFile = "sessions.parquet"
	MinutesFile  = "minute_scores.parquet"
)

// SessionRow is one stored session, flattened.
type SessionRow struct {
	SessionID        string    `parquet:"session_id,snappy"`
	CreatedAt        time.Time `parquet:"created_at,snappy"`
	SessionType      string    `parquet:"session_type,snappy,dict"`
	QuestionText     string    `parquet:"question_text,snappy"`
	QuestionType     string    `parquet:"question_type,snappy,dict"`
	OverallScore     float64   `parquet:"overall_score,snappy"`
	Grade            string    `parquet:"grade,snappy,dict"`
	DurationSecs     int32     `parquet:"duration_secs,snappy"`
	WordCount        int32     `parquet:"word_count,snappy"`
	FillerCount      int32     `parquet:"filler_count,snappy"`
	VocalFillerCount int32     `parquet:"vocal_filler_count,snappy"`
	STARFulfilled    int32     `parquet:"star_fulfilled,snappy"`

	// DimScores is the JSON-encoded dimension map (nullable when empty)
	DimScores *string `parquet:"dim_scores,optional,snappy"`
}

// MinuteRow is one per-minute score of a voice session.
type MinuteRow struct {
	SessionID        string `parquet:"session_id,snappy"`
	Minute           int32  `parquet:"minute,snappy"`
	Score            int32  `parquet:"score,snappy"`
	WordsPerMinute   int32  `parquet:"words_per_minute,snappy"`
	FillerCount      int32  `parquet:"filler_count,snappy"`
	VocalFillerCount int32  `parquet:"vocal_filler_count,snappy"`
	Label            string `parquet:"label,snappy,dict"`
	Issues           string `parquet:"issues,snappy"`
}

// SessionRows flattens records. Records with a malformed timestamp get the
// zero time.
func SessionRows(records []store.Record) ([]SessionRow, error) {
	rows := make([]SessionRow, 0, len(records))
	for _, r := range records {
		row := SessionRow{
			SessionID:        r.ID,
			CreatedAt:        r.Time(),
			SessionType:      r.SessionType,
			QuestionText:     r.QuestionText,
			QuestionType:     r.QuestionType,
			OverallScore:     r.OverallScore,
			Grade:            r.Grade,
			DurationSecs:     int32(r.DurationSecs),
			WordCount:        int32(r.WordCount),
			FillerCount:      int32(r.FillerCount),
			VocalFillerCount: int32(r.VocalFillerCount),
			STARFulfilled:    int32(r.STARFulfilled),
		}
		if len(r.DimScores) > 0 {
			b, err := json.Marshal(r.DimScores)
			if err != nil {
				return nil, fmt.Errorf("encode dim scores of %s: %w", r.ID, err)
			}
			s := string(b)
			row.DimScores = &s
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// MinuteRows flattens the minute logs of every record.
func MinuteRows(records []store.Record) []MinuteRow {
	var rows []MinuteRow
	for _, r := range records {
		for _, m := range r.MinuteLogs {
			rows = append(rows, MinuteRow{
				SessionID:        r.ID,
				Minute:           int32(m.Minute),
				Score:            int32(m.Score),
				WordsPerMinute:   int32(m.WordsPerMinute),
				FillerCount:      int32(m.FillerCount),
				VocalFillerCount: int32(m.VocalFillerCount),
				Label:            string(m.Label),
				Issues:           strings.Join(m.Issues, "; "),
			})
		}
	}
	return rows
}

// WriteRows writes rows as one Parquet file to w. The schema is inferred
// from the struct tags of T.
func WriteRows[T any](w io.Writer, rows []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(rows); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteDir writes SessionsFile and MinutesFile into dir and returns their
// paths.
func WriteDir(records []store.Record, dir string) (sessionsPath, minutesPath string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create export dir: %w", err)
	}

	sessions, err := SessionRows(records)
	if err != nil {
		return "", "", err
	}
	sessionsPath = filepath.Join(dir, SessionsFile)
	if err := writeFile(sessionsPath, sessions); err != nil {
		return "", "", err
	}

	minutesPath = filepath.Join(dir, MinutesFile)
	if err := writeFile(minutesPath, MinuteRows(records)); err != nil {
		return "", "", err
	}
	return sessionsPath, minutesPath, nil
}

func writeFile[T any](path string, rows []T) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := WriteRows(file, rows); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
