package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/models"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/store"
)

func validRecord() store.Record {
	return store.Record{
		ID:           "0b6f8c1e-51a4-4bd2-9d0e-7f3c2b1a9e44",
		CreatedAt:    "2026-03-14T09:30:00Z",
		SessionType:  "voice",
		QuestionText: "Where do you see yourself in 5 years?",
		QuestionType: "HR",
		OverallScore: 64.2,
		Grade:        "C+",
		DurationSecs: 90,
		WordCount:    180,
		DimScores:    map[string]float64{"clarity": 70},
		MinuteLogs: []scoring.MinuteScore{
			{Minute: 1, Score: 77, WordsPerMinute: 120, Issues: []string{}, Label: scoring.LabelOK},
		},
	}
}

func TestNew_CompilesAllSchemas(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.Equal(t, []string{
		models.EventEvaluationCompleted,
		models.EventMinuteScored,
		store.RecordSchema,
	}, v.Names())

	doc, ok := v.Document(store.RecordSchema)
	require.True(t, ok)
	var parsed map[string]any
	require.NoError(t, json.Unmarshal(doc, &parsed))
	assert.Equal(t, store.RecordSchema, parsed["title"])
}

func TestValidate_Record(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	assert.NoError(t, v.Validate(store.RecordSchema, validRecord()))

	tests := []struct {
		name   string
		mutate func(*store.Record)
	}{
		{"overall above range", func(r *store.Record) { r.OverallScore = 120 }},
		{"negative overall", func(r *store.Record) { r.OverallScore = -1 }},
		{"unknown session type", func(r *store.Record) { r.SessionType = "mock" }},
		{"empty grade", func(r *store.Record) { r.Grade = "" }},
		{"bad timestamp", func(r *store.Record) { r.CreatedAt = "last tuesday" }},
		{"null minute logs", func(r *store.Record) { r.MinuteLogs = nil }},
		{"star phases above four", func(r *store.Record) { r.STARFulfilled = 5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := validRecord()
			tt.mutate(&rec)
			err := v.Validate(store.RecordSchema, rec)
			assert.Error(t, err)
		})
	}
}

func TestValidate_Events(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	minute := &models.MinuteScored{
		EventType:   models.EventMinuteScored,
		RecordingID: "rec-1",
		UserID:      "guest",
		Timestamp:   1760000000000,
		Score:       scoring.ScoreMinute("we shipped the new billing service to production last week", 1),
	}
	assert.NoError(t, v.Validate(models.EventMinuteScored, minute))

	eval := &models.EvaluationCompleted{
		EventType:    models.EventEvaluationCompleted,
		SessionID:    "s-1",
		SessionType:  "behavioral",
		QuestionType: "Leadership",
		Overall:      81,
		Grade:        "B",
		DimScores:    map[string]float64{"clarity": 100},
	}
	assert.NoError(t, v.Validate(models.EventEvaluationCompleted, eval))

	eval.DimScores = nil
	assert.Error(t, v.Validate(models.EventEvaluationCompleted, eval))
}

func TestValidate_UnknownSchema(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	err = v.Validate("nope", struct{}{})
	assert.ErrorContains(t, err, "unknown schema")
}

func TestValidate_ErrorListsLocations(t *testing.T) {
	v, err := New()
	require.NoError(t, err)

	rec := validRecord()
	rec.OverallScore = 101
	err = v.Validate(store.RecordSchema, rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/overall_score")
}
