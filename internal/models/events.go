// Package models defines the payloads published for scored interview answers.
package models

import "ai-interview-eval-service/internal/scoring"

// Event types carried in the eventType field and Kafka header.
const (
	EventMinuteScored        = "interview.minute.scored"
	EventEvaluationCompleted = "interview.evaluation.completed"
)

// MinuteScored is emitted each time the live loop scores a minute window.
type MinuteScored struct {
	EventType     string              `json:"eventType"`
	RecordingID   string              `json:"recordingId"`
	UserID        string              `json:"userId"`
	Timestamp     int64               `json:"timestamp"`
	QuestionType  string              `json:"questionType,omitempty"`
	ElapsedSecs   int                 `json:"elapsedSecs"`
	Score         scoring.MinuteScore `json:"score"`
	TranscriptLen int                 `json:"transcriptWords"`
}

// EvaluationCompleted is emitted when a full answer analysis is persisted.
type EvaluationCompleted struct {
	EventType    string             `json:"eventType"`
	SessionID    string             `json:"sessionId"`
	RecordingID  string             `json:"recordingId,omitempty"`
	Timestamp    int64              `json:"timestamp"`
	SessionType  string             `json:"sessionType"`
	QuestionType string             `json:"questionType"`
	Overall      float64            `json:"overallScore"`
	Grade        string             `json:"grade"`
	WordCount    int                `json:"wordCount"`
	FillerCount  int                `json:"fillerCount"`
	DimScores    map[string]float64 `json:"dimScores"`
	BackedUp     bool               `json:"backedUp"`
}
