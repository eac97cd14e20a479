package mcp_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/analytics"
	mcp_internal "ai-interview-eval-service/internal/mcp"
	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/store"
)

type fakeHistory struct {
	records []store.Record
	filter  store.Filter
}

func (f *fakeHistory) Sessions(_ context.Context, flt store.Filter) ([]store.Record, error) {
	f.filter = flt
	return f.records, nil
}

func (f *fakeHistory) Analytics(_ context.Context) (*analytics.Summary, error) {
	if len(f.records) == 0 {
		return nil, nil
	}
	return &analytics.Summary{TotalSessions: len(f.records)}, nil
}

func call(t *testing.T, hist mcp_internal.History, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	bank, err := questions.Load()
	require.NoError(t, err)

	s := mcp_internal.NewMCPServer(bank, hist)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "tool failures are reported in the result, not as errors")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestEvaluateAnswer(t *testing.T) {
	res := call(t, nil, "evaluate_answer", map[string]any{
		"answer": "I implemented a caching layer that reduced latency by 40% for our users",
		"mode":   "behavioral",
	})
	require.False(t, res.IsError)

	var ev scoring.Evaluation
	require.NoError(t, json.Unmarshal([]byte(text(res)), &ev))
	assert.Equal(t, scoring.ModeBehavioral, ev.Mode)
	assert.True(t, ev.HasNumbers)
	assert.Contains(t, ev.PowerWords, "implemented")
}

func TestEvaluateAnswer_Errors(t *testing.T) {
	res := call(t, nil, "evaluate_answer", map[string]any{"answer": "too short"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "10 words")

	res = call(t, nil, "evaluate_answer", map[string]any{"answer": "anything", "mode": "poetry"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(res), "unknown mode")
}

func TestScoreMinute(t *testing.T) {
	res := call(t, nil, "score_minute", map[string]any{
		"transcript": "so um we shipped the release and um it went well",
		"minute":     3.0,
	})
	require.False(t, res.IsError)

	var ms scoring.MinuteScore
	require.NoError(t, json.Unmarshal([]byte(text(res)), &ms))
	assert.Equal(t, 3, ms.Minute)
	assert.Equal(t, 11, ms.WordsPerMinute)

	res = call(t, nil, "score_minute", map[string]any{"transcript": "   "})
	assert.True(t, res.IsError)
}

func TestListQuestions(t *testing.T) {
	res := call(t, nil, "list_questions", map[string]any{"mode": "voice"})
	require.False(t, res.IsError)

	var qs []questions.Question
	require.NoError(t, json.Unmarshal([]byte(text(res)), &qs))
	assert.Len(t, qs, 5)
}

func TestHistoryTools(t *testing.T) {
	hist := &fakeHistory{records: []store.Record{{ID: "a", SessionType: "voice"}}}

	res := call(t, hist, "session_history", map[string]any{"session_type": "voice", "limit": 5.0})
	require.False(t, res.IsError)
	assert.Equal(t, store.Filter{SessionType: "voice", Limit: 5}, hist.filter)
	assert.Contains(t, text(res), `"id": "a"`)

	res = call(t, hist, "progress_analytics", nil)
	require.False(t, res.IsError)
	assert.Contains(t, text(res), `"total_sessions": 1`)
}

func TestHistoryTools_Empty(t *testing.T) {
	res := call(t, &fakeHistory{}, "progress_analytics", nil)
	assert.Equal(t, "no sessions stored yet", text(res))
}

func TestHistoryToolsAbsentWithoutStore(t *testing.T) {
	bank, err := questions.Load()
	require.NoError(t, err)

	s := mcp_internal.NewMCPServer(bank, nil)
	assert.Nil(t, s.GetTool("session_history"))
	assert.NotNil(t, s.GetTool("evaluate_answer"))
}
