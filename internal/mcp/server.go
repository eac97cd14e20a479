// Package mcp exposes the answer scorer, the question bank and the stored
// practice history as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"ai-interview-eval-service/internal/analytics"
	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/store"
)

// History reads stored practice sessions.
type History interface {
	Sessions(ctx context.Context, f store.Filter) ([]store.Record, error)
	Analytics(ctx context.Context) (*analytics.Summary, error)
}

// NewMCPServer configures the scorer MCP server without starting it. history
// may be nil, in which case the history tools are not registered.
func NewMCPServer(bank *questions.Bank, history History) *server.MCPServer {
	s := server.NewMCPServer(
		"Interview Answer Scorer",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{bank: bank, history: history}

	s.AddTool(mcp.NewTool("evaluate_answer",
		mcp.WithDescription("Score an interview answer on STAR structure, clarity, confidence and related dimensions. Nothing is stored."),
		mcp.WithString("answer", mcp.Description("The answer text or speech transcript."), mcp.Required()),
		mcp.WithString("mode", mcp.Description("Scoring mode. Defaults to 'behavioral'."), mcp.Enum(scoring.ModeBehavioral, scoring.ModeVoice)),
		mcp.WithString("question_type", mcp.Description("Question category, e.g. HR, Behavioral, Technical.")),
	), h.handleEvaluateAnswer)

	s.AddTool(mcp.NewTool("score_minute",
		mcp.WithDescription("Score one minute of spoken answer for pace and filler words."),
		mcp.WithString("transcript", mcp.Description("Words spoken during the minute."), mcp.Required()),
		mcp.WithNumber("minute", mcp.Description("1-based minute number. Defaults to 1.")),
	), h.handleScoreMinute)

	s.AddTool(mcp.NewTool("list_questions",
		mcp.WithDescription("List the built-in practice questions for a mode."),
		mcp.WithString("mode", mcp.Description("Question mode. Defaults to 'behavioral'."), mcp.Enum(scoring.ModeBehavioral, scoring.ModeVoice)),
	), h.handleListQuestions)

	if history != nil {
		s.AddTool(mcp.NewTool("session_history",
			mcp.WithDescription("List stored practice sessions, newest first."),
			mcp.WithString("session_type", mcp.Description("Filter by session type."), mcp.Enum(scoring.ModeBehavioral, scoring.ModeVoice)),
			mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 50.")),
		), h.handleSessionHistory)

		s.AddTool(mcp.NewTool("progress_analytics",
			mcp.WithDescription("Summarize practice progress: averages, 30-day trend, streak and filler totals."),
		), h.handleProgressAnalytics)
	}

	return s
}

// Serve runs the MCP server over stdio until the client disconnects.
func Serve(_ context.Context, bank *questions.Bank, history History) error {
	return server.ServeStdio(NewMCPServer(bank, history))
}

type toolHandler struct {
	bank    *questions.Bank
	history History
}

func (h *toolHandler) handleEvaluateAnswer(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	answer := request.GetString("answer", "")
	modeName := request.GetString("mode", scoring.ModeBehavioral)

	mode, ok := scoring.ModeByName(modeName)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q", modeName)), nil
	}

	ev := scoring.Evaluate(answer, request.GetString("question_type", ""), mode)
	if ev == nil {
		return mcp.NewToolResultError(fmt.Sprintf("%v: need at least %d words", scoring.ErrInsufficientInput, max(mode.MinWords, 1))), nil
	}
	return jsonResult(ev)
}

func (h *toolHandler) handleScoreMinute(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	transcript := request.GetString("transcript", "")
	if scoring.WordCount(transcript) == 0 {
		return mcp.NewToolResultError("transcript is required"), nil
	}
	minute := request.GetInt("minute", 1)
	if minute < 1 {
		return mcp.NewToolResultError("minute must be at least 1"), nil
	}
	return jsonResult(scoring.ScoreMinute(transcript, minute))
}

func (h *toolHandler) handleListQuestions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	qs, err := h.bank.ForMode(request.GetString("mode", scoring.ModeBehavioral))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(qs)
}

func (h *toolHandler) handleSessionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := h.history.Sessions(ctx, store.Filter{
		SessionType: request.GetString("session_type", ""),
		Limit:       request.GetInt("limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return jsonResult(records)
}

func (h *toolHandler) handleProgressAnalytics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.history.Analytics(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("analytics failed: %v", err)), nil
	}
	if summary == nil {
		return mcp.NewToolResultText("no sessions stored yet"), nil
	}
	return jsonResult(summary)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
