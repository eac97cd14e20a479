package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-interview-eval-service/internal/export"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/store"
)

const answer = "When I was working on the payments team our checkout latency was too high. " +
	"I was responsible for fixing it, so I decided to profile the service and implemented a caching layer. " +
	"As a result we reduced latency by 40% and improved conversion for our users."

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--color=false"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func sqliteArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--store", "sqlite", "--dsn", "file:" + filepath.Join(t.TempDir(), "sessions.db")}
}

func TestScore(t *testing.T) {
	out, err := run(t, "score", "--store", "memory", "-t", "Technical", answer)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall")
	assert.Contains(t, out, "STAR:")
	assert.Contains(t, out, "Power words:")
}

func TestScore_JSON(t *testing.T) {
	out, err := run(t, "score", "--output", "json", "--mode", "voice", answer)
	require.NoError(t, err)

	var ev scoring.Evaluation
	require.NoError(t, json.Unmarshal([]byte(out), &ev))
	assert.Equal(t, scoring.ModeVoice, ev.Mode)
	assert.NotEmpty(t, ev.Grade)
}

func TestScore_InsufficientInput(t *testing.T) {
	_, err := run(t, "score", "too short")
	assert.ErrorIs(t, err, scoring.ErrInsufficientInput)

	_, err = run(t, "score", "--mode", "poetry", answer)
	assert.Error(t, err)
}

func TestScore_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answer.txt")
	require.NoError(t, os.WriteFile(path, []byte(answer), 0o600))

	out, err := run(t, "score", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall")
}

func TestHistoryLifecycle(t *testing.T) {
	storeArgs := sqliteArgs(t)

	out, err := run(t, append(storeArgs, "history")...)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded yet.")

	out, err = run(t, append(storeArgs, "--output", "json", "score", "--save", "-t", "HR", answer)...)
	require.NoError(t, err)
	var res struct {
		Record store.Record `json:"record"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.NotEmpty(t, res.Record.ID)

	out, err = run(t, append(storeArgs, "history", "-t", "behavioral")...)
	require.NoError(t, err)
	assert.Contains(t, out, res.Record.ID)
	assert.Contains(t, out, "HR")

	out, err = run(t, append(storeArgs, "analytics")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Total sessions")

	dir := t.TempDir()
	out, err = run(t, append(storeArgs, "export", "-d", dir)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 sessions")
	assert.FileExists(t, filepath.Join(dir, export.SessionsFile))
	assert.FileExists(t, filepath.Join(dir, export.MinutesFile))

	out, err = run(t, append(storeArgs, "delete", res.Record.ID)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted session")

	_, err = run(t, append(storeArgs, "delete", res.Record.ID)...)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStoreFromEnvironment(t *testing.T) {
	t.Setenv("ANSWERSCORE_STORE", "memory")
	t.Setenv("ANSWERSCORE_DSN", "unused")

	out, err := run(t, "analytics")
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded yet.")
}

func TestMinute(t *testing.T) {
	out, err := run(t, "minute", "--minute", "3", "um so I think um we basically shipped it")
	require.NoError(t, err)
	assert.Contains(t, out, "WPM")

	_, err = run(t, "minute", "--file", "-")
	assert.ErrorIs(t, err, scoring.ErrInsufficientInput)
}

func TestQuestionsAndSchemas(t *testing.T) {
	out, err := run(t, "--output", "json", "questions", "--mode", "voice")
	require.NoError(t, err)
	var qs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &qs))
	assert.Len(t, qs, 5)

	out, err = run(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, out, store.RecordSchema)

	out, err = run(t, "schema", store.RecordSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "overall_score")

	_, err = run(t, "schema", "nope")
	assert.Error(t, err)
}

func TestInvalidOutput(t *testing.T) {
	_, err := run(t, "--output", "xml", "questions")
	assert.Error(t, err)
}
