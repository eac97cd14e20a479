package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ai-interview-eval-service/internal/export"
	scorermcp "ai-interview-eval-service/internal/mcp"
	"ai-interview-eval-service/internal/questions"
	"ai-interview-eval-service/internal/schema"
	"ai-interview-eval-service/internal/scoring"
	"ai-interview-eval-service/internal/service/practice"
	"ai-interview-eval-service/internal/store"
)

func (c *cli) scoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [answer...]",
		Short: "Score an answer given as arguments, with --file, or on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := cmd.Flags()
			modeName, _ := f.GetString("mode")
			mode, ok := scoring.ModeByName(modeName)
			if !ok {
				return fmt.Errorf("unknown mode %q: must be behavioral or voice", modeName)
			}
			file, _ := f.GetString("file")
			text, err := readAnswer(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			q := practice.Question{}
			q.Text, _ = f.GetString("question")
			q.Type, _ = f.GetString("type")
			duration, _ := f.GetInt("duration")
			save, _ := f.GetBool("save")

			if !save {
				ev := scoring.Evaluate(text, q.Type, mode)
				if ev == nil {
					return fmt.Errorf("%w: at least %d words are needed", scoring.ErrInsufficientInput, mode.MinWords)
				}
				if c.jsonOutput() {
					return writeJSON(c.out, ev)
				}
				return writeEvaluation(c.out, ev, "")
			}

			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var res *practice.Result
			if mode == scoring.Voice {
				res, err = svc.EvaluateVoice(cmd.Context(), practice.TranscriptRequest{Question: q, Transcript: text, DurationSecs: duration})
			} else {
				res, err = svc.EvaluateBehavioral(cmd.Context(), practice.AnswerRequest{Question: q, Answer: text, DurationSecs: duration})
			}
			if err != nil {
				return err
			}
			if c.jsonOutput() {
				return writeJSON(c.out, res)
			}
			return writeEvaluation(c.out, res.Evaluation, res.Record.ID)
		},
	}
	cmd.Flags().String("mode", scoring.ModeBehavioral, "Scoring mode: behavioral or voice")
	cmd.Flags().StringP("file", "f", "", "Read the answer from a file (- for stdin)")
	cmd.Flags().String("question", "", "Question the answer responds to")
	cmd.Flags().StringP("type", "t", "", "Question type, e.g. HR, Behavioral, Technical")
	cmd.Flags().Int("duration", 0, "Answer duration in seconds")
	cmd.Flags().Bool("save", false, "Store the evaluation in the session history")
	return cmd
}

// readAnswer picks the answer text from file, then args, then stdin.
func readAnswer(stdin io.Reader, file string, args []string) (string, error) {
	switch {
	case file == "-":
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read answer: %w", err)
		}
		return string(b), nil
	case len(args) > 0:
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read answer from stdin: %w", err)
	}
	return string(b), nil
}

func (c *cli) minuteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minute [transcript...]",
		Short: "Score one minute of speech for pace and filler words",
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("file")
			text, err := readAnswer(cmd.InOrStdin(), file, args)
			if err != nil {
				return err
			}
			if scoring.WordCount(text) == 0 {
				return scoring.ErrInsufficientInput
			}
			minute, _ := cmd.Flags().GetInt("minute")
			if minute <= 0 {
				minute = 1
			}
			ms := scoring.ScoreMinute(text, minute)
			if c.jsonOutput() {
				return writeJSON(c.out, ms)
			}
			return writeMinutes(c.out, []scoring.MinuteScore{ms})
		},
	}
	cmd.Flags().Int("minute", 1, "1-based minute number")
	cmd.Flags().StringP("file", "f", "", "Read the transcript from a file (- for stdin)")
	return cmd
}

func (c *cli) questionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List the built-in practice questions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := questions.Load()
			if err != nil {
				return err
			}
			mode, _ := cmd.Flags().GetString("mode")
			qs, err := bank.ForMode(mode)
			if err != nil {
				return err
			}
			if c.jsonOutput() {
				return writeJSON(c.out, qs)
			}
			return writeQuestions(c.out, qs)
		},
	}
	cmd.Flags().String("mode", scoring.ModeBehavioral, "Question mode: behavioral or voice")
	return cmd
}

func (c *cli) historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored sessions, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			sessionType, _ := cmd.Flags().GetString("type")
			limit, _ := cmd.Flags().GetInt("limit")
			records, err := svc.Sessions(cmd.Context(), store.Filter{SessionType: sessionType, Limit: limit})
			if err != nil {
				return err
			}
			if c.jsonOutput() {
				if records == nil {
					records = []store.Record{}
				}
				return writeJSON(c.out, records)
			}
			return writeHistory(c.out, records)
		},
	}
	cmd.Flags().StringP("type", "t", "", "Only sessions of this type: behavioral or voice")
	cmd.Flags().IntP("limit", "l", store.DefaultLimit, "Maximum number of sessions")
	return cmd
}

func (c *cli) analyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Summarize progress across stored sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			summary, err := svc.Analytics(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOutput() {
				return writeJSON(c.out, summary)
			}
			return writeAnalytics(c.out, summary)
		},
	}
}

func (c *cli) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			if err := svc.DeleteSession(cmd.Context(), args[0]); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("session %s: %w", args[0], err)
				}
				return err
			}
			_, err = fmt.Fprintf(c.out, "Deleted session %s\n", args[0])
			return err
		},
	}
}

func (c *cli) exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored sessions and minute scores to Parquet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			records, err := svc.Sessions(cmd.Context(), store.Filter{Limit: c.v.GetInt("capacity")})
			if err != nil {
				return err
			}
			dir, _ := cmd.Flags().GetString("dir")
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create export dir: %w", err)
			}
			sessionsPath, minutesPath, err := export.WriteDir(records, dir)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(c.out, "Exported %d sessions to %s and %s\n", len(records), sessionsPath, minutesPath)
			return err
		},
	}
	cmd.Flags().StringP("dir", "d", ".", "Directory for the Parquet files")
	return cmd
}

func (c *cli) mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the scorer as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bank, err := questions.Load()
			if err != nil {
				return err
			}
			svc, closeFn, err := c.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return scorermcp.Serve(cmd.Context(), bank, svc)
		},
	}
}

func (c *cli) schemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [name]",
		Short: "List the JSON schemas or print one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, err := schema.New()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				for _, name := range v.Names() {
					if _, err := fmt.Fprintln(c.out, name); err != nil {
						return err
					}
				}
				return nil
			}
			doc, ok := v.Document(args[0])
			if !ok {
				return fmt.Errorf("unknown schema %q", args[0])
			}
			_, err = fmt.Fprintf(c.out, "%s\n", doc)
			return err
		},
	}
}
