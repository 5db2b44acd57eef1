package main

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/session"
)

func mcpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve interview tools over MCP on stdio",
		Long: `Mcp exposes the interview engine as Model Context Protocol tools on
stdin/stdout, so MCP clients can start sessions, submit answers, and
inspect progress. Sessions live in process memory for the lifetime of
the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, _ := cmd.Flags().GetString("backend")
			model, _ := cmd.Flags().GetString("model")
			dbPath, _ := cmd.Flags().GetString("db")

			engine, err := buildLocalEngine(localOptions{
				backend: backend,
				model:   model,
				dbPath:  dbPath,
			}, quietLogger())
			if err != nil {
				return err
			}
			defer func() { _ = engine.close() }()

			return server.ServeStdio(newMCPServer(engine))
		},
	}
	cmd.Flags().String("backend", "anthropic", "Generation backend (script, anthropic, or openai)")
	cmd.Flags().String("model", "", "Model override for hosted backends")
	cmd.Flags().String("db", "parley.db", "Corpus database to draw reference questions from")
	return cmd
}

func newMCPServer(engine *localEngine) *server.MCPServer {
	s := server.NewMCPServer("parley", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcp.NewTool("interview_start",
		mcp.WithDescription("Start a mock interview session and get the interviewer's opening line."),
		mcp.WithString("job_role", mcp.Required(), mcp.Description("Role the candidate is interviewing for")),
		mcp.WithString("company", mcp.Description("Optional target company")),
		mcp.WithString("college", mcp.Description("Optional target institution for aspirant tracks")),
		mcp.WithString("resume_text", mcp.Description("Optional resume text to steer questions")),
		mcp.WithString("language", mcp.Description("Interview language, defaults to English")),
		mcp.WithBoolean("email_mode", mcp.Description("Skip the greeting and open with a fixed question")),
		mcp.WithNumber("min_questions", mcp.Description("Substantive-question floor before a graceful close")),
	), engine.handleStart)

	s.AddTool(mcp.NewTool("interview_turn",
		mcp.WithDescription("Submit the candidate's answer and get feedback plus the next question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to advance")),
		mcp.WithString("answer", mcp.Required(), mcp.Description("The candidate's answer to the pending question")),
	), engine.handleTurn)

	s.AddTool(mcp.NewTool("interview_status",
		mcp.WithDescription("Inspect a session: status, question count, and the pending question."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session to inspect")),
	), engine.handleStatus)

	return s
}

func (e *localEngine) handleStart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobRole, err := req.RequireString("job_role")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	profile := session.Profile{
		JobRole:      jobRole,
		Company:      req.GetString("company", ""),
		College:      req.GetString("college", ""),
		ResumeText:   req.GetString("resume_text", ""),
		Language:     req.GetString("language", ""),
		EmailMode:    req.GetBool("email_mode", false),
		MinQuestions: req.GetInt("min_questions", 0),
	}
	profile.HasResume = profile.ResumeText != ""

	sess, out, err := e.manager.Start(ctx, profile)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return toolJSON(map[string]any{
		"session_id": sess.ID,
		"question":   out.NextQuestion,
		"state":      out.State,
	})
}

func (e *localEngine) handleTurn(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	answer, err := req.RequireString("answer")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, out, err := e.manager.Advance(ctx, id, answer)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := map[string]any{
		"session_id":          sess.ID,
		"feedback":            out.Feedback,
		"score":               out.Score,
		"is_correct":          out.IsCorrectAnswer,
		"next_question":       out.NextQuestion,
		"is_interview_over":   out.IsInterviewOver,
		"real_question_count": out.RealQuestionCount,
		"state":               out.State,
	}
	if out.IsDisqualified {
		resp["is_disqualified"] = true
	}
	if out.IsCurrentAffairs {
		resp["current_affairs_topic"] = out.CurrentAffairsTopic
		resp["current_affairs_category"] = out.CurrentAffairsCategory
	}
	if len(out.ReferenceQuestionIDs) > 0 {
		resp["reference_question_ids"] = out.ReferenceQuestionIDs
	}
	if out.HRScores != nil {
		resp["hr_scores"] = out.HRScores
	}
	return toolJSON(resp)
}

func (e *localEngine) handleStatus(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sess, err := e.sessions.Get(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	resp := map[string]any{
		"session_id": sess.ID,
		"status":     sess.Status,
		"job_role":   sess.Profile.JobRole,
		"turns":      len(sess.History),
		"created_at": sess.CreatedAt,
	}
	if sess.Pending != nil {
		resp["pending_question"] = sess.Pending.Text
	}
	return toolJSON(resp)
}

// toolJSON wraps a value as a JSON text result.
func toolJSON(v any) (*mcp.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(raw)), nil
}
