package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/internal/interview"
	"github.com/parley-dev/parley/internal/session"
)

func practiceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Run a mock interview in the terminal",
		Long: `Practice runs an interview directly in the terminal, no server needed.
The default script backend works offline with canned questions; pass
--backend anthropic (with ANTHROPIC_API_KEY set) for real generation.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			backend, _ := cmd.Flags().GetString("backend")
			model, _ := cmd.Flags().GetString("model")
			dbPath, _ := cmd.Flags().GetString("db")
			role, _ := cmd.Flags().GetString("role")
			email, _ := cmd.Flags().GetBool("email")

			profile := session.Profile{JobRole: role, EmailMode: email}
			if profile.JobRole == "" {
				if err := promptProfile(&profile); err != nil {
					if errors.Is(err, huh.ErrUserAborted) {
						return nil
					}
					return err
				}
			}
			profile.HasResume = strings.TrimSpace(profile.ResumeText) != ""

			engine, err := buildLocalEngine(localOptions{
				backend: backend,
				model:   model,
				dbPath:  dbPath,
			}, quietLogger())
			if err != nil {
				return err
			}
			defer func() { _ = engine.close() }()

			return runPractice(cmd.Context(), engine.manager, profile)
		},
	}
	cmd.Flags().String("backend", "script", "Generation backend (script, anthropic, or openai)")
	cmd.Flags().String("model", "", "Model override for hosted backends")
	cmd.Flags().String("db", "parley.db", "Corpus database to draw reference questions from")
	cmd.Flags().String("role", "", "Job role (skips the setup form)")
	cmd.Flags().Bool("email", false, "Email-interview mode: skip the greeting and open with a fixed question")
	return cmd
}

// promptProfile collects the candidate setup interactively.
func promptProfile(p *session.Profile) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job role").
				Description("The position you want to practice for.").
				Value(&p.JobRole).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a job role is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Company").
				Description("Optional target company.").
				Value(&p.Company),
			huh.NewText().
				Title("Resume highlights").
				Description("Optional. A few pasted lines steer resume-based questions.").
				Value(&p.ResumeText),
		),
	).Run()
}

// runPractice drives the question/answer loop until the interview ends
// or the candidate aborts.
func runPractice(ctx context.Context, manager *session.Manager, profile session.Profile) error {
	sess, out, err := manager.Start(ctx, profile)
	if err != nil {
		return err
	}

	for {
		answer, err := promptAnswer(out.NextQuestion)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Println("Interview abandoned.")
				return nil
			}
			return err
		}

		next, nextOut, err := manager.Advance(ctx, sess.ID, answer)
		if err != nil {
			if errors.Is(err, session.ErrFinished) || errors.Is(err, session.ErrNotFound) {
				return err
			}
			// Generation failed; nothing was recorded. Re-ask the same
			// question with the same pending state.
			fmt.Println("\nThat didn't go through (generation failed). Same question again.")
			continue
		}
		sess, out = next, nextOut

		printFeedback(out)
		if out.IsInterviewOver {
			printSummary(sess, out)
			return nil
		}
	}
}

func promptAnswer(question string) (string, error) {
	var answer string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Interviewer").
				Description(question).
				Placeholder("Answer here; say \"end interview\" to stop early.").
				Value(&answer),
		),
	).Run()
	if err != nil {
		return "", err
	}
	return answer, nil
}

func printFeedback(out *interview.Output) {
	if out.Feedback != "" {
		fmt.Printf("\n%s\n", out.Feedback)
	}
	if out.Turn != nil && out.Turn.IsCorrect != nil {
		fmt.Printf("Score: %d/10\n", out.Score)
	}
	if out.IsCurrentAffairs {
		fmt.Printf("(current affairs: %s)\n", out.CurrentAffairsCategory)
	}
}

func printSummary(sess *session.Session, out *interview.Output) {
	// The closing statement arrives as the final "next question".
	fmt.Printf("\n%s\n", out.NextQuestion)

	if out.IsDisqualified {
		fmt.Println("\nResult: disqualified (the interview ended before the minimum was reached).")
		return
	}

	answered, total := 0, 0
	for _, t := range sess.History {
		if t.IsCorrect != nil {
			answered++
			total += t.Score
		}
	}
	if answered > 0 {
		fmt.Printf("\nQuestions answered: %d, average score: %.1f/10\n",
			answered, float64(total)/float64(answered))
	}
}
