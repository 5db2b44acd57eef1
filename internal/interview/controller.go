package interview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/parley-dev/parley/internal/affairs"
	"github.com/parley-dev/parley/internal/generator"
	"github.com/parley-dev/parley/internal/refselect"
)

// nopHandler is a slog.Handler that discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool { return false }

func (nopHandler) Handle(context.Context, slog.Record) error { return nil }

func (nopHandler) WithAttrs([]slog.Attr) slog.Handler { return nopHandler{} }

func (nopHandler) WithGroup(string) slog.Handler { return nopHandler{} }

// ReferenceSelector resolves example questions to steer generation.
// Exhausted sources yield an empty result, never an error.
type ReferenceSelector interface {
	Select(ctx context.Context, req refselect.Request) refselect.Result
}

// AffairsScheduler produces a current-affairs question for the session,
// or nil when generation fails or times out.
type AffairsScheduler interface {
	Produce(ctx context.Context, req affairs.Request) *affairs.Question
}

var (
	_ ReferenceSelector = (*refselect.Selector)(nil)
	_ AffairsScheduler  = (*affairs.Scheduler)(nil)
)

// Config holds the controller's continuation thresholds.
type Config struct {
	// MinQuestions is the default substantive-question minimum for
	// non-HR interviews. A per-session Input.MinQuestions overrides it.
	MinQuestions int

	// HRMinimum is the question floor for HR-mode interviews.
	HRMinimum int

	// SoftCap is where the interview ends for candidates whose recent
	// average stays at or above HighAverage, even when MinQuestions is
	// higher. The better the run, the shorter the interview.
	SoftCap int

	// ScoreWindow is how many recent scores feed the running average.
	ScoreWindow int

	LowAverage  float64
	HighAverage float64
}

func (c Config) defaults() Config {
	if c.MinQuestions <= 0 {
		c.MinQuestions = 10
	}
	if c.HRMinimum <= 0 {
		c.HRMinimum = 10
	}
	if c.SoftCap <= 0 {
		c.SoftCap = 8
	}
	if c.ScoreWindow <= 0 {
		c.ScoreWindow = 3
	}
	if c.LowAverage <= 0 {
		c.LowAverage = 4
	}
	if c.HighAverage <= 0 {
		c.HighAverage = 7
	}
	return c
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithReferenceSelector wires the reference-question selector. Without
// one, prompts carry no example questions.
func WithReferenceSelector(s ReferenceSelector) Option {
	return func(c *Controller) {
		c.selector = s
	}
}

// WithAffairsScheduler wires the current-affairs scheduler. Without one,
// no current-affairs questions are injected.
func WithAffairsScheduler(s AffairsScheduler) Option {
	return func(c *Controller) {
		c.scheduler = s
	}
}

// Controller drives the interview state machine. It holds no per-session
// state: every invocation derives its counters from the history in the
// Input, so it is safe for concurrent use across sessions.
type Controller struct {
	gen       generator.Generator
	selector  ReferenceSelector
	scheduler AffairsScheduler
	logger    *slog.Logger
	cfg       Config
}

// New builds a Controller around the given generator.
func New(gen generator.Generator, cfg Config, opts ...Option) (*Controller, error) {
	if gen == nil {
		return nil, errors.New("interview: generator is required")
	}
	c := &Controller{
		gen:    gen,
		logger: slog.New(nopHandler{}),
		cfg:    cfg.defaults(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Advance processes one candidate utterance and decides the interview's
// next move. A nil Input.Pending marks the opening call, which produces
// the first thing the interviewer says. On error no turn is appended;
// the caller re-submits the same utterance after surfacing a retry.
func (c *Controller) Advance(ctx context.Context, in Input) (*Output, error) {
	hr := isHRRole(in.JobRole)

	if in.Pending == nil {
		out := c.opening(in)
		out.IsHRInterview = hr
		return out, nil
	}

	cnt := deriveCounters(in.History, c.cfg.ScoreWindow)
	tally := deriveTally(in.History)
	transcript := strings.TrimSpace(in.Transcript)

	var (
		out *Output
		err error
	)
	switch {
	case isEndCommand(transcript):
		out = c.endRequested(in, hr, transcript, cnt.RealQuestionCount)
	case in.Pending.Type == QuestionGreeting:
		out = c.greetingReply(in, transcript)
	case in.Pending.Type == QuestionAreaSelection:
		out, err = c.areaChosen(ctx, in, hr, tally, transcript)
	default:
		if kind := classifyMeta(transcript); kind != metaNone {
			out, err = c.metaTurn(ctx, in, hr, tally, cnt, kind, transcript)
		} else {
			out, err = c.substantiveTurn(ctx, in, hr, cnt, tally, transcript)
		}
	}
	if err != nil {
		return nil, err
	}

	out.IsHRInterview = hr
	out.RealQuestionCount = cnt.RealQuestionCount
	if out.Turn != nil && scored(*out.Turn) {
		out.RealQuestionCount++
	}
	return out, nil
}

// opening produces the interviewer's first utterance. Email mode skips
// the greeting and area selection and opens with a fixed question.
func (c *Controller) opening(in Input) *Output {
	if in.EmailMode {
		return &Output{
			NextQuestion:     emailOpeningQuestion,
			NextQuestionType: QuestionGeneral,
			State:            StateQuestioning,
		}
	}
	return &Output{
		NextQuestion:     greetingText(in.JobRole),
		NextQuestionType: QuestionGreeting,
		State:            StateGreeting,
	}
}

// endRequested handles an answer that asks to stop the interview.
func (c *Controller) endRequested(in Input, hr bool, transcript string, answered int) *Output {
	turn := unscoredTurn(in.Pending, transcript)

	switch v := c.pol(in).onEndRequest(hr, answered); v {
	case verdictConclude:
		c.logger.Info("interview concluded on request", "questions", answered)
		return concludeOutput(turn, v, answered, false)
	case verdictDisqualify:
		c.logger.Info("interview disqualified", "questions", answered)
		return concludeOutput(turn, v, answered, true)
	default:
		// HR floor not reached: the request is denied and the pending
		// question re-asked.
		c.logger.Info("end request denied", "questions", answered, "floor", c.cfg.HRMinimum)
		return reaskOutput(in.Pending, turn, hrContinueNote)
	}
}

// greetingReply handles the candidate's response to the greeting.
func (c *Controller) greetingReply(in Input, transcript string) *Output {
	turn := unscoredTurn(in.Pending, transcript)

	if !isAffirmative(transcript) {
		return reaskOutput(in.Pending, turn, "No rush. Say the word when you're ready to begin.")
	}
	return &Output{
		Turn:             turn,
		NextQuestion:     areaSelectionQuestion,
		NextQuestionType: QuestionAreaSelection,
		State:            StateAreaSelection,
	}
}

// areaChosen records the candidate's focus area and asks the first
// substantive question.
func (c *Controller) areaChosen(ctx context.Context, in Input, hr bool, tally QuestionTypeTally, transcript string) (*Output, error) {
	turn := unscoredTurn(in.Pending, transcript)

	nextType := QuestionGeneral
	if hr {
		nextType = hrQuestionType(tally, in.HasResume)
	}

	area := transcript
	if strings.EqualFold(area, "anything") {
		area = ""
	}

	refs := c.references(ctx, in)
	res, err := c.generate(ctx, hr, buildTurnPrompt(promptContext{
		in:        in,
		focusArea: area,
		refs:      refs.Questions,
		nextType:  nextType,
	}), questionSchema)
	if err != nil {
		return nil, err
	}
	if res.NextQuestion == "" {
		return nil, fmt.Errorf("interview: %w: empty next question", generator.ErrInvalidOutput)
	}

	return &Output{
		Turn:                 turn,
		NextQuestion:         res.NextQuestion,
		NextQuestionType:     nextType,
		ReferenceQuestionIDs: refs.IDs,
		State:                StateQuestioning,
	}, nil
}

// metaTurn handles repeats, skips, and asides without scoring and
// without advancing the question count.
func (c *Controller) metaTurn(ctx context.Context, in Input, hr bool, tally QuestionTypeTally, cnt FlowCounters, kind metaKind, transcript string) (*Output, error) {
	turn := unscoredTurn(in.Pending, transcript)

	switch kind {
	case metaRepeat:
		return reaskOutput(in.Pending, turn, "Of course, here it is again."), nil
	case metaAside:
		return reaskOutput(in.Pending, turn, asideResponse(cnt)), nil
	}

	// Skip: supply the next substantive question immediately.
	nextType := QuestionGeneral
	if hr {
		nextType = hrQuestionType(tally, in.HasResume)
	}

	refs := c.references(ctx, in)
	res, err := c.generate(ctx, hr, buildTurnPrompt(promptContext{
		in:        in,
		focusArea: focusArea(in.History),
		refs:      refs.Questions,
		skipped:   in.Pending.Text,
		nextType:  nextType,
	}), questionSchema)
	if err != nil {
		return nil, err
	}
	if res.NextQuestion == "" {
		return nil, fmt.Errorf("interview: %w: empty next question", generator.ErrInvalidOutput)
	}

	return &Output{
		Turn:                 turn,
		Feedback:             "No problem, let's try a different one.",
		NextQuestion:         res.NextQuestion,
		NextQuestionType:     nextType,
		ReferenceQuestionIDs: refs.IDs,
		State:                StateQuestioning,
	}, nil
}

// substantiveTurn scores the answer and produces the next question. The
// quality gate decides clear cases without a generation call; everything
// else goes to the generator for lenient evaluation.
func (c *Controller) substantiveTurn(ctx context.Context, in Input, hr bool, cnt FlowCounters, tally QuestionTypeTally, transcript string) (*Output, error) {
	pending := in.Pending
	answered := cnt.RealQuestionCount + 1
	due := affairs.Due(answered)

	turn := unscoredTurn(pending, transcript)
	turn.Attempts = 1

	if gate := evaluateAnswer(transcript); gate != gateMeaningful {
		return c.gatedTurn(ctx, in, hr, tally, gate, turn, answered, due,
			appendWindow(cnt.RecentScores, 0, c.cfg.ScoreWindow))
	}

	refs, caq := c.gather(ctx, in, due)

	tallyAfter := bumpTally(tally, questionTypeOf(pending))
	nextType := QuestionGeneral
	if hr {
		nextType = hrQuestionType(tallyAfter, in.HasResume)
	}

	schema := turnSchema
	if hr {
		schema = hrTurnSchema
	}
	res, err := c.generate(ctx, hr, buildTurnPrompt(promptContext{
		in:        in,
		focusArea: focusArea(in.History),
		refs:      refs.Questions,
		question:  pending.Text,
		answer:    transcript,
		evaluate:  true,
		nextType:  nextType,
	}), schema)
	if err != nil {
		return nil, err
	}

	score := clampScore(res.Score)
	correct := res.IsCorrect
	turn.Score = score
	turn.IsCorrect = &correct

	out := &Output{
		Turn:            turn,
		Feedback:        res.Feedback,
		Score:           score,
		IsCorrectAnswer: correct,
	}
	if hr {
		out.HRScores = res.HRScores
	}

	recent := appendWindow(cnt.RecentScores, score, c.cfg.ScoreWindow)
	if v := c.pol(in).afterAnswer(hr, answered, recent); v == verdictConclude {
		c.logger.Info("interview concluded", "questions", answered, "average", average(recent))
		out.NextQuestion = closingStatement(v, answered)
		out.IsInterviewOver = true
		out.State = StateConcluding
		return out, nil
	}

	out.ReferenceQuestionIDs = refs.IDs
	out.State = StateQuestioning

	if caq != nil {
		c.logger.Debug("current-affairs question injected", "topic", caq.Topic, "category", caq.Category)
		out.NextQuestion = caq.Text
		out.NextQuestionType = QuestionCurrentAffairs
		out.IsCurrentAffairs = true
		out.CurrentAffairsTopic = caq.Topic
		out.CurrentAffairsCategory = caq.Category
		return out, nil
	}

	if res.NextQuestion == "" {
		return nil, fmt.Errorf("interview: %w: empty next question", generator.ErrInvalidOutput)
	}
	out.NextQuestion = res.NextQuestion
	out.NextQuestionType = nextType
	return out, nil
}

// gatedTurn finishes a turn whose verdict the quality gate already
// decided: score zero, incorrect, canned feedback. A generation call is
// made only when a fresh next question is still needed.
func (c *Controller) gatedTurn(ctx context.Context, in Input, hr bool, tally QuestionTypeTally, gate gateVerdict, turn *ConversationTurn, answered int, due bool, recent []int) (*Output, error) {
	feedback := noiseFeedback
	if gate == gateAdmitted {
		feedback = admittedFeedback
	}
	c.logger.Debug("answer rejected by quality gate", "admitted", gate == gateAdmitted)

	incorrect := false
	turn.Score = 0
	turn.IsCorrect = &incorrect

	out := &Output{
		Turn:     turn,
		Feedback: feedback,
	}

	if v := c.pol(in).afterAnswer(hr, answered, recent); v == verdictConclude {
		c.logger.Info("interview concluded", "questions", answered, "average", average(recent))
		out.NextQuestion = closingStatement(v, answered)
		out.IsInterviewOver = true
		out.State = StateConcluding
		return out, nil
	}

	refs, caq := c.gather(ctx, in, due)
	out.State = StateQuestioning

	if caq != nil {
		out.NextQuestion = caq.Text
		out.NextQuestionType = QuestionCurrentAffairs
		out.IsCurrentAffairs = true
		out.CurrentAffairsTopic = caq.Topic
		out.CurrentAffairsCategory = caq.Category
		return out, nil
	}

	tallyAfter := bumpTally(tally, questionTypeOf(in.Pending))
	nextType := QuestionGeneral
	if hr {
		nextType = hrQuestionType(tallyAfter, in.HasResume)
	}

	res, err := c.generate(ctx, hr, buildTurnPrompt(promptContext{
		in:        in,
		focusArea: focusArea(in.History),
		refs:      refs.Questions,
		nextType:  nextType,
	}), questionSchema)
	if err != nil {
		return nil, err
	}
	if res.NextQuestion == "" {
		return nil, fmt.Errorf("interview: %w: empty next question", generator.ErrInvalidOutput)
	}

	out.NextQuestion = res.NextQuestion
	out.NextQuestionType = nextType
	out.ReferenceQuestionIDs = refs.IDs
	return out, nil
}

// gather resolves reference questions and, when due, a current-affairs
// question. The two lookups run concurrently and are merged before any
// output is produced.
func (c *Controller) gather(ctx context.Context, in Input, due bool) (refselect.Result, *affairs.Question) {
	var (
		wg   sync.WaitGroup
		refs refselect.Result
		caq  *affairs.Question
	)

	if c.selector != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			refs = c.references(ctx, in)
		}()
	}
	if due && c.scheduler != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caq = c.scheduler.Produce(ctx, affairs.Request{
				Language: in.Language,
				JobRole:  in.JobRole,
				History:  affairsHistory(in.History, in.Pending),
			})
		}()
	}
	wg.Wait()

	c.logger.Debug("context gathered",
		"references", len(refs.Questions),
		"source", refs.Source,
		"current_affairs", caq != nil)
	return refs, caq
}

func (c *Controller) references(ctx context.Context, in Input) refselect.Result {
	if c.selector == nil {
		return refselect.Result{}
	}
	return c.selector.Select(ctx, refselect.Request{
		JobRole:       in.JobRole,
		Company:       in.Company,
		College:       in.College,
		ResumeText:    in.ResumeText,
		ExamID:        in.ExamID,
		SubcategoryID: in.SubcategoryID,
	})
}

// generate performs one structured generation call and decodes the result.
func (c *Controller) generate(ctx context.Context, hr bool, prompt string, schema json.RawMessage) (*turnResult, error) {
	system := standardSystem
	if hr {
		system = hrSystem
	}

	resp, err := c.gen.Generate(ctx, generator.Request{
		Task:   generator.TaskInterviewTurn,
		System: system,
		Prompt: prompt,
		Schema: schema,
	})
	if err != nil {
		return nil, fmt.Errorf("interview: %w", err)
	}

	var res turnResult
	if err := json.Unmarshal(resp.Raw, &res); err != nil {
		return nil, fmt.Errorf("interview: %w: %w", generator.ErrInvalidOutput, err)
	}
	return &res, nil
}

// pol resolves the effective policy for one invocation. The session's
// minimum overrides the configured default when set.
func (c *Controller) pol(in Input) policy {
	min := c.cfg.MinQuestions
	if in.MinQuestions > 0 {
		min = in.MinQuestions
	}
	return policy{
		minQuestions: min,
		hrMinimum:    c.cfg.HRMinimum,
		softCap:      c.cfg.SoftCap,
		lowAverage:   c.cfg.LowAverage,
		highAverage:  c.cfg.HighAverage,
	}
}

// isHRRole reports whether the role text marks an HR-mode interview.
func isHRRole(role string) bool {
	n := normalize(role)
	if n == "" {
		return false
	}
	for _, w := range strings.Fields(n) {
		if w == "hr" {
			return true
		}
	}
	return containsPhrase(n, []string{"human resources", "human resource"})
}

// unscoredTurn builds the completed turn for an exchange that is not
// evaluated. Scored paths fill Score and IsCorrect afterwards.
func unscoredTurn(p *PendingQuestion, answer string) *ConversationTurn {
	return &ConversationTurn{
		Question:               p.Text,
		Answer:                 answer,
		QuestionType:           questionTypeOf(p),
		IsCurrentAffairs:       p.IsCurrentAffairs,
		CurrentAffairsTopic:    p.CurrentAffairsTopic,
		CurrentAffairsCategory: p.CurrentAffairsCategory,
	}
}

func questionTypeOf(p *PendingQuestion) QuestionType {
	if p.Type == "" {
		return QuestionGeneral
	}
	return p.Type
}

// reaskOutput re-poses the pending question with a short note, keeping
// its type and current-affairs tags intact.
func reaskOutput(p *PendingQuestion, turn *ConversationTurn, note string) *Output {
	return &Output{
		Turn:                   turn,
		Feedback:               note,
		NextQuestion:           p.Text,
		NextQuestionType:       p.Type,
		IsCurrentAffairs:       p.IsCurrentAffairs,
		CurrentAffairsTopic:    p.CurrentAffairsTopic,
		CurrentAffairsCategory: p.CurrentAffairsCategory,
		State:                  stateFor(p.Type),
	}
}

// concludeOutput ends the interview with a deterministic closing line.
func concludeOutput(turn *ConversationTurn, v verdict, answered int, disqualified bool) *Output {
	state := StateConcluding
	if disqualified {
		state = StateDisqualified
	}
	return &Output{
		Turn:            turn,
		NextQuestion:    closingStatement(v, answered),
		IsInterviewOver: true,
		IsDisqualified:  disqualified,
		State:           state,
	}
}

func stateFor(t QuestionType) State {
	switch t {
	case QuestionGreeting:
		return StateGreeting
	case QuestionAreaSelection:
		return StateAreaSelection
	default:
		return StateQuestioning
	}
}

func asideResponse(cnt FlowCounters) string {
	if cnt.RealQuestionCount == 0 {
		return "We're just getting started. Let's stay with the question."
	}
	return fmt.Sprintf("You're doing fine, %d question(s) in. Let's stay with the current one.", cnt.RealQuestionCount)
}

// affairsHistory collects the topics and categories of current-affairs
// questions already posed, the pending one included.
func affairsHistory(history []ConversationTurn, pending *PendingQuestion) affairs.History {
	var h affairs.History
	for _, t := range history {
		if !t.IsCurrentAffairs {
			continue
		}
		if t.CurrentAffairsTopic != "" {
			h.Topics = append(h.Topics, t.CurrentAffairsTopic)
		}
		if t.CurrentAffairsCategory != "" {
			h.Categories = append(h.Categories, t.CurrentAffairsCategory)
		}
	}
	if pending != nil && pending.IsCurrentAffairs {
		if pending.CurrentAffairsTopic != "" {
			h.Topics = append(h.Topics, pending.CurrentAffairsTopic)
		}
		if pending.CurrentAffairsCategory != "" {
			h.Categories = append(h.Categories, pending.CurrentAffairsCategory)
		}
	}
	return h
}

// bumpTally counts the turn being completed into the HR tally.
func bumpTally(t QuestionTypeTally, qt QuestionType) QuestionTypeTally {
	switch qt {
	case QuestionResumeHR:
		t.ResumeBasedHR++
	case QuestionTechnicalHR:
		t.TechnicalResume++
	default:
		t.GeneralHR++
	}
	return t
}

// appendWindow appends a fresh score and trims to the window, without
// touching the input slice.
func appendWindow(scores []int, s, window int) []int {
	out := make([]int, 0, len(scores)+1)
	out = append(out, scores...)
	out = append(out, s)
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}

func clampScore(n int) int {
	if n < 0 {
		return 0
	}
	if n > 10 {
		return 10
	}
	return n
}
