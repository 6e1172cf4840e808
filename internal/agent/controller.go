package agent

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/metrics"
	"github.com/noveltylab/priorart/pkg/otel"
)

// Phase is the controller's position in the session loop.
type Phase int

const (
	PhaseAgentTurn Phase = iota
	PhaseExecuting
	PhaseDone
)

// DefaultMaxTurns bounds oracle turns per session. Seven capabilities plus a
// closing answer fit well under it; the ceiling exists for oracles that loop.
const DefaultMaxTurns = 15

// Controller runs one check session end to end: oracle turn, batch execution,
// repeat, until a verdict lands, the oracle stops asking for work, or the
// turn ceiling is hit.
type Controller struct {
	oracle   Oracle
	executor *Executor
	maxTurns int
	tracer   trace.Tracer
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithMaxTurns overrides the oracle turn ceiling.
func WithMaxTurns(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.maxTurns = n
		}
	}
}

func NewController(oracle Oracle, executor *Executor, opts ...ControllerOption) *Controller {
	c := &Controller{
		oracle:   oracle,
		executor: executor,
		maxTurns: DefaultMaxTurns,
		tracer:   otel.Tracer("internal/agent"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes a full session for one idea. The returned state always carries
// a usable Summary; the error is non-nil only for oracle transport failures,
// never for capability-level degradation.
func (c *Controller) Run(ctx context.Context, idea string) (*State, error) {
	ctx, span := c.tracer.Start(ctx, "agent.run")
	defer span.End()

	st := NewState(idea)
	st.Conversation = append(st.Conversation, llm.Message{
		Role:    "user",
		Content: "Here is my invention idea: " + idea,
	})

	phase := PhaseAgentTurn
	turns := 0
	for ; turns < c.maxTurns; turns++ {
		if st.Verdict != "" {
			phase = PhaseDone
			break
		}

		phase = PhaseAgentTurn
		decision, err := c.oracle.Decide(ctx, st.Conversation)
		if err != nil {
			span.RecordError(err)
			metrics.ChecksTotal.WithLabelValues("oracle_error").Inc()
			return st, err
		}

		if len(decision.Calls) == 0 {
			// No further work requested: a terminal natural-language answer.
			st.FinalAnswer = strings.TrimSpace(decision.FinalText)
			if st.FinalAnswer != "" {
				st.Conversation = append(st.Conversation, llm.Message{Role: "assistant", Content: st.FinalAnswer})
			}
			phase = PhaseDone
			break
		}

		st.Conversation = append(st.Conversation, llm.Message{
			Role:      "assistant",
			Content:   decision.FinalText,
			ToolCalls: decision.Calls,
		})

		phase = PhaseExecuting
		c.executor.ExecuteBatch(ctx, st, decision.Calls)
	}

	st.Turns = turns
	if phase != PhaseDone {
		slog.WarnContext(ctx, "session hit turn ceiling without a verdict", "turns", turns)
	}

	label := verdictLabel(st)
	span.SetAttributes(
		attribute.Int("agent.turns", turns),
		attribute.Bool("agent.converged", phase == PhaseDone),
		attribute.String(otel.AttrVerdictLabel, label),
	)
	metrics.OracleTurns.Observe(float64(turns))
	metrics.ChecksTotal.WithLabelValues(label).Inc()
	return st, nil
}

// verdictLabel buckets a finished session for metrics.
func verdictLabel(st *State) string {
	switch {
	case st.Verdict == "" && st.FinalAnswer == "":
		return "no_summary"
	case strings.Contains(st.Summary(), VerdictClearlyExisting):
		return "clearly_existing"
	case strings.Contains(st.Summary(), VerdictPossiblyOverlapped):
		return "possibly_overlapping"
	case strings.Contains(st.Summary(), VerdictLikelyOriginal):
		return "likely_original"
	default:
		return "unlabeled"
	}
}
