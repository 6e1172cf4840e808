package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/noveltylab/priorart/internal/llm"
	"github.com/noveltylab/priorart/internal/metrics"
	"github.com/noveltylab/priorart/pkg/otel"
)

// AckStatus discriminates the three acknowledgment shapes a requested
// invocation can produce.
type AckStatus string

const (
	AckOK       AckStatus = "ok"
	AckError    AckStatus = "error"
	AckRejected AckStatus = "rejected"
)

// Ack is the executor's per-invocation acknowledgment, appended to the
// conversation so the oracle sees what happened.
type Ack struct {
	CallID string
	Name   string
	Status AckStatus
	Detail string
}

func (a Ack) message() llm.Message {
	content := a.Detail
	if a.Status != AckOK {
		content = "Error: " + a.Detail
	}
	return llm.Message{Role: "tool", ToolCallID: a.CallID, Content: content}
}

// Executor runs capability invocation batches against the session state. It
// enforces the once-per-session rule and is the only place deltas are merged.
type Executor struct {
	caps   *Set
	tracer trace.Tracer
}

func NewExecutor(caps *Set) *Executor {
	return &Executor{caps: caps, tracer: otel.Tracer("internal/agent")}
}

// ExecuteBatch runs one batch of requested invocations. Eligibility is decided
// in request order against the pre-batch invocation counts: a capability
// already attempted this session, an unknown name, or a repeat within the
// batch itself is rejected without running. Eligible invocations run
// concurrently, each reading the pre-batch state; their deltas are applied in
// request order once all have finished, and acknowledgments come back in
// request order regardless of completion order. Every attempted (non-rejected)
// invocation bumps its capability's count exactly once, whether it succeeded
// or failed.
func (e *Executor) ExecuteBatch(ctx context.Context, st *State, calls []llm.ToolCall) []Ack {
	ctx, span := e.tracer.Start(ctx, "executor.batch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.size", len(calls)))

	acks := make([]Ack, len(calls))
	deltas := make([]*Delta, len(calls))
	eligible := make([]bool, len(calls))

	batchSeen := make(map[string]bool)
	for i, call := range calls {
		switch {
		case e.caps.Get(call.Name) == nil:
			acks[i] = Ack{CallID: call.ID, Name: call.Name, Status: AckRejected,
				Detail: fmt.Sprintf("unknown tool %q.", call.Name)}
			metrics.CapabilityRejections.WithLabelValues(call.Name, "unknown").Inc()
		case st.InvocationCount[call.Name] > 0 || batchSeen[call.Name]:
			acks[i] = Ack{CallID: call.ID, Name: call.Name, Status: AckRejected,
				Detail: fmt.Sprintf("tool %q has already been called.", call.Name)}
			metrics.CapabilityRejections.WithLabelValues(call.Name, "already_called").Inc()
		default:
			batchSeen[call.Name] = true
			eligible[i] = true
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		if !eligible[i] {
			continue
		}
		c := e.caps.Get(call.Name)
		g.Go(func() error {
			start := time.Now()
			runCtx, runSpan := e.tracer.Start(gctx, "capability."+c.Name,
				trace.WithAttributes(attribute.String(otel.AttrCapabilityName, c.Name)))
			delta, err := c.Run(runCtx, st)

			status := AckOK
			if err != nil {
				status = AckError
				acks[i] = Ack{CallID: call.ID, Name: call.Name, Status: AckError, Detail: err.Error()}
				slog.ErrorContext(runCtx, "capability failed", "capability", call.Name, "error", err)
			} else {
				deltas[i] = delta
				acks[i] = Ack{CallID: call.ID, Name: call.Name, Status: AckOK,
					Detail: fmt.Sprintf("Successfully executed tool %q.", call.Name)}
			}
			runSpan.SetAttributes(attribute.String(otel.AttrCapabilityStatus, string(status)))
			runSpan.End()
			metrics.CapabilityExecutions.WithLabelValues(call.Name, string(status)).Inc()
			metrics.CapabilityDuration.WithLabelValues(call.Name).Observe(time.Since(start).Seconds())
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers report through acks, never errors

	// Single merge point: deltas land atomically, in request order.
	for i, call := range calls {
		if acks[i].Status == AckRejected {
			st.Conversation = append(st.Conversation, acks[i].message())
			continue
		}
		st.Apply(deltas[i])
		st.InvocationCount[call.Name]++
		st.Conversation = append(st.Conversation, acks[i].message())
	}
	return acks
}
