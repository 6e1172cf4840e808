package otel

import (
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"go.opentelemetry.io/otel"
)

// Standard attribute keys for priorart services.
const (
	AttrCheckID          = "check.id"
	AttrRequestID        = "request.id"
	AttrCapabilityName   = "capability.name"
	AttrCapabilityStatus = "capability.status"
	AttrSearchSource     = "search.source"
	AttrVerdictLabel     = "verdict.label"
	AttrLLMModel         = "llm.model"
)

// Middleware returns an OpenTelemetry server-span middleware for Chi routers.
// The incoming trace context is extracted from the request headers.
func Middleware(serviceName string) func(http.Handler) http.Handler {
	tracer := Tracer(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx,
				fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.target", r.URL.Path),
				),
			)
			defer span.End()

			if requestID := r.Header.Get("x-request-id"); requestID != "" {
				span.SetAttributes(attribute.String(AttrRequestID, requestID))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
