package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/trace"

	"github.com/riskibarqy/team-schedule/internal/usecase"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.GetTeam", want: true},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldCreateHTTPAPISpan(tt.in)
			if got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartSpan_HelpersNeverEndTheRequestSpan(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	parent := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := withAccess(trace.ContextWithSpanContext(context.Background(), parent), usecase.Access{TeamID: "alpha-1"})

	got, span := startSpan(ctx, "httpapi.writeError")
	if got != ctx {
		t.Fatalf("helper span must not replace the context")
	}
	if span.SpanContext().IsValid() {
		t.Fatalf("helper span must be non-recording, got %v", span.SpanContext())
	}

	_, span = startSpan(context.Background(), "httpapi.Handler.GetTeam")
	if span.SpanContext().IsValid() {
		t.Fatalf("no span expected without a request span")
	}
}
