package services

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/relvanta/relvanta-api/internal/services"

// tracer resolves against the current global provider, which serve installs
// after package initialization.
func tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func recordSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
