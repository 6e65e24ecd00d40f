package logging

import (
	"fmt"
	"regexp"

	"go.uber.org/zap"
)

const traceparentHeader = "traceparent"

// W3C Trace Context: {version}-{trace-id}-{parent-id}-{trace-flags}
var traceparentRe = regexp.MustCompile(`^([0-9a-fA-F]{2})-([0-9a-fA-F]{32})-([0-9a-fA-F]{16})-([0-9a-fA-F]{2})$`)

// traceContext is the parsed form of a traceparent header.
type traceContext struct {
	TraceID string
	SpanID  string
	Sampled bool
}

func parseTraceparent(header string) (traceContext, bool) {
	m := traceparentRe.FindStringSubmatch(header)
	if len(m) != 5 {
		return traceContext{}, false
	}
	return traceContext{TraceID: m[2], SpanID: m[3], Sampled: m[4] == "01"}, true
}

// resource returns the Cloud Trace resource name, or "" without a project.
func (tc traceContext) resource(projectID string) string {
	if projectID == "" || tc.TraceID == "" {
		return ""
	}
	return fmt.Sprintf("projects/%s/traces/%s", projectID, tc.TraceID)
}

func (tc traceContext) fields(projectID string) []zap.Field {
	res := tc.resource(projectID)
	if res == "" {
		return nil
	}
	return []zap.Field{
		zap.String("logging.googleapis.com/trace", res),
		zap.String("logging.googleapis.com/spanId", tc.SpanID),
		zap.Bool("logging.googleapis.com/trace_sampled", tc.Sampled),
	}
}

func loggerWithTrace(base *zap.Logger, tc traceContext, projectID, requestID string) *zap.Logger {
	if base == nil {
		base = zap.NewNop()
	}
	fields := tc.fields(projectID)
	if requestID != "" {
		fields = append(fields, zap.String("requestId", requestID))
	}
	if len(fields) == 0 {
		return base
	}
	return base.With(fields...)
}
