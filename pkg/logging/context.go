package logging

import "context"

type fieldsKey struct{}

// requestFields are the per-request values every log line of a request carries
type requestFields struct {
	requestID     string
	correlationID string
	userID        string
}

func (f requestFields) empty() bool {
	return f.requestID == "" && f.correlationID == "" && f.userID == ""
}

func (f requestFields) attrs() []any {
	attrs := make([]any, 0, 6)
	if f.requestID != "" {
		attrs = append(attrs, "requestId", f.requestID)
	}
	if f.correlationID != "" {
		attrs = append(attrs, "correlationId", f.correlationID)
	}
	if f.userID != "" {
		attrs = append(attrs, "userId", f.userID)
	}
	return attrs
}

func fieldsFrom(ctx context.Context) requestFields {
	if ctx == nil {
		return requestFields{}
	}
	f, _ := ctx.Value(fieldsKey{}).(requestFields)
	return f
}

func withFields(ctx context.Context, update func(*requestFields)) context.Context {
	f := fieldsFrom(ctx)
	update(&f)
	return context.WithValue(ctx, fieldsKey{}, f)
}

// ContextWithRequestID records the request ID for WithContext
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.requestID = requestID })
}

// ContextWithCorrelationID records the correlation ID for WithContext
func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.correlationID = correlationID })
}

// ContextWithUserID records the acting user for WithContext
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return withFields(ctx, func(f *requestFields) { f.userID = userID })
}
