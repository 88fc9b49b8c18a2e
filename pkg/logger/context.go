package logger

import "context"

type requestIDKey struct{}

// RequestIDKey is the attribute name used for request ids.
const RequestIDKey = "request_id"

// ContextWithRequestID returns ctx carrying id. Every line logged with the
// returned context gets a request_id attribute.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom returns the request id stored in ctx, or "".
func RequestIDFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
