package eventing

import "context"

type correlationKey struct{}

// WithCorrelationID tags events published under ctx with id, typically the
// HTTP request id that triggered them.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// MetaFromContext builds envelope metadata from ctx.
func MetaFromContext(ctx context.Context) Meta {
	if ctx == nil {
		return Meta{}
	}
	id, _ := ctx.Value(correlationKey{}).(string)
	return Meta{CorrelationID: id}
}
