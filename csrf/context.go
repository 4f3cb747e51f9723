package csrf

import "context"

type ctxKey string

const payloadKey ctxKey = "csrf_payload_ctx"

// contextWithPayload returns a derived context that stores the verified
// token payload.
func contextWithPayload(ctx context.Context, payload string) context.Context {
	return context.WithValue(ctx, payloadKey, payload)
}

// PayloadFromContext returns the payload of the token verified by Protect.
//
// Params:
// - ctx: request context passed through Protect.
//
// Returns:
// - payload (string) and a boolean indicating whether a verified token was seen.
func PayloadFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(payloadKey).(string)
	return v, ok
}
