package obs

import "context"

type routePatternKey struct{}

// WithRoutePattern records the matched chi route pattern so metrics and
// traces label requests by template ("/api/v1/banks/{bank}/payments")
// rather than raw paths that would explode label cardinality.
func WithRoutePattern(ctx context.Context, pattern string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, routePatternKey{}, pattern)
}

// RoutePatternFromContext returns the stored pattern, or "" when the
// request never matched a route.
func RoutePatternFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(routePatternKey{}).(string)
	return v
}
