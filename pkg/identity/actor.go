// Package identity carries the caller identity supplied by the upstream auth
// gateway. Values are trusted as given.
package identity

import "context"

const (
	HeaderActor = "X-Actor"
	Anonymous   = "anonymous"
	System      = "system"
)

type actorKey struct{}

func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the actor recorded on ctx, or Anonymous.
func ActorFromContext(ctx context.Context) string {
	if actor, ok := ctx.Value(actorKey{}).(string); ok && actor != "" {
		return actor
	}
	return Anonymous
}
