package port

import (
	"context"
	"time"
)

// Denylist holds short-lived markers that reject still-unexpired access
// tokens after logout. Best-effort mitigation since access tokens are not
// persisted.
type Denylist interface {
	Mark(ctx context.Context, credentialID string, ttl time.Duration) error
	IsDenied(ctx context.Context, credentialID string) (bool, error)
}
