package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/mkmahmud/meditech-backend/internal/core/port"
)

const defaultDenylistPrefix = "blacklist"

// Denylist stores short-lived logout markers in Redis. The request
// authentication middleware consults it so already-issued access tokens are
// rejected for the marker's lifetime.
type Denylist struct {
	client *red.Client
	prefix string
}

// NewDenylist wires a Redis client into a denylist store.
func NewDenylist(client *red.Client, keyPrefix string) *Denylist {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultDenylistPrefix
	}

	return &Denylist{client: client, prefix: prefix}
}

// Mark stores a denylist marker for the credential with the supplied TTL.
func (d *Denylist) Mark(ctx context.Context, credentialID string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("ttl must be positive")
	}

	key := d.key(credentialID)
	if key == "" {
		return errors.New("credential id must not be empty")
	}

	if err := d.client.Set(ctx, key, true, ttl).Err(); err != nil {
		return fmt.Errorf("redis set denylist marker: %w", err)
	}

	return nil
}

// IsDenied reports whether a marker exists for the credential.
func (d *Denylist) IsDenied(ctx context.Context, credentialID string) (bool, error) {
	key := d.key(credentialID)
	if key == "" {
		return false, errors.New("credential id must not be empty")
	}

	if err := d.client.Get(ctx, key).Err(); err != nil {
		if errors.Is(err, red.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis get denylist marker: %w", err)
	}

	return true, nil
}

func (d *Denylist) key(credentialID string) string {
	trimmed := strings.TrimSpace(credentialID)
	if trimmed == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", d.prefix, trimmed)
}

var _ port.Denylist = (*Denylist)(nil)
