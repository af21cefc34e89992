package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "denylist:"

// Denylist stores revoked token ids in Redis until the token could no longer
// be used or refreshed.
// Key format: denylist:<jti>
type Denylist struct {
	client *redis.Client
	now    func() time.Time
}

// NewDenylist creates a Denylist wrapping the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client, now: time.Now}
}

// Revoke records tokenID until the given instant. Entries whose deadline has
// already passed are not written.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	if err := d.client.Set(ctx, d.key(tokenID), "1", ttl).Err(); err != nil {
		return fmt.Errorf("denylist revoke: %w", err)
	}
	return nil
}

// Claim revokes tokenID with SET NX, so among concurrent callers only one
// gets true. A deadline already in the past claims nothing.
func (d *Denylist) Claim(ctx context.Context, tokenID string, until time.Time) (bool, error) {
	ttl := until.Sub(d.now())
	if ttl <= 0 {
		return false, nil
	}
	ok, err := d.client.SetNX(ctx, d.key(tokenID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("denylist claim: %w", err)
	}
	return ok, nil
}

// IsRevoked reports whether tokenID has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := d.client.Exists(ctx, d.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("denylist check: %w", err)
	}
	return n > 0, nil
}

func (d *Denylist) key(tokenID string) string {
	return denylistPrefix + tokenID
}
