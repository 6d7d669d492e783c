package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Denylist records revoked token ids in Redis until their natural expiry.
// Entries carry a TTL equal to the token's remaining validity, so the list
// cleans itself up.
type Denylist struct {
	client *redis.Client
}

// NewDenylist constructs a Denylist backed by the given client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

func (d *Denylist) key(tokenID string) string {
	return "revoked_token:" + tokenID
}

// Revoke marks a token id as revoked until expiresAt.
func (d *Denylist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return errors.New("auth: token id required")
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.key(tokenID), "1", ttl).Err()
}

// PurgeStale deletes denylist keys that lost their TTL and would otherwise
// live forever. Normal entries expire on their own; this is a periodic
// safety net run by the worker.
func (d *Denylist) PurgeStale(ctx context.Context) (int, error) {
	var purged int
	iter := d.client.Scan(ctx, 0, d.key("*"), 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := d.client.TTL(ctx, key).Result()
		if err != nil {
			return purged, err
		}
		if ttl < 0 {
			if err := d.client.Del(ctx, key).Err(); err != nil {
				return purged, err
			}
			purged++
		}
	}
	return purged, iter.Err()
}

// IsRevoked reports whether the token id has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := d.client.Get(ctx, d.key(tokenID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
