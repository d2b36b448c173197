// Package session persists quiz state between stateless request handlers.
// Payloads are JSON blobs with a TTL; an update is always a full overwrite of
// the previous payload (last writer wins, which is fine because one session
// is driven by one participant at a time).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/store"
)

// DefaultTTL is how long a session stays readable without being refreshed.
const DefaultTTL = 2 * time.Hour

// Prefix is the key namespace for per-participant quiz sessions.
const Prefix = "quiz_session:"

// Cache stores tagged session payloads under prefixed keys.
type Cache struct {
	kv     store.KV
	prefix string
	ttl    time.Duration
}

// NewCache builds a cache over kv. An empty prefix defaults to Prefix and a
// non-positive ttl to DefaultTTL.
func NewCache(kv store.KV, prefix string, ttl time.Duration) *Cache {
	if prefix == "" {
		prefix = Prefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, prefix: prefix, ttl: ttl}
}

// TTL returns the configured expiry applied on Store and Update.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

func (c *Cache) key(id string) string {
	return c.prefix + id
}

// Store serializes payload and writes it with the configured TTL. A failed
// write is a hard error for the caller: the session will not exist on the
// next read.
func (c *Cache) Store(ctx context.Context, id string, payload domain.SessionPayload) error {
	if id == "" {
		return domain.ErrSessionNotFound
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := c.kv.SetWithTTL(ctx, c.key(id), data, c.ttl); err != nil {
		log.Printf("session: store %s failed: %v", id, err)
		return domain.ErrSessionNotFound
	}
	return nil
}

// Update overwrites the whole payload and resets the TTL. There is no merge:
// callers read, mutate in memory, and write back the complete object.
func (c *Cache) Update(ctx context.Context, id string, payload domain.SessionPayload) error {
	return c.Store(ctx, id, payload)
}

// Get returns the payload for id. Expired, never-written, corrupted and
// backend-down all read as ErrSessionNotFound: the caller's recovery is the
// same for each ("session expired, restart").
func (c *Cache) Get(ctx context.Context, id string) (domain.SessionPayload, error) {
	if id == "" {
		return domain.SessionPayload{}, domain.ErrSessionNotFound
	}
	data, err := c.kv.Get(ctx, c.key(id))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("session: get %s failed: %v", id, err)
		}
		return domain.SessionPayload{}, domain.ErrSessionNotFound
	}
	var payload domain.SessionPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Printf("session: undecodable payload for %s: %v", id, err)
		return domain.SessionPayload{}, domain.ErrSessionNotFound
	}
	return payload, nil
}

// StoreIfAbsent writes payload only when no record exists yet and reports
// whether the write won. Used by the daily-question cache for its claim.
func (c *Cache) StoreIfAbsent(ctx context.Context, id string, payload domain.SessionPayload, ttl time.Duration) (bool, error) {
	if id == "" {
		return false, domain.ErrSessionNotFound
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return false, err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}
	ok, err := c.kv.SetIfAbsent(ctx, c.key(id), data, ttl)
	if err != nil {
		return false, domain.ErrSessionNotFound
	}
	return ok, nil
}

// Delete removes the session record.
func (c *Cache) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrSessionNotFound
	}
	if err := c.kv.Delete(ctx, c.key(id)); err != nil {
		log.Printf("session: delete %s failed: %v", id, err)
		return domain.ErrSessionNotFound
	}
	return nil
}

// Exists reports whether a readable record is present. Backend failures read
// as absent.
func (c *Cache) Exists(ctx context.Context, id string) bool {
	if id == "" {
		return false
	}
	ok, err := c.kv.Exists(ctx, c.key(id))
	if err != nil {
		log.Printf("session: exists %s failed: %v", id, err)
		return false
	}
	return ok
}
