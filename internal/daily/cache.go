// Package daily serves the shared question of the day: computed once by
// whichever caller first finds it missing, then read by everyone until it
// rotates at the contest-local day boundary.
package daily

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"reco-quiz-service/internal/clock"
	"reco-quiz-service/internal/domain"
	"reco-quiz-service/internal/session"
	"reco-quiz-service/internal/store"
)

// DefaultTTL is deliberately longer than 24h so a question generated near the
// day boundary survives until the next one is written.
const DefaultTTL = 26 * time.Hour

// claimTTL bounds how long a crashed generator can block other writers.
const claimTTL = 2 * time.Minute

// Generator produces the question content for the current day. It may be
// slow; the cache never holds a lock across the call.
type Generator func(ctx context.Context) (domain.GeneratedQuestion, error)

// Cache is the lazy shared-value cache for one contest namespace.
type Cache struct {
	cache   *session.Cache
	kv      store.KV
	contest string
	clock   clock.Clock
	sf      singleflight.Group

	// pollInterval/pollAttempts control how long a claim loser waits for the
	// claim holder to publish before generating itself.
	pollInterval time.Duration
	pollAttempts int
}

// NewCache builds the cache for a contest namespace. Keys follow
// {contest}:question:{YYYY-MM-DD} in the contest timezone.
func NewCache(kv store.KV, contest string, c clock.Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		cache:        session.NewCache(kv, contest+":question:", ttl),
		kv:           kv,
		contest:      contest,
		clock:        c,
		pollInterval: 500 * time.Millisecond,
		pollAttempts: 8,
	}
}

func (c *Cache) claimKey(date string) string {
	return fmt.Sprintf("%s:question:%s:lock", c.contest, date)
}

// GetOrCreate returns today's question, generating and publishing it if no
// caller has yet. Generation failures are returned and never cached. The
// claim key reduces duplicate generation to a bounded race: concurrent misses
// in this process are collapsed by singleflight, concurrent misses across
// processes by a set-if-absent claim with a short TTL. If the claim holder
// dies without publishing, the claim expires and a later caller generates.
func (c *Cache) GetOrCreate(ctx context.Context, gen Generator) (domain.DailyQuestion, error) {
	date := c.clock.DayKey()
	if q, err := c.get(ctx, date); err == nil {
		return q, nil
	}

	result, err, _ := c.sf.Do(date, func() (interface{}, error) {
		// Re-check: another goroutine may have filled it while we queued.
		if q, err := c.get(ctx, date); err == nil {
			return q, nil
		}

		claimed, err := c.kv.SetIfAbsent(ctx, c.claimKey(date), []byte("1"), claimTTL)
		if err != nil {
			// Backend down: nothing to read and nowhere to write.
			return domain.DailyQuestion{}, domain.ErrQuestionUnavailable
		}
		if !claimed {
			if q, ok := c.awaitPublished(ctx, date); ok {
				return q, nil
			}
			// Claim holder never published; generate ourselves and accept
			// last-write-wins. Content is equivalent for the same date.
		}

		q, genErr := gen(ctx)
		if genErr != nil {
			c.releaseClaim(date)
			log.Printf("daily: generation failed for %s: %v", date, genErr)
			return domain.DailyQuestion{}, fmt.Errorf("%w: %v", domain.ErrQuestionUnavailable, genErr)
		}

		record := domain.DailyQuestion{
			Date:        date,
			Question:    q,
			GeneratedAt: c.clock.Now(),
		}
		if err := c.cache.Store(ctx, date, domain.DailyPayload(record)); err != nil {
			c.releaseClaim(date)
			return domain.DailyQuestion{}, domain.ErrQuestionUnavailable
		}
		c.cleanupPreviousDay()
		c.releaseClaim(date)
		return record, nil
	})
	if err != nil {
		return domain.DailyQuestion{}, err
	}
	return result.(domain.DailyQuestion), nil
}

// Peek returns today's question only if it is already cached.
func (c *Cache) Peek(ctx context.Context) (domain.DailyQuestion, error) {
	return c.get(ctx, c.clock.DayKey())
}

func (c *Cache) get(ctx context.Context, date string) (domain.DailyQuestion, error) {
	payload, err := c.cache.Get(ctx, date)
	if err != nil {
		return domain.DailyQuestion{}, err
	}
	if payload.Kind != domain.KindDailyQuestion || payload.Daily == nil {
		return domain.DailyQuestion{}, domain.ErrSessionNotFound
	}
	return *payload.Daily, nil
}

// awaitPublished polls for the claim holder's write.
func (c *Cache) awaitPublished(ctx context.Context, date string) (domain.DailyQuestion, bool) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for i := 0; i < c.pollAttempts; i++ {
		select {
		case <-ctx.Done():
			return domain.DailyQuestion{}, false
		case <-ticker.C:
		}
		if q, err := c.get(ctx, date); err == nil {
			return q, true
		}
	}
	return domain.DailyQuestion{}, false
}

// cleanupPreviousDay deletes yesterday's key once today's value is written.
// Best effort: the previous record expires on its own TTL anyway.
func (c *Cache) cleanupPreviousDay() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	yesterday := c.clock.DayKeyOffset(-1)
	if err := c.cache.Delete(ctx, yesterday); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		log.Printf("daily: cleanup of %s failed: %v", yesterday, err)
	}
}

func (c *Cache) releaseClaim(date string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = c.kv.Delete(ctx, c.claimKey(date))
}
