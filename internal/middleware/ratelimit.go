package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"social-service/internal/apperrors"
)

const (
	limiterTTL           = 10 * time.Minute
	limiterCleanupPeriod = time.Minute
)

type limiterEntry struct {
	l        *rate.Limiter
	lastSeen time.Time
}

// limiterPool keeps one token bucket per client key. Entries idle for longer
// than ttl are evicted by a background sweep started on first use.
type limiterPool struct {
	mu           sync.Mutex
	m            map[string]*limiterEntry
	rps          float64
	burst        int
	ttl          time.Duration
	startCleanup sync.Once
	now          func() time.Time
}

func newLimiterPool(rps float64, burst int) *limiterPool {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 5
	}
	return &limiterPool{
		m:     make(map[string]*limiterEntry),
		rps:   rps,
		burst: burst,
		ttl:   limiterTTL,
		now:   time.Now,
	}
}

func (p *limiterPool) get(key string) *rate.Limiter {
	p.startCleanup.Do(func() { go p.cleanupLoop() })

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.m[key]; ok {
		e.lastSeen = p.now()
		return e.l
	}
	l := rate.NewLimiter(rate.Limit(p.rps), p.burst)
	p.m[key] = &limiterEntry{l: l, lastSeen: p.now()}
	return l
}

func (p *limiterPool) Allow(key string) bool {
	return p.get(key).Allow()
}

func (p *limiterPool) cleanupLoop() {
	ticker := time.NewTicker(limiterCleanupPeriod)
	defer ticker.Stop()
	for range ticker.C {
		p.evictStale()
	}
}

// evictStale drops entries not seen within ttl.
func (p *limiterPool) evictStale() {
	cutoff := p.now().Add(-p.ttl)
	p.mu.Lock()
	defer p.mu.Unlock()
	for k, e := range p.m {
		if e.lastSeen.Before(cutoff) {
			delete(p.m, k)
		}
	}
}

func (p *limiterPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.m)
}

// RateLimit throttles requests per client IP as resolved by gin's ClientIP.
// Forwarding headers are only honoured from the engine's trusted proxies.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	return rateLimitWithPool(newLimiterPool(rps, burst))
}

func rateLimitWithPool(pool *limiterPool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !pool.Allow(c.ClientIP()) {
			err := apperrors.ErrTooManyRequests
			c.AbortWithStatusJSON(apperrors.HTTPStatus(err.Kind), gin.H{"message": err.Message})
			return
		}
		c.Next()
	}
}
