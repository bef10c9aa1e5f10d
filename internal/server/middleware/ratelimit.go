package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/gosuda/tenantry/internal/domain"
)

const (
	limiterIdleTTL = 30 * time.Minute
	limiterSweep   = 10 * time.Minute

	// quotaRefresh bounds how long a company keeps a quota after its
	// rate_limit_* settings change.
	quotaRefresh = time.Minute
)

const tooManyRequests = `{"title":"Too Many Requests","status":429,"detail":"rate limit exceeded"}`

// CompanyLoader looks up the company whose quota applies to a request.
type CompanyLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Company, error)
}

type limiterEntry struct {
	limiter  *rate.Limiter
	seen     time.Time
	resolved time.Time
}

// limiterSet keeps one token bucket per key. Buckets idle for longer than
// limiterIdleTTL are dropped.
type limiterSet[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*limiterEntry
	refresh time.Duration // 0 keeps the first quota for the bucket's lifetime
	now     func() time.Time
}

func newLimiterSet[K comparable](refresh time.Duration) *limiterSet[K] {
	return &limiterSet[K]{
		entries: make(map[K]*limiterEntry),
		refresh: refresh,
		now:     time.Now,
	}
}

// sweepEvery prunes idle buckets until ctx is done.
func (s *limiterSet[K]) sweepEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.prune()
		case <-ctx.Done():
			return
		}
	}
}

func (s *limiterSet[K]) prune() {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-limiterIdleTTL)
	for key, e := range s.entries {
		if e.seen.Before(cutoff) {
			delete(s.entries, key)
		}
	}
}

func (s *limiterSet[K]) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.entries)
}

// get returns the bucket for key. quota is called without the lock held,
// for a new bucket and whenever the bucket's quota is older than refresh.
func (s *limiterSet[K]) get(key K, quota func() (float64, int)) *rate.Limiter {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && (s.refresh == 0 || s.now().Sub(e.resolved) < s.refresh) {
		e.seen = s.now()
		s.mu.Unlock()
		return e.limiter
	}
	s.mu.Unlock()

	rps, burst := quota()

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok = s.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		s.entries[key] = e
	} else {
		e.limiter.SetLimitAt(now, rate.Limit(rps))
		e.limiter.SetBurstAt(now, burst)
	}
	e.resolved, e.seen = now, now

	return e.limiter
}

// RateLimitByIP limits unauthenticated endpoints (signup, login, refresh)
// per client address. r.RemoteAddr carries chi's RealIP value.
func RateLimitByIP(ctx context.Context, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterSet[string](0)
	go limiters.sweepEvery(ctx, limiterSweep)

	fixed := func() (float64, int) { return requestsPerSecond, burst }

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(r.RemoteAddr, fixed).Allow() {
				http.Error(w, tooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits authenticated requests per company. The quota is the
// company's rate_limit_rps and rate_limit_burst settings, falling back to
// requestsPerSecond and burst. companies may be nil, in which case every
// company gets the defaults.
func RateLimit(ctx context.Context, companies CompanyLoader, requestsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiters := newLimiterSet[uuid.UUID](quotaRefresh)
	go limiters.sweepEvery(ctx, limiterSweep)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			companyID, ok := CompanyIDFromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			quota := func() (float64, int) {
				return companyQuota(r.Context(), companies, companyID, requestsPerSecond, burst)
			}
			if !limiters.get(companyID, quota).Allow() {
				http.Error(w, tooManyRequests, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func companyQuota(ctx context.Context, companies CompanyLoader, id uuid.UUID, rps float64, burst int) (float64, int) {
	if companies == nil {
		return rps, burst
	}

	c, err := companies.GetByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("company_id", id.String()).Msg("middleware: company quota lookup failed; using defaults")
		return rps, burst
	}

	return c.RateLimit(rps, burst)
}
