package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/landitus/bookmarks"
	"golang.org/x/time/rate"
)

var _ bookmarks.DomainLimiter = (*DomainLimiter)(nil)

// Defaults for DomainLimiter settings.
const (
	DefaultRequestsPerSecond = 1.0
	DefaultLimiterIdleTTL    = 10 * time.Minute
)

// DomainLimiter spaces out fetches to the same host using one token bucket
// per host with a burst of 1. A bucket unused for longer than the idle TTL
// is dropped; it would have refilled by then, so a new one behaves the same.
type DomainLimiter struct {
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	mu        sync.Mutex
	hosts     map[string]*hostBucket
	limit     rate.Limit
	idleTTL   time.Duration
	lastSweep time.Time
}

type hostBucket struct {
	limiter *rate.Limiter
	due     time.Time // when the latest reservation may proceed
}

// LimiterOption configures a DomainLimiter.
type LimiterOption func(*DomainLimiter)

// WithIdleTTL sets how long an unused host bucket is kept.
func WithIdleTTL(d time.Duration) LimiterOption {
	return func(l *DomainLimiter) {
		l.idleTTL = d
	}
}

// NewDomainLimiter returns a limiter allowing rps requests per second to each
// host. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64, opts ...LimiterOption) *DomainLimiter {
	l := &DomainLimiter{
		hosts:   make(map[string]*hostBucket),
		limit:   rate.Inf,
		idleTTL: DefaultLimiterIdleTTL,
	}
	if rps > 0 {
		l.limit = rate.Limit(rps)
	}
	for _, opt := range opts {
		opt(l)
	}
	// Only full buckets may be dropped.
	if l.limit != rate.Inf {
		if every := time.Duration(float64(time.Second) / float64(l.limit)); l.idleTTL < every {
			l.idleTTL = every
		}
	}
	return l
}

// Wait blocks until a request to host is allowed or ctx is done.
func (l *DomainLimiter) Wait(ctx context.Context, host string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	now := l.now()
	l.sweep(now)
	b, ok := l.hosts[host]
	if !ok {
		b = &hostBucket{limiter: rate.NewLimiter(l.limit, 1)}
		l.hosts[host] = b
	}
	r := b.limiter.ReserveN(now, 1)
	delay := r.DelayFrom(now)
	b.due = now.Add(delay)
	l.mu.Unlock()

	if delay == 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		r.CancelAt(l.now())
		return ctx.Err()
	}
}

// sweep drops idle buckets at most once per idle TTL. mu must be held.
func (l *DomainLimiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.idleTTL {
		return
	}
	l.lastSweep = now
	for host, b := range l.hosts {
		if now.Sub(b.due) > l.idleTTL {
			delete(l.hosts, host)
		}
	}
}

func (l *DomainLimiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}
