package server

import (
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bettercallhenk/hochzeitsanzug-landing/internal/config"
)

// clientBuckets holds the three windows tracked per client IP. A burst
// equal to the quota lets a legitimate visitor retry a rejected form a
// few times in quick succession without tripping the limiter.
type clientBuckets struct {
	minute   *rate.Limiter
	hour     *rate.Limiter
	day      *rate.Limiter
	lastSeen time.Time
}

func (c *clientBuckets) allow(now time.Time) bool {
	c.lastSeen = now
	// Check without consuming first so a request rejected by a later
	// window does not burn tokens in an earlier one.
	minOK := c.minute.TokensAt(now) >= 1
	hourOK := c.hour.TokensAt(now) >= 1
	dayOK := c.day.TokensAt(now) >= 1
	if !minOK || !hourOK || !dayOK {
		return false
	}
	c.minute.AllowN(now, 1)
	c.hour.AllowN(now, 1)
	c.day.AllowN(now, 1)
	return true
}

// RateLimiter enforces per-IP submission quotas over minute, hour and
// day windows. Entries idle for longer than a day are swept lazily on
// the next access, so no background goroutine is needed.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientBuckets
	cfg       config.RateLimitConfig
	lastSweep time.Time
	now       func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientBuckets),
		cfg:     cfg,
		now:     time.Now,
	}
}

// Allow reports whether the client identified by ip may submit now.
func (rl *RateLimiter) Allow(ip string) bool {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.sweep(now)

	c, ok := rl.clients[ip]
	if !ok {
		c = &clientBuckets{
			minute: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.cfg.PerMinute)), rl.cfg.PerMinute),
			hour:   rate.NewLimiter(rate.Every(time.Hour/time.Duration(rl.cfg.PerHour)), rl.cfg.PerHour),
			day:    rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(rl.cfg.PerDay)), rl.cfg.PerDay),
		}
		rl.clients[ip] = c
	}
	return c.allow(now)
}

const sweepInterval = time.Hour

func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < sweepInterval {
		return
	}
	rl.lastSweep = now
	for ip, c := range rl.clients {
		if now.Sub(c.lastSeen) > 24*time.Hour {
			delete(rl.clients, ip)
		}
	}
}

// rateLimit rejects over-quota clients with 429 before the handler runs.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.limiter.Allow(ip) {
			zap.L().Warn("rate limit exceeded",
				zap.String("ip", ip),
				zap.String("path", r.URL.Path))
			respondJSON(w, http.StatusTooManyRequests, response{
				Success: false,
				Message: localize(r, msgRateLimited),
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
