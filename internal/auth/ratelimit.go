package auth

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginLimiter, giriş denemelerini IP başına sınırlar.
type LoginLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
	every   rate.Limit
	burst   int
	now     func() time.Time
}

func NewLoginLimiter(perMinute int) *LoginLimiter {
	return &LoginLimiter{
		clients: make(map[string]*clientLimiter),
		every:   rate.Limit(float64(perMinute) / 60.0),
		burst:   perMinute,
		now:     time.Now,
	}
}

func (l *LoginLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cl, ok := l.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(l.every, l.burst)}
		l.clients[key] = cl
	}
	cl.lastSeen = now

	// eski kayıtları temizle
	for k, other := range l.clients {
		if now.Sub(other.lastSeen) > 30*time.Minute {
			delete(l.clients, k)
		}
	}
	return cl.limiter.AllowN(now, 1)
}

func (l *LoginLimiter) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !l.allow(c.IP()) {
			return fiber.NewError(fiber.StatusTooManyRequests, "Çok fazla giriş denemesi, lütfen biraz bekleyin")
		}
		return c.Next()
	}
}
