package api

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/Akshit358/Finsage/internal/api/response"
	"github.com/Akshit358/Finsage/internal/logger"
	"github.com/Akshit358/Finsage/internal/metrics"
)

const (
	headerRequestID = "X-Request-ID"
	ctxUserID       = "auth_user_id"
)

// RequestID tags every request with a trace id (the caller's
// X-Request-ID or a fresh uuid) and propagates it through the request
// context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger logs one line per request and records its latency.
func RequestLogger(log *logrus.Entry, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		m.ObserveHTTP(route, strconv.Itoa(status), elapsed)

		entry := log.WithFields(logger.Fields(c.Request.Context())).WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"route":      route,
			"status":     status,
			"latency_ms": float64(elapsed.Microseconds()) / 1000.0,
			"client_ip":  c.ClientIP(),
		})
		if status >= 500 {
			entry.Error("request")
		} else {
			entry.Debug("request")
		}
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter throttles requests per client (authenticated user or IP)
// with a token bucket.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
}

// NewRateLimiter allows rps requests per second with the given burst per
// client. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		idle:     3 * time.Minute,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup evicts idle visitors every interval until ctx is done.
func (rl *RateLimiter) Cleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > rl.idle {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware returns the gin handler enforcing the limit.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit == rate.Inf {
			c.Next()
			return
		}
		key := c.GetString(ctxUserID)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.limiter(key).Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			return
		}
		c.Next()
	}
}

// JWTAuth requires an HS256 bearer token whose "sub" claim is the user id.
// An empty secret disables authentication.
func JWTAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		raw, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, "Invalid authorization header")
			return
		}
		sub, msg := subject(key, raw)
		if msg != "" {
			response.Unauthorized(c, msg)
			return
		}
		c.Set(ctxUserID, sub)
		c.Next()
	}
}

// StreamAuth guards the websocket upgrade. Browsers cannot set headers on
// an upgrade request, so the token may also arrive as the "token" query
// parameter. The token's subject must match the user_id being subscribed.
func StreamAuth(secret string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		raw := c.Query("token")
		if raw == "" {
			var ok bool
			if raw, ok = bearerToken(c); !ok {
				response.Unauthorized(c, "Missing token")
				return
			}
		}
		sub, msg := subject(key, raw)
		if msg != "" {
			response.Unauthorized(c, msg)
			return
		}
		if sub != c.Query("user_id") {
			response.Forbidden(c, "Cannot subscribe to another user's stream")
			return
		}
		c.Set(ctxUserID, sub)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// subject verifies raw and returns its "sub" claim, or the client-facing
// reason it was refused.
func subject(key []byte, raw string) (string, string) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", "Token expired"
		}
		return "", "Invalid token"
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", "Missing required claim: sub"
	}
	return sub, ""
}

// IssueToken signs a token for userID. Used by tooling and tests.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// authorized reports whether the caller may act for userID. Without
// authentication every caller may.
func authorized(c *gin.Context, userID string) bool {
	sub := c.GetString(ctxUserID)
	return sub == "" || sub == userID
}
