package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/api/responses"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

// RateLimiterStore counts hits in a fixed window under namespaced keys.
type RateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	RateLimitKey(parts ...string) string
}

// subjectFunc extracts the throttled identity from a request. The body is
// nil unless some rule of the policy asked for it.
type subjectFunc func(r *http.Request, body []byte) string

type rule struct {
	scope    string
	max      int64
	needBody bool
	subject  subjectFunc
}

// RateLimitPolicy groups the fixed-window rules applied to one surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	rules  []rule
}

// NewRateLimitPolicy builds a policy counting per client IP and per submitted
// email. A zero limit disables that rule.
func NewRateLimitPolicy(name string, window time.Duration, perIP, perEmail int) RateLimitPolicy {
	p := RateLimitPolicy{name: strings.ToLower(strings.TrimSpace(name)), window: window}
	if p.name == "" {
		p.name = "default"
	}
	if perIP > 0 {
		p.rules = append(p.rules, rule{scope: "ip", max: int64(perIP), subject: ipSubject})
	}
	if perEmail > 0 {
		p.rules = append(p.rules, rule{scope: "email", max: int64(perEmail), needBody: true, subject: emailSubject})
	}
	return p
}

func (p RateLimitPolicy) active() bool {
	return p.window > 0 && len(p.rules) > 0
}

func (p RateLimitPolicy) readsBody() bool {
	for _, rl := range p.rules {
		if rl.needBody {
			return true
		}
	}
	return false
}

// RateLimit rejects requests once any rule of the policy exceeds its budget
// for the current window. It is a no-op without a store.
func RateLimit(policy RateLimitPolicy, store RateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || !policy.active() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var body []byte
			if policy.readsBody() {
				raw, err := io.ReadAll(r.Body)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(raw))
				body = raw
			}

			for _, rl := range policy.rules {
				subject := rl.subject(r, body)
				if subject == "" {
					continue
				}
				hits, err := store.IncrWithTTL(ctx, store.RateLimitKey(policy.name, rl.scope, subject), policy.window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if hits > rl.max {
					reject(ctx, logg, w, policy, rl, subject, hits)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func reject(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, policy RateLimitPolicy, rl rule, subject string, hits int64) {
	retryAfter := int(policy.window.Round(time.Second).Seconds())
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"policy":         policy.name,
			"scope":          rl.scope,
			"subject":        subject,
			"hits":           hits,
			"limit":          rl.max,
			"window_seconds": retryAfter,
		})
		logg.Warn(ctx, "rate_limit.blocked")
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many requests, try again later"))
}

func ipSubject(r *http.Request, _ []byte) string {
	return clientIP(r)
}

// emailSubject hashes the lowercased email so raw addresses never reach the
// key space or the logs.
func emailSubject(_ *http.Request, body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if len(body) == 0 || json.Unmarshal(body, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket peer.
func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
