// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotency-key validation for mutating endpoints.
// Clients supply an Idempotency-Key header; the validator checks the key's
// shape, then asks a pluggable lookup whether the (user, scope, key) triple
// was already used. Replays short-circuit with 409 Conflict and are flagged
// for rate-limit bypass so a client retrying a completed import is never
// throttled into a corner.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying the client-chosen key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	ctxKeyRateBypass = "rate.bypass"
)

// defaultKeyPattern accepts opaque tokens of URL-safe characters.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-\.]{1,128}$`)

// IdempotencyLookup reports whether the (userID, scope, key) triple has been
// seen before. Scope partitions keys per operation family (e.g. "config" for
// imports) so the same client key can be reused across unrelated endpoints.
type IdempotencyLookup func(ctx context.Context, userID, scope, key string, now time.Time) (seen bool, err error)

// IdempotencyOptions tunes header validation.
//
// MaxLen caps the accepted key length (default 128). Pattern overrides the
// accepted key shape; nil uses the URL-safe default.
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// GetIdempotencyKey returns the validated key stored by IdempotencyValidator,
// or "" when the request carried none.
func GetIdempotencyKey(c *gin.Context) string {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// IsReplay reports whether the current request was identified as a replay of
// an already-completed request.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyValidator returns a Gin middleware that validates the
// Idempotency-Key header and consults lookup scoped to the given operation
// family. The header is optional; requests without it pass through
// untouched. Malformed keys get 400, replays get 409 with the rate-bypass
// flag set, and lookup failures fail open so the store being down never
// blocks writes.
//
// The user identity is read from the Gin context under "userID"; requests
// without one fall back to the client IP.
func IdempotencyValidator(scope string, lookup IdempotencyLookup, opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 128
	}
	pattern := opts.Pattern
	if pattern == nil {
		pattern = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		if len(key) > maxLen || !pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get("X-Request-ID"),
				"code":       "invalid_idempotency_key",
				"message":    "Idempotency-Key header is malformed",
			})
			return
		}

		userID := c.GetString("userID")
		if userID == "" {
			userID = "ip:" + c.ClientIP()
		}

		if lookup != nil {
			seen, err := lookup(c.Request.Context(), userID, scope, key, time.Now())
			if err == nil && seen {
				c.Set(ctxKeyIdemReplay, true)
				c.Set(ctxKeyRateBypass, true)
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{
					"request_id": c.Writer.Header().Get("X-Request-ID"),
					"code":       "duplicate_request",
					"message":    "request with this Idempotency-Key was already processed",
				})
				return
			}
		}

		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}
