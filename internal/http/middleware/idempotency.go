package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client's key for a POST that may be retried.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay"
	defaultIdemMax   = 200
)

var defaultIdemPattern = regexp.MustCompile(`^[A-Za-z0-9._~:-]+$`)

// IdempotencyOptions tunes key validation. Zero values use a 200 byte limit
// and the token charset [A-Za-z0-9._~:-].
type IdempotencyOptions struct {
	MaxLen  int
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a stored, unexpired result exists for
// the key. TTL is the lookup's business. Errors are treated as a miss.
type IdempotencyLookup func(ctx context.Context, userID, relID, key string, now time.Time) (bool, error)

// IdempotencyValidator rejects malformed keys with 400 and stashes valid
// ones for GetIdempotencyKey. For signed-in callers it consults lookup
// (scoped by the :id route param) and flags hits so the rate limiter lets
// the replay through. Serving the stored response is left to the handler.
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	if opts.MaxLen <= 0 {
		opts.MaxLen = defaultIdemMax
	}
	if opts.Pattern == nil {
		opts.Pattern = defaultIdemPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > opts.MaxLen || !opts.Pattern.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": RequestIDFrom(c),
				"code":       "bad_idempotency_key",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid := userIDFromCtx(c)
		if lookup != nil && uid != "" {
			hit, err := lookup(c.Request.Context(), uid, c.Param("id"), key, time.Now().UTC())
			if err != nil {
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			}
			if hit {
				c.Set(ctxKeyIdemReplay, true)
			}
		}
		c.Next()
	}
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IsReplay reports whether the key matched a stored result.
func IsReplay(c *gin.Context) bool { return c.GetBool(ctxKeyIdemReplay) }
