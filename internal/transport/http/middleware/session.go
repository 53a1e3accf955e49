package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"taskbox/internal/session"
	"taskbox/internal/transport/http/response"
)

const ContextSessionKey = "session"

type CookieOptions struct {
	Name     string
	Secure   bool
	SameSite http.SameSite
}

func ParseSameSite(raw string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// Session resolves the caller's session from its signed cookie, starting a
// new one when the cookie is missing or invalid, and re-signs the cookie so
// its expiry slides forward.
func Session(store session.Store, codec *session.CookieCodec, opts CookieOptions) gin.HandlerFunc {
	maxAge := int(codec.TTL().Seconds())

	return func(c *gin.Context) {
		var sessionID string
		if raw, err := c.Cookie(opts.Name); err == nil && raw != "" {
			if id, err := codec.Decode(raw); err == nil {
				sessionID = id
			}
		}
		if sessionID == "" {
			sessionID = session.NewID()
		}

		value, err := codec.Encode(sessionID)
		if err != nil {
			response.Error(c, http.StatusInternalServerError, "server error")
			c.Abort()
			return
		}
		c.SetSameSite(opts.SameSite)
		c.SetCookie(opts.Name, value, maxAge, "/", "", opts.Secure, true)

		c.Set(ContextSessionKey, session.New(sessionID, store))
		c.Next()
	}
}

func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}
