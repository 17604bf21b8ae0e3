package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/joekir/ssdeepviz/internal/wire"
)

const sessionIDKey = "sessionID"

// SessionAuth resolves the bearer token to a hash session id.
//
// A request without a token has no session to act on and is answered with
// 428 Precondition Required; a token that fails verification gets 401.
func SessionAuth(tokens *crypto.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusPreconditionRequired, wire.ErrorResponse{Error: "no session detected"})
			return
		}

		sessionID, err := tokens.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, wire.ErrorResponse{Error: "invalid session token"})
			return
		}

		c.Set(sessionIDKey, sessionID)
		c.Next()
	}
}

// GetSessionID returns the session id set by SessionAuth.
func GetSessionID(c *gin.Context) (string, bool) {
	v, ok := c.Get(sessionIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on websocket upgrades, so the token query parameter is accepted too.
func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	return c.Query("token")
}
