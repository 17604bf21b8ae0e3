package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*gin.Engine, *crypto.TokenManager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := crypto.NewTokenManager("secret", time.Hour)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", SessionAuth(tokens), func(c *gin.Context) {
		id, _ := GetSessionID(c)
		c.String(http.StatusOK, id)
	})
	return r, tokens
}

func TestSessionAuth(t *testing.T) {
	t.Parallel()

	r, tokens := newAuthRouter(t)
	tok, err := tokens.CreateToken("s-42")
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		query  string
		code   int
		body   string
	}{
		{name: "missing", code: http.StatusPreconditionRequired},
		{name: "malformed", header: "Token abc", code: http.StatusPreconditionRequired},
		{name: "invalid", header: "Bearer abc", code: http.StatusUnauthorized},
		{name: "header", header: "Bearer " + tok, code: http.StatusOK, body: "s-42"},
		{name: "query", query: "?token=" + tok, code: http.StatusOK, body: "s-42"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami"+tc.query, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.code, w.Code)
			if tc.body != "" {
				require.Equal(t, tc.body, w.Body.String())
			}
		})
	}
}
