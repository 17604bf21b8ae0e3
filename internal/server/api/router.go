// Package api assembles the engine server's HTTP routes.
package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joekir/ssdeepviz/internal/server/api/handlers"
	"github.com/joekir/ssdeepviz/internal/server/api/middleware"
	"github.com/joekir/ssdeepviz/internal/server/crypto"
	"github.com/joekir/ssdeepviz/internal/server/engine"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the routes are bound to.
type Deps struct {
	Engines        *engine.Manager
	Tokens         *crypto.TokenManager
	AllowedOrigins []string
}

// NewRouter returns the gin engine serving every endpoint.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Authorization", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
	}))
	router.Use(middleware.LoggingMiddleware())

	hashHandler := handlers.NewHashHandler(deps.Engines, deps.Tokens)
	streamHandler := handlers.NewStreamHandler(deps.Engines)
	auth := middleware.SessionAuth(deps.Tokens)

	router.GET("/healthz", hashHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Legacy routes used by the browser visualization.
	router.POST("/NewHash", hashHandler.NewHash)
	router.POST("/StepHash", auth, hashHandler.StepHash)

	v1 := router.Group("/v1")
	{
		v1.POST("/hashes", hashHandler.NewHash)
		v1.GET("/hashes/stream", streamHandler.HandleStream)
		v1.POST("/compare", hashHandler.Compare)
	}

	protected := v1.Group("")
	protected.Use(auth)
	{
		protected.POST("/hashes/step", hashHandler.StepHash)
		protected.GET("/hashes/current", hashHandler.GetCurrent)
		protected.DELETE("/hashes/current", hashHandler.DeleteCurrent)
	}

	return router
}
