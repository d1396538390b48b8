// Package server exposes an embedded platform over HTTP using the same
// auth and row endpoints a hosted platform offers.
package server

import (
	"io"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/tgienger/pmdash/internal/backend/embedded"
)

// Options configures the gateway
type Options struct {
	// AnonKey, when set, must be sent in the apikey header of every request.
	AnonKey string
	Logger  *log.Logger
}

type handlers struct {
	db     *embedded.DB
	tokens *embedded.Tokens
	logger *log.Logger
}

// NewRouter builds the gateway's routes over db
func NewRouter(db *embedded.DB, tokens *embedded.Tokens, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	h := &handlers{db: db, tokens: tokens, logger: logger}

	r := gin.New()
	r.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	r.GET("/health", h.health)

	authed := r.Group("/", apiKey(opts.AnonKey), session(tokens))
	{
		auth := authed.Group("/auth/v1")
		{
			auth.POST("/signup", h.signUp)
			auth.POST("/token", h.token)
			auth.POST("/logout", h.logout)
			auth.GET("/user", requireUser(), h.user)
		}

		rows := authed.Group("/rest/v1")
		{
			rows.GET("/:table", h.selectRows)
			rows.POST("/:table", h.insertRow)
			rows.PATCH("/:table", h.updateRow)
			rows.DELETE("/:table", h.deleteRows)
		}
	}

	return r
}
