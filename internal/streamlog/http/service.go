package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sorahel/streamlog/internal/errors"
	"github.com/sorahel/streamlog/internal/streamlog"
)

// Service exposes the state layer over a local REST API.
type Service struct {
	app    *streamlog.Service
	addr   string
	router *gin.Engine
	server *http.Server
}

func NewService(addr string, app *streamlog.Service) *Service {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("failed to set trusted proxies")
	}

	router.Use(
		errors.RecoveryMiddleware(),
		errors.ErrorHandlerMiddleware(),
	)

	s := &Service{
		app:    app,
		addr:   addr,
		router: router,
	}
	s.initRouter()
	return s
}

// Start begins serving in the background.
func (s *Service) Start() error {
	s.server = &http.Server{Addr: s.addr, Handler: s.router}
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Err(err).Msg("http server stopped")
		}
	}()
	log.Info().Str("addr", s.addr).Msg("http service listening")
	return nil
}

// Stop shuts the server down gracefully.
func (s *Service) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Service) initRouter() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api/v1")
	{
		api.GET("/users/:username/channels", s.handleUserChannels)
		api.GET("/users/:username/search", s.handleUserSearch)
		api.GET("/channels/:channel/users/:username/messages", s.handleUserMessages)

		api.GET("/settings", s.handleGetSettings)
		api.POST("/settings", s.handleUpdateSettings)

		api.POST("/channels/:channel", s.handleFollowChannel)
		api.DELETE("/channels/:channel", s.handleUnfollowChannel)

		api.GET("/blacklist", s.handleGetBlacklist)
		api.POST("/blacklist", s.handleAddBlacklist)
		api.DELETE("/blacklist", s.handleClearBlacklist)
		api.DELETE("/blacklist/:username", s.handleRemoveBlacklist)
	}
}
