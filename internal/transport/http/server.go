package http

import (
	"context"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirelobby-server/internal/config"
	"github.com/vovakirdan/wirelobby-server/internal/core"
	"github.com/vovakirdan/wirelobby-server/internal/gateway"
	"github.com/vovakirdan/wirelobby-server/internal/metrics"
	"github.com/vovakirdan/wirelobby-server/internal/store"
)

// Deps are the components the HTTP layer serves.
type Deps struct {
	Hub     *core.Hub
	Gateway *gateway.Gateway
	Journal store.Journal    // optional
	Metrics *metrics.Metrics // optional
}

// Server is the HTTP server plus the WebSocket connections it hijacked.
type Server struct {
	*stdhttp.Server
	ws *WSHandler
}

// NewServer builds the HTTP server with the WebSocket endpoint and the
// read-only lobby API.
func NewServer(deps Deps, cfg config.Config, logger *zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	rooms := NewRoomHandlers(deps.Hub, deps.Journal, logger)
	api := router.Group("/api")
	api.GET("/stats", rooms.Stats)
	api.GET("/rooms", rooms.ListRooms)
	api.GET("/rooms/:id", rooms.GetRoom)
	api.GET("/rooms/:id/members", rooms.RoomMembers)
	api.GET("/rooms/:id/activity", rooms.RoomActivity)

	// The upgrade must see the raw ResponseWriter: gin's writer refuses
	// to hijack once the 101 status is written.
	ws := NewWSHandler(deps.Hub, deps.Gateway, WSOptions{
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowedOrigins:     cfg.CORSAllowedOrigins,
	}, logger)
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	handler := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{stdhttp.MethodGet, stdhttp.MethodOptions},
		AllowedHeaders: []string{"*"},
	}).Handler(mux)

	srv := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	srv.RegisterOnShutdown(ws.CloseAll)

	return &Server{Server: srv, ws: ws}
}

// Drain closes every WebSocket connection and waits until their lobby
// cleanup has finished or ctx is done.
func (s *Server) Drain(ctx context.Context) error {
	return s.ws.Drain(ctx)
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
