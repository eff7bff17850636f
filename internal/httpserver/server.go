// Package httpserver implements operational HTTP surface of the chat:
// Prometheus metrics, health check and WebSocket gateway into the same live set as TCP peers.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wtask/linechat/internal/chat"
	"github.com/wtask/linechat/internal/chat/conn"
	"github.com/wtask/linechat/internal/metrics"
	"github.com/wtask/linechat/internal/version"
)

// Server - HTTP surface of the chat server.
type Server struct {
	echo      *echo.Echo
	chat      *chat.Server
	log       *slog.Logger
	upgrader  websocket.Upgrader
	startTime time.Time
}

// New - builds HTTP server attached to the chat server.
// Empty allowedOrigins permits only same-origin and non-browser WebSocket clients.
func New(chatServer *chat.Server, allowedOrigins []string, log *slog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod: true,
		LogURI:    true,
		LogStatus: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			log.Debug("HTTP request", "method", v.Method, "uri", v.URI, "status", v.Status)
			return nil
		},
	}))

	s := &Server{
		echo: e,
		chat: chatServer,
		log:  log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     newCheckOrigin(allowedOrigins, log),
		},
		startTime: time.Now(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/ws", s.handleWebSocket)
}

// Handler - returns root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start - listens the address and blocks until Shutdown.
// Returns nil after graceful shutdown.
func (s *Server) Start(address string) error {
	s.log.Info("Ops server is listening", "address", address)
	if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown - gracefully stops HTTP server, upgraded WebSocket connections are left to the chat server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":  "ok",
		"live":    s.chat.Broker().Len(),
		"uptime":  time.Since(s.startTime).Seconds(),
		"version": version.Get(),
	})
}

func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// upgrader has replied with error status already
		s.log.Warn("WebSocket upgrade failed", "remote", c.Request().RemoteAddr, "error", err)
		return nil
	}
	metrics.ConnectionsTotal.WithLabelValues("websocket").Inc()
	if _, err := s.chat.Attach(conn.NewWebSocketTransport(ws, s.chat.MaxLineBytes())); err != nil {
		s.log.Warn("WebSocket connection is not attached", "remote", ws.RemoteAddr().String(), "error", err)
	}
	return nil
}
