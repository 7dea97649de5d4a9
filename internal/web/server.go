// Package web serves the task view as HTML pages and a small JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gtodo/internal/metrics"
	"gtodo/internal/view"
)

//go:embed templates/*.html
var templateFS embed.FS

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server renders a single shared view. gtodo is a single-user app, so every
// browser sees the same draft, edit buffer and banner.
type Server struct {
	view    *view.View
	log     *slog.Logger
	version string
	engine  *gin.Engine
}

// New builds the router. The view is not loaded; Run does that once
// before serving.
func New(v *view.View, log *slog.Logger, version string) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		view:    v,
		log:     log,
		version: version,
		engine:  gin.New(),
	}

	s.engine.Use(gin.Recovery(), metrics.Middleware(), s.requestLogger())
	s.engine.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine

	r.GET("/", s.index)
	r.POST("/reload", s.reload)
	r.POST("/tasks", s.createTask)
	r.POST("/tasks/:id/toggle", s.toggleTask)
	r.POST("/tasks/:id/edit", s.startEdit)
	r.POST("/tasks/:id/save", s.saveEdit)
	r.POST("/tasks/:id/cancel", s.cancelEdit)
	r.POST("/tasks/:id/delete", s.deleteTask)

	r.GET("/api/tasks", s.apiTasks)
	r.GET("/healthz", s.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run loads the list, then serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	// Load failures end up on the banner.
	_ = s.view.Load(ctx)

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server exited")
	return nil
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
