package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tinydroplets/imagefetch/internal/fetch"
	"github.com/tinydroplets/imagefetch/internal/resource"
)

// Getter resolves an identifier to resource bytes. *resource.Service
// satisfies it; tests substitute stubs.
type Getter interface {
	Get(ctx context.Context, identifier string) ([]byte, error)
}

// Readiness reports whether the whitelist has been loaded at least once.
type Readiness interface {
	Loaded() bool
}

type Server struct {
	svc   Getter
	ready Readiness
}

func NewServer(svc Getter, ready Readiness) *Server {
	return &Server{svc: svc, ready: ready}
}

// Handler builds the gin engine with the API and probe routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery(), requestLog())

	r.GET("/api/v1/fetch", s.handleFetch)

	// /healthz — basic liveness check
	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	// /readyz — not ready until a whitelist snapshot is in place, since
	// until then every fetch is rejected
	r.GET("/readyz", func(c *gin.Context) {
		if s.ready != nil && !s.ready.Loaded() {
			c.String(http.StatusServiceUnavailable, "whitelist not loaded")
			return
		}
		c.String(http.StatusOK, "ready")
	})

	return r
}

func (s *Server) handleFetch(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url query parameter is required"})
		return
	}

	body, err := s.svc.Get(c.Request.Context(), rawURL)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", body)
}

// statusFor maps the service error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	var netErr *fetch.NetworkError
	switch {
	case errors.Is(err, resource.ErrMalformedInput):
		return http.StatusBadRequest
	case errors.Is(err, resource.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, fetch.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, fetch.ErrSizeLimit):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &netErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := uuid.New().String()[:8]
		c.Set("trace_id", traceID)

		start := time.Now()
		c.Next()

		log.Printf("http: [%s] %s %s -> %d (%s)",
			traceID, c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// Run starts the HTTP server on addr and shuts it down gracefully when
// the context is canceled.
func Run(ctx context.Context, addr string, handler http.Handler) error {
	if addr == "" {
		addr = ":8080"
	}

	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second, // must outlive the fetch deadline
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("http: graceful shutdown error: %v", err)
		}
	}()

	log.Printf("http: listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
