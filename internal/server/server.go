// Package server exposes trace reconstruction as a small JSON API.
//
// Routes:
//
//	GET /api/instances?skip=&take=         instance picker entries
//	GET /api/instances/:id/trace           loaded view (graph, timeline, state)
//	GET /api/instances/:id/nodes/:node     node detail with execution history
//	GET /healthz                           liveness
//	GET /metrics                           Prometheus metrics
//
// A trace request that partially fails still answers 200 with state
// "error" and whatever panels loaded; only the picker and malformed requests
// map errors to HTTP status codes.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/roach88/elsatrace/internal/elsa"
	"github.com/roach88/elsatrace/internal/trace"
)

// Options configures a Server.
type Options struct {
	Load          trace.LoadOptions
	InstancesPage elsa.Page // default page for the picker
	Catalog       trace.CatalogOptions
}

// Server answers API requests from one Source. Node requests for the same
// instance and node share one upstream read while it is pending.
type Server struct {
	src      trace.Source
	opts     Options
	resolver *trace.Resolver
	catalog  *trace.Catalog

	mu    sync.Mutex
	views map[string]*trace.View // latest view per instance
}

// New creates a server over src.
func New(src trace.Source, opts Options) *Server {
	return &Server{
		src:      src,
		opts:     opts,
		resolver: trace.NewResolver(src),
		catalog:  trace.NewCatalog(src, opts.Catalog),
		views:    map[string]*trace.View{},
	}
}

// Handler builds the gin router.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/instances", s.handleInstances)
		api.GET("/instances/:id/trace", s.handleTrace)
		api.GET("/instances/:id/nodes/:node", s.handleNode)
	}
	return router
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		slog.Info("server stopping")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleInstances(c *gin.Context) {
	page := s.opts.InstancesPage
	var err error
	if page.Skip, err = intQuery(c, "skip", page.Skip); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if page.Take, err = intQuery(c, "take", page.Take); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	options, err := s.catalog.Options(c.Request.Context(), page)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"instances": options})
}

func (s *Server) handleTrace(c *gin.Context) {
	id := c.Param("id")
	v := trace.Load(c.Request.Context(), s.src, id, s.opts.Load)
	s.remember(v)
	c.JSON(http.StatusOK, v)
}

func (s *Server) handleNode(c *gin.Context) {
	ctx := c.Request.Context()
	id, node := c.Param("id"), c.Param("node")

	s.mu.Lock()
	v, ok := s.views[id]
	s.mu.Unlock()
	if !ok {
		v = trace.Load(ctx, s.src, id, s.opts.Load)
		s.remember(v)
	}

	d, err := s.resolver.Resolve(ctx, v, node)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// maxViews bounds the per-instance view memory; it is reset when full.
const maxViews = 128

func (s *Server) remember(v *trace.View) {
	if v.InstanceID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.views[v.InstanceID]; !ok && len(s.views) >= maxViews {
		s.views = map[string]*trace.View{}
	}
	s.views[v.InstanceID] = v
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key + ": " + raw)
	}
	return n, nil
}

// handleError maps upstream failures: an Elsa 404 stays a 404, other Elsa
// errors become 502, anything else 500.
func handleError(c *gin.Context, err error) {
	var apiErr *elsa.APIError
	switch {
	case elsa.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "upstream_status": apiErr.StatusCode})
	case errors.Is(err, trace.ErrNoSelection):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
