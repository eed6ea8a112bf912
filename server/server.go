// Package server 以 HTTP 形式提供工具箱的抠图能力。
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/chaos-io/toolbox/config"
	"github.com/chaos-io/toolbox/rembg"
	nhttp "github.com/chaos-io/toolbox/util/http"
)

type Server struct {
	cfg     *config.Config
	store   *Store
	remote  rembg.Remover
	janitor *Janitor
	srv     *http.Server
}

func New(cfg *config.Config) (*Server, error) {
	store, err := NewStore(cfg.Output.Dir)
	if err != nil {
		return nil, err
	}
	janitor, err := NewJanitor(store, cfg.Output.Cleanup, cfg.Output.TTL)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		janitor: janitor,
	}
	if cfg.Remote.Endpoint != "" {
		s.remote = rembg.NewRemote(cfg.Remote.Endpoint, nhttp.NewHTTPClient(nhttp.WithTimeout(cfg.Remote.Timeout)))
	}
	s.srv = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler gin 路由外面包一层 gzip
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(requestID(), accessLog(), gin.Recovery())
	r.MaxMultipartMemory = s.cfg.Server.MaxUploadBytes

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.POST("/chromakey", s.chromaKey)
	v1.GET("/results/:id", s.result)

	return gzhttp.GzipHandler(r)
}

// Run 阻塞直到 ctx 取消，然后优雅退出
func (s *Server) Run(ctx context.Context) error {
	s.janitor.Start()
	defer s.janitor.Stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", s.cfg.Server.Addr, "output", s.store.Dir())
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
