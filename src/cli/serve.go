// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/H0llyW00dzZ/tls-trust-validator/src/logger"
)

// TrustChecker is the check surface the HTTP server and MCP tool depend on.
type TrustChecker interface {
	Check(ctx context.Context, t Target) (*Report, error)
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	Host     string `json:"host" binding:"required"`
	Port     int    `json:"port"`
	OCSPMode string `json:"ocsp_mode"`
	FailHard *bool  `json:"fail_hard"`
}

// Server exposes a checker over HTTP.
type Server struct {
	r       *gin.Engine
	checker TrustChecker
	log     *logger.Scoped
}

// NewServer routes /healthz, /v1/check and, when gatherer is non-nil, /metrics.
func NewServer(checker TrustChecker, gatherer prometheus.Gatherer, log *logger.Scoped) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{r: r, checker: checker, log: log}
	s.routes(gatherer)
	return s
}

func (s *Server) routes(gatherer prometheus.Gatherer) {
	s.r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		s.r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := s.r.Group("/v1")
	{
		v1.POST("/check", s.handleCheck)
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler { return s.r }

func (s *Server) handleCheck(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_REQUEST", Message: err.Error()})
		return
	}

	report, err := s.checker.Check(c.Request.Context(), Target{
		Host:     req.Host,
		Port:     req.Port,
		OCSPMode: req.OCSPMode,
		FailHard: req.FailHard,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidTarget) {
			c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_TARGET", Message: err.Error()})
			return
		}
		s.log.Errorf("Check failed: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL", Message: "check failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
