// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statusserver exposes a small local HTTP surface for diagnostics:
// liveness, the sync engine's status, durable-slot usage, API latency
// windows and Prometheus metrics.
package statusserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/united-manufacturing-hub/ran-console-core/pkg/api/http"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/core"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/models"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/settings/store"
	synceng "github.com/united-manufacturing-hub/ran-console-core/pkg/settings/sync"
)

// StatusPayload is the body of GET /status.
type StatusPayload struct {
	Sync    synceng.Status `json:"sync"`
	Store   store.Usage    `json:"store"`
	Latency struct {
		FirstByte models.Latency `json:"first_byte"`
		Real      models.Latency `json:"real"`
	} `json:"latency"`
}

// Server is the local diagnostics endpoint.
type Server struct {
	core   *core.Core
	addr   string
	log    *zap.SugaredLogger
	server *http.Server
}

func NewServer(c *core.Core, addr string) *Server {
	return &Server{
		core: c,
		addr: addr,
		log:  logger.For(logger.ComponentStatusServer),
	}
}

// Start serves until the listener fails or Stop is called. It blocks, so
// callers run it on its own goroutine.
func (s *Server) Start(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/status", s.handleStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.log.Infow("Starting status server", "addr", s.addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Errorw("Status server failed", "error", err)
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.log.Info("Stopping status server")
	return s.server.Shutdown(ctx)
}

func (s *Server) handleStatus(c *gin.Context) {
	payload := StatusPayload{
		Sync: s.core.SyncStatus(),
	}
	if usage, err := s.core.StoreUsage(); err == nil {
		payload.Store = usage
	}
	payload.Latency.FirstByte = httpapi.GetLatencyTimeTillFirstByte()
	payload.Latency.Real = httpapi.GetRealLatency()

	c.JSON(http.StatusOK, payload)
}
