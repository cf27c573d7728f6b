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

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/united-manufacturing-hub/ran-console-core/pkg/config"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/core"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/logger"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/statusserver"
	"github.com/united-manufacturing-hub/ran-console-core/pkg/watchdog"
)

func main() {
	logger.Initialize()
	log := logger.For(logger.ComponentCore)

	configPath := flag.String("config", "", "path to runtime.yaml (default: <dataDir>/runtime.yaml)")
	flag.Parse()

	rc, err := config.Load(*configPath)
	if err != nil {
		log.Errorw("Failed to load runtime config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dog := watchdog.NewWatchdog(ctx, time.NewTicker(10*time.Second), logger.For(logger.ComponentWatchdog))
	dog.Start()

	c := core.New(rc, dog)
	if err := c.Start(ctx); err != nil {
		log.Errorw("Failed to start core", "error", err)
		os.Exit(1)
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var status *statusserver.Server
	if rc.StatusAddr != "" {
		status = statusserver.NewServer(c, rc.StatusAddr)
		group.Go(func() error {
			return status.Start(groupCtx)
		})
		group.Go(func() error {
			<-groupCtx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer shutdownCancel()
			return status.Stop(shutdownCtx)
		})
	}

	<-ctx.Done()
	log.Info("Shutting down")

	c.Stop()
	if err := group.Wait(); err != nil {
		log.Warnw("Shutdown finished with error", "error", err)
	}
}
