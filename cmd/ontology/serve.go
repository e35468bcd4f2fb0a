// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/AleutianOntology/services/ontology"
	"github.com/AleutianAI/AleutianOntology/services/ontology/telemetry"
	"github.com/AleutianAI/AleutianOntology/services/ontology/tools"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(g *globalOptions) *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the ontology HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if debug {
				gin.SetMode(gin.DebugMode)
			} else {
				gin.SetMode(gin.ReleaseMode)
			}
			return runServe(cmd, g)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable gin debug mode and request logging")
	return cmd
}

func runServe(cmd *cobra.Command, g *globalOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(g, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	shutdownTelemetry, err := telemetry.Init(ctx, a.cfg.Telemetry, telemetry.WithVersion(a.cfg.Server.Version))
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			a.logger.Warn("Telemetry shutdown failed", "error", err)
		}
	}()

	// The server starts unready when records are missing or broken; an
	// admin reload can bring it up later.
	if a.cfg.Records.Path != "" {
		if err := a.loadRecords(ctx); err != nil {
			a.logger.Error("Initial load failed", "records_path", a.cfg.Records.Path, "error", err)
		}
	} else {
		a.logger.Warn("No records path configured, serving an empty graph")
	}

	srv := &http.Server{
		Addr:              a.cfg.HTTP.Addr(),
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting ontology server", "address", srv.Addr, "name", a.cfg.Server.Name)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down ontology server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newRouter mounts the ops and tool routes under /v1 plus /metrics.
func newRouter(a *app) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware(a.cfg.Telemetry.ServiceName))

	if a.cfg.HTTP.EnableCORS {
		corsCfg := cors.Config{
			AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowHeaders:  []string{"Content-Type", "X-Request-ID"},
			ExposeHeaders: []string{"X-Request-ID", "Retry-After"},
			MaxAge:        12 * time.Hour,
		}
		if len(a.cfg.HTTP.AllowedOrigins) == 0 {
			corsCfg.AllowAllOrigins = true
		} else {
			corsCfg.AllowOrigins = a.cfg.HTTP.AllowedOrigins
		}
		router.Use(cors.New(corsCfg))
	}

	router.GET("/metrics", gin.WrapH(telemetry.MetricsHandler()))

	v1 := router.Group("/v1")
	ontology.RegisterRoutes(v1, ontology.NewHandlers(a.svc))
	tools.RegisterRoutes(v1, tools.NewHandlers(a.dispatcher))
	return router
}
