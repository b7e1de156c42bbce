package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/genecyber/NOESIS-sub002/pkg/api"
	"github.com/genecyber/NOESIS-sub002/pkg/metrics"
	"github.com/genecyber/NOESIS-sub002/pkg/session"
	"github.com/genecyber/NOESIS-sub002/pkg/store"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := loadApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if err := a.openStore(ctx); err != nil {
		a.logger.Warn("store unavailable", zap.Error(err))
		fmt.Fprintf(out, "Warning: %v (save and load disabled)\n", err)
	}
	if serveHost != "" {
		a.cfg.Server.Host = serveHost
	}
	if servePort != 0 {
		a.cfg.Server.Port = servePort
	}

	m := metrics.New()
	a.store = store.WithMetrics(a.store, m)
	hub := api.NewHub(a.logger)
	go hub.Run()
	defer hub.Stop()

	registry := session.NewRegistry(a.cfg, m,
		session.WithLogger(a.logger),
		session.WithListener(hub.Publish),
	)

	server := newAPIServer(a, registry, hub, m)
	if err := server.Start(); err != nil {
		return err
	}

	printBanner(out, a, "API Server")
	fmt.Fprintf(out, "API:     http://%s/api/sessions\n", server.Address())
	fmt.Fprintf(out, "Events:  ws://%s/ws\n", server.Address())
	fmt.Fprintf(out, "Metrics: http://%s/metrics\n", server.Address())

	<-ctx.Done()
	fmt.Fprintln(out, "\nShutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("api server shutdown failed", zap.Error(err))
	}

	if a.cfg.Session.AutoSave {
		if n := a.saveSessions(shutdownCtx, registry.List()...); n > 0 {
			fmt.Fprintf(out, "Saved %d session(s)\n", n)
		}
	}
	return nil
}

// newAPIServer mounts every API route, the event socket and the metrics
// endpoint on a new server.
func newAPIServer(a *app, registry *session.Registry, hub *api.Hub, m *metrics.Metrics) *api.Server {
	server := api.NewServer(api.FromConfig(a.cfg.Server), a.logger)
	router := server.Router()

	api.NewSessionsHandler(registry, a.store, a.logger).RegisterRoutes(router)
	api.NewBranchesHandler(registry).RegisterRoutes(router)
	api.NewCheckpointsHandler(registry).RegisterRoutes(router)
	api.NewWebSocketHandler(hub).RegisterRoutes(router)

	router.GET("/metrics", m.Handler().ServeHTTP)
	router.GET("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"status":   "ok",
			"version":  version,
			"sessions": registry.Len(),
			"clients":  hub.ClientCount(),
		})
	})
	return server
}
