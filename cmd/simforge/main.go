package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/praxisworks/simforge/internal/config"
	"github.com/praxisworks/simforge/internal/domain/event"
	"github.com/praxisworks/simforge/internal/ecosystem"
	"github.com/praxisworks/simforge/internal/engine"
	"github.com/praxisworks/simforge/internal/httpapi"
	"github.com/praxisworks/simforge/internal/resilience"
	"github.com/praxisworks/simforge/internal/server"
	"github.com/praxisworks/simforge/internal/storage"
	"github.com/praxisworks/simforge/internal/storage/sqlite"
	"github.com/praxisworks/simforge/internal/ws"
)

func main() {
	root := &cobra.Command{
		Use:   "simforge",
		Short: "Software project simulation engine",
	}
	root.AddCommand(serveCmd(), breakersCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the simulation server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "simforge.yml", "config file path")
	return cmd
}

func runServe(configPath string) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	var repos storage.Repositories
	if cfg.DatabasePath != "" {
		store, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return fmt.Errorf("store init: %w", err)
		}
		defer store.Close()
		repos = store.Repositories()
	} else {
		repos = storage.NewInMemory().Repositories()
	}

	registry := resilience.NewRegistry()
	ecosystem.RegisterAll(registry, cfg.BreakerSettings())
	invoker := resilience.NewInvoker(registry, logger)

	gateway := ws.NewGateway()
	bus := event.NewBus(logger).WithSink(gateway).WithHistoryLimit(cfg.HistoryLimit)

	eng := engine.New(repos,
		ecosystem.LocalDocumentGenerator{}, ecosystem.LocalWorkflowExecutor{},
		invoker, bus, logger)

	svc := httpapi.NewService(eng, registry, logger)
	router := httpapi.NewRouter(svc, gateway.Handler())

	srv, err := server.New(server.Config{
		Addr:       cfg.ListenAddr,
		SocketPath: cfg.SocketPath,
		Handler:    router,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("server init: %w", err)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	if err := srv.Start(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func breakersCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "breakers",
		Short: "Show circuit breaker status on a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := http.Get("http://" + addr + "/api/breakers")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server returned %s: %s", resp.Status, body)
			}
			var statuses []resilience.Status
			if err := json.NewDecoder(resp.Body).Decode(&statuses); err != nil {
				return err
			}
			for _, st := range statuses {
				fmt.Printf("%-24s %-10s failures=%d successes=%d\n",
					st.Service, st.State, st.FailureCount, st.SuccessCount)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:7440", "server address")
	return cmd
}
