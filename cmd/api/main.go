// Command api runs the course catalog and enrollment service.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Ultrahd-dev/course-catalog-app/internal/config"
	"github.com/Ultrahd-dev/course-catalog-app/internal/grpc"
	"github.com/Ultrahd-dev/course-catalog-app/internal/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "api:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "api",
		Short:         "Course catalog and enrollment service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load .env: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "path to the YAML config file")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the gRPC health listener",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), configPath)
		},
	}

	root.AddCommand(serve, newHashPasswordCmd(), newTokenCmd(&configPath))
	return root
}

func runServe(parent context.Context, configPath string) error {
	if parent == nil {
		parent = context.Background()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.Log.Level)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("startup: %w", err)
	}

	httpLis, grpcLis, err := bindListeners(cfg.Server.Port, cfg.Server.GRPCPort)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Handler: a.handler}
	grpcServer := grpc.NewServer()

	// Both ports are bound, so health may report SERVING.
	grpcServer.SetServing(true)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logging.Infof("HTTP API listening on %s", httpLis.Addr())
		if err := httpServer.Serve(httpLis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return grpcServer.Serve(grpcLis)
	})

	g.Go(func() error {
		<-gctx.Done()
		logging.Infof("shutting down")
		grpcServer.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.Stop()
		if err != nil {
			return fmt.Errorf("HTTP shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logging.Infof("server stopped")
	return nil
}

// bindListeners opens the HTTP and gRPC ports. On failure nothing is left
// open.
func bindListeners(httpPort, grpcPort int) (net.Listener, net.Listener, error) {
	httpLis, err := net.Listen("tcp", fmt.Sprintf(":%d", httpPort))
	if err != nil {
		return nil, nil, fmt.Errorf("listen on HTTP port %d: %w", httpPort, err)
	}
	grpcLis, err := net.Listen("tcp", fmt.Sprintf(":%d", grpcPort))
	if err != nil {
		httpLis.Close()
		return nil, nil, fmt.Errorf("listen on gRPC port %d: %w", grpcPort, err)
	}
	return httpLis, grpcLis, nil
}
