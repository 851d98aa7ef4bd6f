package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpcapi "github.com/clintrovert/relnotes/internal/api/grpc"
	"github.com/clintrovert/relnotes/internal/api/rest"
	"github.com/clintrovert/relnotes/internal/config"
	"github.com/clintrovert/relnotes/internal/leader"
	"github.com/clintrovert/relnotes/internal/temporal"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		panic(fmt.Sprintf("failed to create logger: %v", err))
	}
	defer logger.Sync()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	// Create Temporal client
	temporalClient, err := temporal.NewClient(
		cfg.Temporal.Address,
		cfg.Temporal.Namespace,
		cfg.Temporal.TaskQueue,
		temporal.RunDefaults{
			StageTimeout:   cfg.StageTimeout,
			CurrentVersion: cfg.Repository.CurrentVersion,
			VersionSource:  cfg.Repository.VersionSource,
		},
		logger,
	)
	if err != nil {
		logger.Fatal("failed to create temporal client", zap.Error(err))
	}
	defer temporalClient.Close()

	// Create gRPC health server
	grpcServer := grpcapi.NewServer(logger)

	// Create orchestrator
	orchestrator := leader.NewOrchestrator(temporalClient, grpcServer, leader.DefaultHealthInterval, logger)

	// Create REST API handler
	restHandler := rest.NewHandler(orchestrator, logger)

	// Start REST server
	restAddr := fmt.Sprintf(":%s", cfg.Server.RESTPort)
	restServer := &http.Server{
		Addr:              restAddr,
		Handler:           rest.NewRouter(restHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting REST API server", zap.String("address", restAddr))
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start REST server", zap.Error(err))
		}
	}()

	// Start gRPC server
	grpcAddr := fmt.Sprintf(":%s", cfg.Server.GRPCPort)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal("failed to listen on gRPC port", zap.Error(err))
	}

	grpcSrv := grpc.NewServer()
	grpcServer.Register(grpcSrv)

	go func() {
		logger.Info("starting gRPC server", zap.String("address", grpcAddr))
		if err := grpcSrv.Serve(grpcListener); err != nil {
			logger.Fatal("failed to start gRPC server", zap.Error(err))
		}
	}()

	// Start orchestrator
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := orchestrator.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("orchestrator failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")

	// Shutdown orchestrator
	cancel()
	grpcServer.Shutdown()

	// Shutdown servers
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("REST server shutdown failed", zap.Error(err))
	}
	grpcSrv.GracefulStop()

	logger.Info("shutdown complete")
}
