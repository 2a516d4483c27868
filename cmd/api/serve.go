package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/melih/lighthouse-storage/internal/adapters/docker"
	"github.com/melih/lighthouse-storage/internal/adapters/http"
	"github.com/melih/lighthouse-storage/internal/config"
	"github.com/melih/lighthouse-storage/internal/core/ports"
	"github.com/melih/lighthouse-storage/internal/core/storage"
	"github.com/melih/lighthouse-storage/internal/logging"
)

const (
	connectTimeout  = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the provisioning API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	envFile, _ := cmd.Flags().GetString("env-file")
	settings, err := config.Load(v, envFile)
	if err != nil {
		return err
	}
	logger, err := logging.New(cmd.ErrOrStderr(), settings.LogLevel)
	if err != nil {
		return err
	}

	// 1. Initialize storage managers, each with its own Docker client
	connect := func() (ports.ContainerRuntime, error) {
		ctx, cancel := context.WithTimeout(cmd.Context(), connectTimeout)
		defer cancel()
		adapter, err := docker.NewAdapter(ctx, settings.DockerHost)
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}
	registry := storage.NewRegistry(settings.StorageOptions(), connect, logger)
	defer func() {
		if err := registry.Close(); err != nil {
			logger.Error("failed to close container runtime", "err", err)
		}
	}()
	logger.Info("services init")
	if err := registry.InitAll(); err != nil {
		return err
	}
	logger.Info("services ready")

	// 2. HTTP layer gets the registry injected
	app := http.NewApp(registry, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "listen", settings.Listen)
		errCh <- app.Listen(settings.Listen)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-cmd.Context().Done():
	}

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
