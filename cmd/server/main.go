package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Brownie44l1/scene-api/internal/config"
	"github.com/Brownie44l1/scene-api/internal/handlers"
	"github.com/Brownie44l1/scene-api/internal/imageproc"
	"github.com/Brownie44l1/scene-api/internal/inference"
	"github.com/Brownie44l1/scene-api/internal/logger"
	"github.com/Brownie44l1/scene-api/internal/metrics"
	"github.com/Brownie44l1/scene-api/internal/model"
	"github.com/Brownie44l1/scene-api/internal/router"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// projectRoot returns the working directory, or the repository root when the
// binary is started from cmd/server.
func projectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if filepath.Base(wd) == "server" && filepath.Base(filepath.Dir(wd)) == "cmd" {
		wd = filepath.Join(wd, "../..")
	}
	return wd, nil
}

func run() error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	configPath := config.ParseConfigFlag()
	if !filepath.IsAbs(configPath) {
		configPath = filepath.Join(root, configPath)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	gin.SetMode(cfg.Server.Mode)

	interp, err := imageproc.ParseInterpolation(cfg.Model.Interpolation)
	if err != nil {
		return err
	}

	modelPath := cfg.Model.Path
	if !filepath.IsAbs(modelPath) {
		modelPath = filepath.Join(root, modelPath)
	}
	log.Info("Loading model", zap.String("path", modelPath))

	metadata := model.DefaultMetadata()
	modelServer, err := model.NewServer(model.Options{
		ModelPath:     modelPath,
		SharedLibrary: cfg.Model.SharedLibrary,
		InputName:     cfg.Model.InputName,
		OutputName:    cfg.Model.OutputName,
	}, metadata)
	if err != nil {
		log.Error("Failed to initialize model server", zap.Error(err))
		return fmt.Errorf("failed to initialize model server: %w", err)
	}
	defer modelServer.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	svc, err := inference.NewService(modelServer, metadata,
		imageproc.NewPreprocessor(model.ImageSize, interp), log, m)
	if err != nil {
		return fmt.Errorf("failed to create inference service: %w", err)
	}

	h := handlers.NewHandler(svc, metadata, log, m, cfg.Server.MaxUploadBytes)
	r := router.Setup(h, reg, log)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("Starting server",
		zap.String("address", srv.Addr),
		zap.Strings("classes", svc.Labels()),
		zap.String("interpolation", cfg.Model.Interpolation),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	return serve(srv, quit, log)
}

// serve runs srv until a signal arrives on quit, then shuts it down. A
// listener failure is returned so that run's deferred cleanup still happens.
func serve(srv *http.Server, quit <-chan os.Signal, log *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		log.Error("Server failed", zap.Error(err))
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
	return nil
}
