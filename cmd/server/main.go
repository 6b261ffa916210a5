package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/Azure/cosmos-explorer-sub003/internal/account"
	"github.com/Azure/cosmos-explorer-sub003/internal/api"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/middleware"
	"github.com/Azure/cosmos-explorer-sub003/internal/api/spec"
	"github.com/Azure/cosmos-explorer-sub003/internal/auth"
	"github.com/Azure/cosmos-explorer-sub003/internal/backend"
	"github.com/Azure/cosmos-explorer-sub003/internal/config"
	"github.com/Azure/cosmos-explorer-sub003/internal/console"
	"github.com/Azure/cosmos-explorer-sub003/internal/database"
	"github.com/Azure/cosmos-explorer-sub003/internal/k8s"
	"github.com/Azure/cosmos-explorer-sub003/internal/metrics"
	"github.com/Azure/cosmos-explorer-sub003/internal/offercache"
	"github.com/Azure/cosmos-explorer-sub003/internal/reconciler"
	"github.com/Azure/cosmos-explorer-sub003/internal/sdk"
	"github.com/Azure/cosmos-explorer-sub003/internal/settings"
	"github.com/Azure/cosmos-explorer-sub003/internal/throughput"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.LogLevel)

	acct, err := account.LoadFile(cfg.AccountConfigPath)
	if err != nil {
		slog.Error("failed to load account context", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	k8sClient, err := initK8sClient(cfg)
	if err != nil {
		slog.Warn("kubernetes client initialization failed; health will report degraded", "error", err)
	}

	var checker k8s.HealthChecker
	if k8sClient != nil {
		checker = k8sClient
	} else {
		checker = &noopChecker{}
	}

	creds := envCredentials(cfg)
	if k8sClient != nil && cfg.CredentialsSecret != "" {
		secretCreds, err := k8s.LoadCredentials(ctx, k8sClient.NewManager(), cfg.Namespace, cfg.CredentialsSecret)
		if err != nil {
			slog.Error("failed to load credentials secret", "error", err, "secret", cfg.CredentialsSecret)
			os.Exit(1)
		}
		creds = secretCreds.Merge(creds)
	}

	db, err := database.New(ctx, cfg.DatabaseURL, database.Options{
		MaxConns:        cfg.DatabaseMaxConns,
		ApplicationName: "cosmos-explorer/" + acct.AccountName,
	})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		slog.Error("failed to apply database schema", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	userRepo := auth.NewRepository(db.Pool())
	offerRepo := offercache.NewRepository(db.Pool())
	consoleLog := console.New(console.NewRepository(db.Pool()), m)

	backends, err := backend.Build(ctx, acct, creds, backend.Options{
		ARMEndpoint:          cfg.ARMEndpoint,
		ARMAPIVersion:        cfg.ARMAPIVersion,
		ARMPollInterval:      cfg.ARMPollInterval,
		ARMMaxPolls:          cfg.ARMMaxPolls,
		TokenServiceEndpoint: cfg.TokenServiceEndpoint,
		Retry: sdk.RetryPolicy{
			MaxAttempts: cfg.SDKRetryAttempts,
			Interval:    time.Duration(cfg.SDKRetryIntervalMs) * time.Millisecond,
		},
	})
	if err != nil {
		slog.Error("failed to configure backends", "error", err)
		os.Exit(1)
	}

	orchestrator := throughput.NewOrchestrator(backends.Families, backends.OfferClient(), consoleLog, offerRepo, m)
	creator := throughput.NewCreator(backends.Families, backends.OfferClient(), consoleLog)
	sessions := settings.NewStore(cfg.SessionTTL, m)

	authService := auth.NewService(userRepo, cfg.BcryptCost)
	if _, err := authService.BootstrapSuperuser(ctx); err != nil {
		slog.Error("failed to bootstrap superuser", "error", err)
		os.Exit(1)
	}

	rec := reconciler.New(offerRepo, orchestrator, consoleLog, m, acct,
		time.Duration(cfg.ReconcilerInterval)*time.Second, cfg.ReconcilerConcurrency)
	go rec.Start(ctx)

	router := api.NewRouter(api.RouterDeps{
		K8sChecker:    checker,
		DBPinger:      db,
		Version:       cfg.Version,
		OpenAPISpec:   spec.OpenAPISpec,
		Gatherer:      registry,
		Authenticator: authService,
		Keys:          authService,
		UserRepo:      userRepo,
		Account:       acct,
		Engine:        orchestrator,
		Creator:       creator,
		Console:       consoleLog,
		Sessions:      sessions,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting throughput settings server",
			"port", cfg.Port,
			"version", cfg.Version,
			"account", acct.AccountName,
			"apiType", acct.APIType,
			"authMode", acct.AuthMode,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("shutting down server", "signal", sig.String())
	case err := <-serverErr:
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

func setupLogger(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(middleware.NewContextHandler(handler)))
}

func initK8sClient(cfg *config.Config) (*k8s.Client, error) {
	var opts []k8s.ClientOption
	if cfg.KubeconfigPath != "" {
		opts = append(opts, k8s.WithKubeconfig(cfg.KubeconfigPath))
	}
	return k8s.NewClient(opts...)
}

func envCredentials(cfg *config.Config) k8s.Credentials {
	return k8s.Credentials{
		TenantID:       cfg.AADTenantID,
		ClientID:       cfg.AADClientID,
		ClientSecret:   cfg.AADClientSecret,
		ARMToken:       cfg.ARMToken,
		DataPlaneToken: cfg.DataPlaneToken,
		MasterKey:      cfg.MasterKey,
		ResourceToken:  cfg.ResourceToken,
		EncryptedToken: cfg.EncryptedToken,
	}
}

// noopChecker returns a degraded status when no K8s client is available.
type noopChecker struct{}

func (n *noopChecker) CheckConnectivity(_ context.Context) k8s.ConnectivityStatus {
	return k8s.ConnectivityStatus{Connected: false}
}
