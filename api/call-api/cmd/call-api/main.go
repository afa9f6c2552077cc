// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zapcore"

	call_routers "github.com/vocalisai/api/call-api/router"

	"github.com/vocalisai/api/call-api/config"
	internal_broadcast "github.com/vocalisai/api/call-api/internal/broadcast"
	internal_manager "github.com/vocalisai/api/call-api/internal/manager"
	internal_pipeline "github.com/vocalisai/api/call-api/internal/pipeline"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	internal_twilio_telephony "github.com/vocalisai/api/call-api/internal/telephony/twilio"
	internal_vonage_telephony "github.com/vocalisai/api/call-api/internal/telephony/vonage"
	internal_transformer_registry "github.com/vocalisai/api/call-api/internal/transformer/registry"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
	"github.com/vocalisai/pkg/utils"
)

func main() {
	vConfig, err := config.InitConfig()
	if err != nil {
		log.Fatalf("failed to initialize config: %v", err)
	}
	cfg, err := config.GetApplicationConfig(vConfig)
	if err != nil {
		log.Fatalf("failed to load application config: %v", err)
	}

	level := zapcore.InfoLevel
	if parsed, perr := zapcore.ParseLevel(cfg.LogLevel); perr == nil {
		level = parsed
	}
	logger, err := commons.NewApplicationLogger(commons.WithLevel(level))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Infof("starting %s %s (%s)", cfg.Name, cfg.Version, cfg.Environment)

	postgres, err := connectors.NewPostgresConnector(
		cfg.PostgresConfig.Host,
		cfg.PostgresConfig.Port,
		cfg.PostgresConfig.User,
		cfg.PostgresConfig.Password,
		cfg.PostgresConfig.DbName,
		logger,
	)
	if err != nil {
		logger.Fatalf("failed to connect postgres: %v", err)
	}
	defer func() { _ = postgres.Close() }()

	if err := postgres.DB(context.Background()).AutoMigrate(&internal_session.CallSession{}); err != nil {
		logger.Fatalf("failed to migrate call session schema: %v", err)
	}

	redis, err := connectors.NewRedisConnector(
		cfg.RedisConfig.Host,
		cfg.RedisConfig.Port,
		cfg.RedisConfig.Password,
		cfg.RedisConfig.Db,
		logger,
	)
	if err != nil {
		logger.Fatalf("failed to connect redis: %v", err)
	}
	defer func() { _ = redis.Close() }()

	store := internal_session.NewStore(postgres, logger)
	callRegistry := internal_session.NewRegistry(redis, logger)
	adapterRegistry := internal_transformer_registry.New(logger, cfg)

	telephony := buildTelephony(cfg, logger)
	broadcaster := buildBroadcaster(cfg, logger)
	defer broadcaster.Close()

	manager := internal_manager.NewManager(
		logger,
		store,
		callRegistry,
		internal_manager.NewStaticRouting(cfg.DefaultAssistantID),
		telephony,
		broadcaster,
	)
	orchestrator := internal_pipeline.NewOrchestrator(logger, cfg, adapterRegistry, store, nil)

	if utils.FromEnvironmentStr(cfg.Environment) == utils.PRODUCTION {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Hub-Signature-256", "X-Signature"},
		MaxAge:       12 * time.Hour,
	}))

	call_routers.HealthCheckRoutes(cfg, engine, logger, postgres, redis)
	call_routers.CallApiRoutes(cfg, engine, logger, store, manager, orchestrator, adapterRegistry)

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler: engine,
	}

	go func() {
		logger.Infof("listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("graceful shutdown failed: %v", err)
	}
}

// buildTelephony constructs one provider per configured vendor. A bad
// credential skips that vendor; the service still serves the others.
func buildTelephony(cfg *config.AppConfig, logger commons.Logger) map[string]internal_telephony.Provider {
	telephony := make(map[string]internal_telephony.Provider, len(cfg.Telephony))
	for name, credential := range cfg.Telephony {
		var provider internal_telephony.Provider
		var err error

		switch name {
		case internal_telephony.ProviderTwilio:
			provider, err = internal_twilio_telephony.NewTwilio(credential, logger)
		case internal_telephony.ProviderVonage:
			provider, err = internal_vonage_telephony.NewVonage(credential, logger)
		default:
			logger.Warnf("unsupported telephony provider %q, skipping", name)
			continue
		}
		if err != nil {
			logger.Errorf("failed to configure telephony provider %s: %v", name, err)
			continue
		}
		telephony[name] = provider
	}
	return telephony
}

// buildBroadcaster wires one webhook sink per configured integration
// plus the opensearch analytics sink when a cluster is configured.
func buildBroadcaster(cfg *config.AppConfig, logger commons.Logger) *internal_broadcast.Broadcaster {
	sinks := make([]internal_broadcast.Sink, 0, len(cfg.IntegrationSinks)+1)
	for _, sink := range cfg.IntegrationSinks {
		sinks = append(sinks, internal_broadcast.NewWebhookSink(sink, logger))
	}

	if len(cfg.OpenSearchConfig.Addresses) > 0 {
		opensearch, err := connectors.NewOpenSearchConnector(
			cfg.OpenSearchConfig.Addresses,
			cfg.OpenSearchConfig.User,
			cfg.OpenSearchConfig.Password,
			logger,
		)
		if err != nil {
			logger.Errorf("failed to connect opensearch, analytics sink disabled: %v", err)
		} else {
			sinks = append(sinks, internal_broadcast.NewOpenSearchSink(opensearch, logger))
		}
	}

	return internal_broadcast.NewBroadcaster(logger, sinks...)
}
