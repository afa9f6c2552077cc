package healthcheck_api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/vocalisai/api/call-api/config"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
)

type healthCheckApi struct {
	cfg      *config.AppConfig
	logger   commons.Logger
	postgres connectors.PostgresConnector
	redis    connectors.RedisConnector
}

func New(cfg *config.AppConfig, logger commons.Logger, postgres connectors.PostgresConnector, redis connectors.RedisConnector) *healthCheckApi {
	return &healthCheckApi{
		cfg:      cfg,
		logger:   logger,
		postgres: postgres,
		redis:    redis,
	}
}

// Healthz reports process liveness.
func (hc *healthCheckApi) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": hc.cfg.Name,
		"version": hc.cfg.Version,
	})
}

// Readiness reports whether the backing stores are reachable. Both
// stores are pinged in parallel; either one failing makes the service
// not ready.
func (hc *healthCheckApi) Readiness(c *gin.Context) {
	var mu sync.Mutex
	checks := gin.H{"postgres": "ok", "redis": "ok"}

	g, gctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		if err := hc.postgres.Ping(gctx); err != nil {
			mu.Lock()
			checks["postgres"] = err.Error()
			mu.Unlock()
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := hc.redis.Ping(gctx); err != nil {
			mu.Lock()
			checks["redis"] = err.Error()
			mu.Unlock()
			return err
		}
		return nil
	})

	status := http.StatusOK
	if err := g.Wait(); err != nil {
		hc.logger.Errorf("healthcheck: backing store unreachable: %v", err)
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, checks)
}
