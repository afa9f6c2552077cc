package call_routers

import (
	"github.com/gin-gonic/gin"

	healthCheckApi "github.com/vocalisai/api/call-api/api/healthcheck"
	"github.com/vocalisai/api/call-api/config"
	"github.com/vocalisai/pkg/commons"
	"github.com/vocalisai/pkg/connectors"
)

func HealthCheckRoutes(cfg *config.AppConfig, engine *gin.Engine, logger commons.Logger, postgres connectors.PostgresConnector, redis connectors.RedisConnector) {
	logger.Info("Internal HealthCheckRoutes and Connectors added to engine.")
	apiv1 := engine.Group("")
	hcApi := healthCheckApi.New(cfg, logger, postgres, redis)
	{
		apiv1.GET("/readiness/", hcApi.Readiness)
		apiv1.GET("/healthz/", hcApi.Healthz)
	}
}
