package call_routers

import (
	"github.com/gin-gonic/gin"

	call_api "github.com/vocalisai/api/call-api/api/call"
	"github.com/vocalisai/api/call-api/config"
	internal_manager "github.com/vocalisai/api/call-api/internal/manager"
	internal_pipeline "github.com/vocalisai/api/call-api/internal/pipeline"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_transformer_registry "github.com/vocalisai/api/call-api/internal/transformer/registry"
	"github.com/vocalisai/pkg/commons"
)

func CallApiRoutes(
	Cfg *config.AppConfig,
	Engine *gin.Engine,
	Logger commons.Logger,
	Store internal_session.Store,
	Manager *internal_manager.Manager,
	Orchestrator *internal_pipeline.Orchestrator,
	Registry *internal_transformer_registry.Registry,
) {
	Logger.Info("Call routes added to engine.")
	api := call_api.NewCallApi(Cfg, Logger, Store, Manager, Orchestrator, Registry)

	v1 := Engine.Group("/v1")
	{
		call := v1.Group("/call")
		{
			call.POST("/incoming/:provider", api.Incoming)
			call.POST("/twilio/status", api.TwilioStatus)
			call.POST("/vonage/status", api.VonageStatus)
			call.POST("/outbound", api.Outbound)
			call.GET("/:id", api.Get)
			call.POST("/:id/transfer", api.Transfer)
			call.POST("/:id/end", api.End)
			call.GET("/media/:sessionId", api.Media)
		}

		v1.GET("/provider/health", api.ProviderHealth)
		v1.POST("/integration/webhook", api.IntegrationWebhook)
	}
}
