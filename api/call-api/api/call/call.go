package call_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/vocalisai/api/call-api/config"
	internal_broadcast "github.com/vocalisai/api/call-api/internal/broadcast"
	internal_manager "github.com/vocalisai/api/call-api/internal/manager"
	internal_pipeline "github.com/vocalisai/api/call-api/internal/pipeline"
	internal_session "github.com/vocalisai/api/call-api/internal/session"
	internal_telephony "github.com/vocalisai/api/call-api/internal/telephony"
	internal_transformer_registry "github.com/vocalisai/api/call-api/internal/transformer/registry"
	"github.com/vocalisai/pkg/commons"
)

type CallApi struct {
	cfg          *config.AppConfig
	logger       commons.Logger
	store        internal_session.Store
	manager      *internal_manager.Manager
	orchestrator *internal_pipeline.Orchestrator
	registry     *internal_transformer_registry.Registry
}

func NewCallApi(
	cfg *config.AppConfig,
	logger commons.Logger,
	store internal_session.Store,
	manager *internal_manager.Manager,
	orchestrator *internal_pipeline.Orchestrator,
	registry *internal_transformer_registry.Registry,
) *CallApi {
	return &CallApi{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		manager:      manager,
		orchestrator: orchestrator,
		registry:     registry,
	}
}

// parseCallbackBody reads a vendor callback that may arrive as JSON
// (Vonage) or form-encoded data (Twilio).
func parseCallbackBody(c *gin.Context) (map[string]interface{}, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body")
	}

	details := make(map[string]interface{})
	if err := json.Unmarshal(body, &details); err == nil {
		return details, nil
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request body")
	}
	for key := range values {
		details[key] = values.Get(key)
	}
	return details, nil
}

func stringField(details map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if value, ok := details[key].(string); ok && value != "" {
			return value
		}
	}
	return ""
}

// Incoming handles the inbound-call webhook from the telephony vendor
// and answers with the session id plus the media socket to connect.
func (api *CallApi) Incoming(c *gin.Context) {
	provider := c.Param("provider")

	details, err := parseCallbackBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callID := stringField(details, "CallSid", "uuid", "call_id")
	caller := stringField(details, "From", "from", "caller")
	if callID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "callback carries no call identifier"})
		return
	}

	cs, err := api.manager.HandleIncomingCall(c.Request.Context(), provider, callID, caller)
	if err != nil {
		api.logger.Errorf("call-api: failed to handle incoming call %s/%s: %v", provider, callID, err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessionId": cs.SessionID,
		"mediaUrl":  fmt.Sprintf("%s/v1/call/media/%s", api.cfg.PublicURL, cs.SessionID),
	})
}

// TwilioStatus ingests Twilio's form-encoded status callbacks.
func (api *CallApi) TwilioStatus(c *gin.Context) {
	details, err := parseCallbackBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callID := stringField(details, "CallSid")
	status := stringField(details, "CallStatus")
	if err := api.manager.HandleStatusCallback(c.Request.Context(),
		internal_telephony.ProviderTwilio, callID, status); err != nil {
		api.logger.Errorf("call-api: twilio status callback failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// VonageStatus ingests Vonage's JSON event callbacks.
func (api *CallApi) VonageStatus(c *gin.Context) {
	details, err := parseCallbackBody(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	callID := stringField(details, "uuid")
	status := stringField(details, "status")
	if err := api.manager.HandleStatusCallback(c.Request.Context(),
		internal_telephony.ProviderVonage, callID, status); err != nil {
		api.logger.Errorf("call-api: vonage status callback failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

type outboundRequest struct {
	PhoneNumber string `json:"phoneNumber" binding:"required"`
	AssistantID string `json:"assistantId"`
	WorkflowID  string `json:"workflowId"`
	SquadID     string `json:"squadId"`
	Provider    string `json:"provider"`
}

// Outbound places an outbound call. Placement failures surface
// immediately to the API caller; they are not retried.
func (api *CallApi) Outbound(c *gin.Context) {
	var req outboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider := req.Provider
	if provider == "" {
		provider = api.cfg.TelephonyProvider
	}
	assistantID := req.AssistantID
	if assistantID == "" && req.WorkflowID == "" && req.SquadID == "" {
		assistantID = api.cfg.DefaultAssistantID
	}

	cs := &internal_session.CallSession{
		Direction:         internal_session.DirectionOutbound,
		Status:            internal_session.StatusRinging,
		AssistantID:       assistantID,
		WorkflowID:        req.WorkflowID,
		SquadID:           req.SquadID,
		PhoneNumber:       req.PhoneNumber,
		TelephonyProvider: provider,
	}
	if _, err := api.store.Save(c.Request.Context(), cs); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	answerURL := fmt.Sprintf("%s/v1/call/incoming/%s", api.cfg.PublicURL, provider)
	statusURL := fmt.Sprintf("%s/v1/call/%s/status", api.cfg.PublicURL, provider)
	if err := api.manager.InitiateOutboundCall(c.Request.Context(), cs, answerURL, statusURL); err != nil {
		var telErr *internal_telephony.TelephonyError
		if errors.As(err, &telErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "sessionId": cs.SessionID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "sessionId": cs.SessionID})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"sessionId": cs.SessionID,
		"callId":    cs.TelephonyCallID,
	})
}

type transferRequest struct {
	TargetNumber string `json:"targetNumber" binding:"required"`
}

// Transfer redirects a live call; a vendor failure leaves the call up
// and reports the error.
func (api *CallApi) Transfer(c *gin.Context) {
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID := c.Param("id")
	if err := api.manager.TransferCall(c.Request.Context(), sessionID, req.TargetNumber); err != nil {
		var telErr *internal_telephony.TelephonyError
		if errors.As(err, &telErr) {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// End terminates a call. Idempotent: ending an ended call succeeds.
func (api *CallApi) End(c *gin.Context) {
	if err := api.manager.EndCall(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// Get returns the session record, any status.
func (api *CallApi) Get(c *gin.Context) {
	cs, err := api.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cs)
}

// ProviderHealth probes every configured stage adapter so a missing or
// revoked credential is discoverable without placing a call.
func (api *CallApi) ProviderHealth(c *gin.Context) {
	// Force construction of the default adapters so they are probed even
	// before first real use.
	if _, err := api.registry.SpeechToText(api.cfg.SpeechToTextProvider); err != nil {
		api.logger.Warnf("call-api: default stt unavailable: %v", err)
	}
	if _, err := api.registry.ResponseGenerator(api.cfg.ResponseGeneratorProvider); err != nil {
		api.logger.Warnf("call-api: default llm unavailable: %v", err)
	}
	if _, err := api.registry.SpeechSynthesizer(api.cfg.SpeechSynthesizerProvider); err != nil {
		api.logger.Warnf("call-api: default tts unavailable: %v", err)
	}

	health := api.registry.Health(c.Request.Context())
	results := make(map[string]string, len(health))
	healthy := true
	for name, err := range health {
		if err != nil {
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"providers": results})
}

// IntegrationWebhook ingests callbacks from integration partners. A
// provided signature must verify before any business logic runs; an
// absent signature is accepted for integrations without a secret.
func (api *CallApi) IntegrationWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if signature := internal_broadcast.ExtractSignature(c.Request.Header); signature != "" {
		if err := internal_broadcast.VerifySignature(body, api.cfg.IntegrationWebhookSecret, signature); err != nil {
			api.logger.Warnf("call-api: rejected integration webhook: %v", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body is not valid json"})
		return
	}

	api.logger.Infof("call-api: accepted integration webhook: event=%v", payload["event"])
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
