// Package api exposes the HTTP surface: chat, translation, embed token
// management and diagnostics. Handlers stay thin; all behavior lives in the
// service packages they delegate to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pbiassist/internal/config"
	"pbiassist/internal/models"
	"pbiassist/internal/powerbi"
	"pbiassist/internal/service/ai"
	"pbiassist/internal/service/assistant"
)

// Handler wires HTTP routes to the assistant services and the embed-token
// machinery.
type Handler struct {
	chat    *assistant.ChatService
	dax     *assistant.DaxTranslator
	visuals *assistant.VisualTranslator
	tokens  *powerbi.TokenService
	reports *powerbi.Client
	creds   powerbi.TokenProvider
	pbiCfg  config.PowerBIConfig
}

// NewHandler constructs a Handler instance.
func NewHandler(
	chat *assistant.ChatService,
	dax *assistant.DaxTranslator,
	visuals *assistant.VisualTranslator,
	tokens *powerbi.TokenService,
	reports *powerbi.Client,
	creds powerbi.TokenProvider,
	pbiCfg config.PowerBIConfig,
) *Handler {
	return &Handler{
		chat:    chat,
		dax:     dax,
		visuals: visuals,
		tokens:  tokens,
		reports: reports,
		creds:   creds,
		pbiCfg:  pbiCfg,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/", h.healthCheck)

	api := router.Group("/api")
	api.POST("/chat", h.chatWithAgent)
	api.POST("/chat/stream", h.chatStream)
	api.GET("/chat/history", h.getChatHistory)
	api.DELETE("/chat/history", h.clearChatHistory)

	api.POST("/dax/query", h.daxQuery)
	api.POST("/visuals/create", h.createVisual)

	api.GET("/powerbi/config", h.getPowerBIConfig)
	api.GET("/powerbi/refresh-token", h.refreshToken)
	api.GET("/powerbi/status", h.tokenStatus)
	api.GET("/powerbi/visuals", h.listVisuals)
	api.GET("/powerbi/reports", h.listReports)

	api.GET("/azure/auth-test", h.azureAuthTest)
}

func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Power BI Embedded AI Backend is running",
		"version": "1.0.0",
	})
}

func (h *Handler) chatWithAgent(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided"})
		return
	}

	resp, err := h.chat.Chat(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("error processing chat: %v", err)})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) chatStream(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message provided"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming not supported"})
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sendEvent := func(event string, payload interface{}) error {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		if event != "" {
			if _, err := fmt.Fprintf(c.Writer, "event: %s\n", event); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	streamCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	err := h.chat.ChatStream(streamCtx, req, func(chunk string) error {
		return sendEvent("stream", gin.H{"content": chunk})
	})
	if err != nil {
		_ = sendEvent("error", gin.H{"message": err.Error()})
		return
	}
	_ = sendEvent("done", gin.H{"role": models.RoleAssistant})
}

func (h *Handler) getChatHistory(c *gin.Context) {
	messages, err := h.chat.History(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if messages == nil {
		messages = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *Handler) clearChatHistory(c *gin.Context) {
	if err := h.chat.ClearHistory(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Chat history cleared"})
}

type daxQueryRequest struct {
	Query string `json:"query"`
}

func (h *Handler) daxQuery(c *gin.Context) {
	var req daxQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	result, err := h.dax.Translate(c.Request.Context(), req.Query)
	if err != nil {
		if errors.Is(err, assistant.ErrAgentUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *Handler) createVisual(c *gin.Context) {
	var req models.VisualCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	cfg, err := h.visuals.Create(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, assistant.ErrAgentUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, ai.ErrShapeMismatch):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, models.VisualConfigResponse{
		Config:  *cfg,
		Message: fmt.Sprintf("Created %s configuration: %s", cfg.VisualType, cfg.Title),
	})
}

func (h *Handler) getPowerBIConfig(c *gin.Context) {
	if h.tokens != nil {
		if desc := h.tokens.Current(c.Request.Context()); desc != nil && desc.EmbedToken != "" {
			c.JSON(http.StatusOK, models.EmbedConfig{
				EmbedURL:    desc.EmbedURL,
				AccessToken: desc.EmbedToken,
				EmbedType:   "report",
				ReportID:    desc.ReportID,
				WorkspaceID: desc.WorkspaceID,
			})
			return
		}
	}

	// Static fallback for setups that pre-generate their own token.
	if h.pbiCfg.StaticEmbedURL != "" && h.pbiCfg.StaticAccessToken != "" {
		c.JSON(http.StatusOK, models.EmbedConfig{
			EmbedURL:    h.pbiCfg.StaticEmbedURL,
			AccessToken: h.pbiCfg.StaticAccessToken,
			EmbedType:   "report",
		})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error": "Power BI configuration not set. Please configure POWERBI_EMBED_URL and POWERBI_ACCESS_TOKEN environment variables.",
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	if h.tokens == nil || !h.tokens.Configured() {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "POWERBI_REPORT_ID is not configured"})
		return
	}
	desc, err := h.tokens.Refresh(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"tokenExpiry": desc.TokenExpiry,
		"reportName":  desc.ReportName,
	})
}

func (h *Handler) tokenStatus(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusOK, powerbi.Status{})
		return
	}
	c.JSON(http.StatusOK, h.tokens.Status())
}

func (h *Handler) listVisuals(c *gin.Context) {
	var desc *models.EmbedDescriptor
	if h.tokens != nil {
		desc = h.tokens.Current(c.Request.Context())
	}
	if desc == nil || desc.EmbedToken == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no embed token available, call /api/powerbi/refresh-token first"})
		return
	}
	if len(desc.Pages) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no pages available for this report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"totalPages": len(desc.Pages),
		"pages":      desc.Pages,
		"note":       desc.VisualDiscoveryNote,
	})
}

func (h *Handler) listReports(c *gin.Context) {
	if h.reports == nil {
		c.JSON(http.StatusOK, gin.H{"reports": []models.Report{}})
		return
	}
	reports, err := h.reports.ListReports(c.Request.Context(), h.pbiCfg.WorkspaceID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if reports == nil {
		reports = []models.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (h *Handler) azureAuthTest(c *gin.Context) {
	if h.creds == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"method":  "none",
			"error":   "no credential configured",
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	token, err := h.creds.GetToken(ctx, powerbi.Scope)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"method":        credentialMethod(h.creds),
			"tokenObtained": false,
			"error":         err.Error(),
		})
		return
	}

	preview := token
	if len(preview) > 20 {
		preview = preview[:20] + "..."
	}
	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"method":        credentialMethod(h.creds),
		"tokenObtained": true,
		"tokenPreview":  preview,
		"scope":         powerbi.Scope,
	})
}

func credentialMethod(p powerbi.TokenProvider) string {
	switch p.(type) {
	case powerbi.StaticTokenProvider, *powerbi.StaticTokenProvider:
		return "static token"
	default:
		return "DefaultAzureCredential"
	}
}
