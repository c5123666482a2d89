package main

import (
	"context"
	"log"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/gin-gonic/gin"

	"pbiassist/internal/api"
	"pbiassist/internal/cache"
	"pbiassist/internal/config"
	"pbiassist/internal/history"
	"pbiassist/internal/powerbi"
	"pbiassist/internal/service/ai"
	"pbiassist/internal/service/assistant"
	"pbiassist/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logger.Init(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	store, err := openHistory(cfg)
	if err != nil {
		logger.Fatalf("open history store: %v", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	cacheClient, err := cache.New(cfg.Redis)
	if err != nil {
		logger.Fatalf("create redis client: %v", err)
	}
	defer cacheClient.Close()

	creds := buildCredential(cfg)
	var pbiClient *powerbi.Client
	var tokens *powerbi.TokenService
	if creds != nil {
		pbiClient = powerbi.NewClient(creds, "")
		tokens = powerbi.NewTokenService(pbiClient, cfg.PowerBI.ReportID, cfg.PowerBI.WorkspaceID, cacheClient)
	}

	agent := buildAgent(cfg, pbiClient)
	defer agent.Stop()

	chatService := assistant.NewChatService(agent, store)
	daxTranslator := assistant.NewDaxTranslator(agent)
	visualTranslator, err := assistant.NewVisualTranslator(agent)
	if err != nil {
		logger.Fatalf("init visual translator: %v", err)
	}

	// Best effort: a failed mint is recorded in token status, the server
	// still starts.
	if tokens != nil && tokens.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if _, err := tokens.Refresh(ctx); err != nil {
			logger.Warnf("initial embed token mint failed: %v", err)
		}
		cancel()
	}

	handlers := api.NewHandler(chatService, daxTranslator, visualTranslator, tokens, pbiClient, creds, cfg.PowerBI)

	router := gin.Default()
	router.Use(api.CORSMiddleware(), api.RequestIDMiddleware())
	handlers.RegisterRoutes(router)

	logger.Infof("listening on %s", cfg.ServerAddress)
	if err := router.Run(cfg.ServerAddress); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func openHistory(cfg *config.Config) (history.Store, error) {
	switch cfg.History.Driver {
	case "", "memory":
		return history.NewMemoryStore(cfg.History.MaxMessages), nil
	default:
		store, err := history.Open(cfg.History)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// buildCredential picks the Power BI credential: a static token when one is
// supplied, otherwise the Azure default chain. Returns nil when neither is
// available, which disables the Power BI surface but not the rest.
func buildCredential(cfg *config.Config) powerbi.TokenProvider {
	if cfg.PowerBI.StaticAccessToken != "" {
		logger.Info("using static Power BI access token")
		return powerbi.StaticTokenProvider{Token: cfg.PowerBI.StaticAccessToken}
	}
	provider, err := powerbi.NewAzureTokenProvider()
	if err != nil {
		logger.Warnf("azure credential unavailable: %v", err)
		return nil
	}
	return provider
}

// buildAgent starts the AI client with the DAX execution tool registered.
// A missing or misconfigured provider leaves the client stopped; chat then
// serves mock responses and the translators report their absence.
func buildAgent(cfg *config.Config, pbiClient *powerbi.Client) *ai.Client {
	var tools []tool.BaseTool
	if pbiClient != nil {
		executor := powerbi.NewQueryExecutor(pbiClient, cfg.PowerBI.WorkspaceID, cfg.PowerBI.DatasetID)
		tools = append(tools, ai.NewDaxQueryTool(executor))
	}

	agent := ai.NewClient(cfg.Agent, tools)
	if !cfg.AgentConfigured() {
		logger.Warn("AI_PROVIDER not configured, chat will use mock responses")
		return agent
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := agent.Start(ctx); err != nil {
		logger.Warnf("agent startup failed, chat will use mock responses: %v", err)
	}
	return agent
}
