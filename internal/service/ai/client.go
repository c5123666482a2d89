// Package ai wraps the hosted chat model behind a start/run/stop lifecycle.
// Provider selection mirrors the deployment's environment: Azure OpenAI is
// the primary path, with OpenAI, Claude and Gemini as alternatives.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"
	"google.golang.org/genai"

	"pbiassist/internal/config"
	"pbiassist/pkg/logger"
)

// ErrNotStarted is returned by run calls before a successful Start.
var ErrNotStarted = errors.New("agent client not started")

// ErrShapeMismatch marks a shape-constrained run whose reply failed
// validation. The reply is discarded, never coerced.
var ErrShapeMismatch = errors.New("agent reply does not match declared shape")

// Client binds a chat model and an optional toolset. Tools are registered at
// construction; a started client keeps them for every run.
type Client struct {
	cfg     config.AgentConfig
	tools   []tool.BaseTool
	model   model.ToolCallingChatModel
	agent   *react.Agent
	started bool
}

// NewClient prepares a client for the configured provider. Nothing connects
// until Start.
func NewClient(cfg config.AgentConfig, tools []tool.BaseTool) *Client {
	return &Client{cfg: cfg, tools: tools}
}

// Start builds the chat model and, when tools are registered, the react
// agent around it. A missing endpoint or key for the selected provider is an
// error here; there is no degraded mode at this layer.
func (c *Client) Start(ctx context.Context) error {
	var (
		chatModel model.ToolCallingChatModel
		err       error
	)

	switch c.cfg.Provider {
	case "azure":
		if c.cfg.AzureEndpoint == "" {
			return fmt.Errorf("AZURE_OPENAI_ENDPOINT is required for provider azure")
		}
		if c.cfg.AzureAPIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_API_KEY is required for provider azure")
		}
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			ByAzure:    true,
			BaseURL:    c.cfg.AzureEndpoint,
			APIKey:     c.cfg.AzureAPIKey,
			APIVersion: c.cfg.AzureAPIVersion,
			Model:      c.cfg.AzureDeployment,
		})
	case "openai":
		if c.cfg.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for provider openai")
		}
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			APIKey: c.cfg.OpenAIAPIKey,
			Model:  c.cfg.OpenAIModel,
		})
	case "claude":
		if c.cfg.ClaudeAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for provider claude")
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    c.cfg.ClaudeAPIKey,
			Model:     c.cfg.ClaudeModel,
			MaxTokens: 3000,
		})
	case "gemini":
		if c.cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider gemini")
		}
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: c.cfg.GeminiAPIKey})
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  c.cfg.GeminiModel,
		})
	case "":
		return fmt.Errorf("AI_PROVIDER is not set")
	default:
		return fmt.Errorf("unsupported provider: %s", c.cfg.Provider)
	}
	if err != nil {
		return fmt.Errorf("init %s chat model: %w", c.cfg.Provider, err)
	}

	c.model = chatModel
	if len(c.tools) > 0 {
		reactAgent, err := react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: c.tools,
			},
		})
		if err != nil {
			return fmt.Errorf("init react agent: %w", err)
		}
		c.agent = reactAgent
	}

	c.started = true
	logger.Infof("agent client started (provider=%s, tools=%d)", c.cfg.Provider, len(c.tools))
	return nil
}

// Started reports whether Start completed successfully.
func (c *Client) Started() bool {
	return c != nil && c.started
}

// Run sends the exchange to completion and returns the final message. Tool
// calls happen inside the run when any are registered.
func (c *Client) Run(ctx context.Context, msgs []*schema.Message) (*schema.Message, error) {
	if !c.started {
		return nil, ErrNotStarted
	}
	if c.agent != nil {
		return c.agent.Generate(ctx, msgs)
	}
	return c.model.Generate(ctx, msgs)
}

// RunStream returns a lazy sequence of message deltas. The reader is
// finite and not restartable; a new call opens a new run.
func (c *Client) RunStream(ctx context.Context, msgs []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	if !c.started {
		return nil, ErrNotStarted
	}
	if c.agent != nil {
		return c.agent.Stream(ctx, msgs)
	}
	return c.model.Stream(ctx, msgs)
}

// RunWithShape runs the exchange and validates the reply against the
// compiled schema. A non-conforming reply is a hard error; nothing is
// coerced or repaired.
func (c *Client) RunWithShape(ctx context.Context, msgs []*schema.Message, shape *gojsonschema.Schema) (string, error) {
	reply, err := c.Run(ctx, msgs)
	if err != nil {
		return "", err
	}

	raw := stripCodeFence(reply.Content)
	if !json.Valid([]byte(raw)) {
		return "", fmt.Errorf("%w: reply is not valid JSON", ErrShapeMismatch)
	}
	result, err := shape.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return "", fmt.Errorf("validate agent reply: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return "", fmt.Errorf("%w: %s", ErrShapeMismatch, strings.Join(details, "; "))
	}
	return raw, nil
}

// Stop releases the client. Safe to call even if Start partially failed.
func (c *Client) Stop() {
	if c == nil {
		return
	}
	c.model = nil
	c.agent = nil
	c.started = false
	logger.Info("agent client stopped")
}

// stripCodeFence removes a surrounding markdown fence. Models occasionally
// wrap JSON output despite instructions; the content inside still has to
// validate untouched.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
