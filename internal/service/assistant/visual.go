package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	"pbiassist/internal/models"
	"pbiassist/internal/schema"
)

// VisualTranslator turns natural-language requests into validated visual
// configurations. Replies that fail schema validation are rejected, never
// repaired.
type VisualTranslator struct {
	agent AgentRunner
	shape *gojsonschema.Schema
}

// NewVisualTranslator compiles the visual configuration schema once. The
// schema is a build-time constant, so compilation failure is a programming
// error and reported immediately.
func NewVisualTranslator(agent AgentRunner) (*VisualTranslator, error) {
	shape, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema.VisualConfigSchema))
	if err != nil {
		return nil, fmt.Errorf("compile visual config schema: %w", err)
	}
	return &VisualTranslator{agent: agent, shape: shape}, nil
}

// Create generates a visual configuration for the request. The agent's
// reply must be a bare JSON object conforming to the configuration
// schema; callers can distinguish shape failures via ai.ErrShapeMismatch.
func (t *VisualTranslator) Create(ctx context.Context, message string) (*models.VisualConfig, error) {
	if t.agent == nil || !t.agent.Started() {
		return nil, ErrAgentUnavailable
	}
	msgs := []*einoschema.Message{
		einoschema.SystemMessage(visualSystemPrompt()),
		einoschema.UserMessage(message),
	}
	raw, err := t.agent.RunWithShape(ctx, msgs, t.shape)
	if err != nil {
		return nil, err
	}

	var cfg models.VisualConfig
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode visual config: %w", err)
	}
	return &cfg, nil
}
