package assistant

import (
	"context"
	"errors"
	"fmt"

	einoschema "github.com/cloudwego/eino/schema"
)

// ErrAgentUnavailable reports that no agent is configured or started.
// Translation has no mock path; callers surface this to the client.
var ErrAgentUnavailable = errors.New("no AI agent is configured")

// DaxTranslator turns natural-language questions into answers backed by
// DAX execution. The agent decides the query and runs it through the
// registered tool; the translator only frames the exchange.
type DaxTranslator struct {
	agent AgentRunner
}

func NewDaxTranslator(agent AgentRunner) *DaxTranslator {
	return &DaxTranslator{agent: agent}
}

// Translate answers question against the semantic model. The returned
// string is the agent's final answer, which already incorporates any
// query results or in-band execution errors.
func (t *DaxTranslator) Translate(ctx context.Context, question string) (string, error) {
	if t.agent == nil || !t.agent.Started() {
		return "", ErrAgentUnavailable
	}
	msgs := []*einoschema.Message{
		einoschema.SystemMessage(daxSystemPrompt()),
		einoschema.UserMessage(question),
	}
	reply, err := t.agent.Run(ctx, msgs)
	if err != nil {
		return "", fmt.Errorf("dax translation: %w", err)
	}
	return reply.Content, nil
}
