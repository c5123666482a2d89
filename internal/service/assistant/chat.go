// Package assistant holds the conversational services: free-form chat with
// report context, natural-language DAX translation, and visual configuration
// generation. Each service takes an agent runner and degrades or fails
// explicitly when no agent is configured.
package assistant

import (
	"context"
	"io"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	"pbiassist/internal/history"
	"pbiassist/internal/models"
	"pbiassist/pkg/logger"
)

// AgentRunner is the slice of the agent client the assistant services use.
type AgentRunner interface {
	Started() bool
	Run(ctx context.Context, msgs []*einoschema.Message) (*einoschema.Message, error)
	RunStream(ctx context.Context, msgs []*einoschema.Message) (*einoschema.StreamReader[*einoschema.Message], error)
	RunWithShape(ctx context.Context, msgs []*einoschema.Message, shape *gojsonschema.Schema) (string, error)
}

// ChatService answers user questions, optionally grounded in report
// context supplied by the caller. It always records exactly one user
// entry and one assistant entry per exchange, whichever path produced
// the answer.
type ChatService struct {
	agent AgentRunner
	store history.Store
}

func NewChatService(agent AgentRunner, store history.Store) *ChatService {
	return &ChatService{agent: agent, store: store}
}

// Chat produces a complete reply for the latest user message in req.
// If the agent is unavailable or fails, a deterministic mock reply is
// returned instead of an error so the conversation never dead-ends.
func (s *ChatService) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	userMessage := latestUserMessage(req.Messages)

	if err := s.store.Append(ctx, models.ChatMessage{Role: models.RoleUser, Content: userMessage}); err != nil {
		return models.ChatResponse{}, err
	}

	reply := s.generate(ctx, req, userMessage)

	if err := s.store.Append(ctx, models.ChatMessage{Role: models.RoleAssistant, Content: reply}); err != nil {
		return models.ChatResponse{}, err
	}
	return models.ChatResponse{Message: reply, Role: models.RoleAssistant}, nil
}

// ChatStream produces the reply incrementally, invoking emit for each
// content delta. The fully assembled reply lands in history the same
// way Chat records it; the mock fallback is emitted as a single chunk.
func (s *ChatService) ChatStream(ctx context.Context, req models.ChatRequest, emit func(chunk string) error) error {
	userMessage := latestUserMessage(req.Messages)

	if err := s.store.Append(ctx, models.ChatMessage{Role: models.RoleUser, Content: userMessage}); err != nil {
		return err
	}

	var full string
	streamed := false
	if s.agent != nil && s.agent.Started() {
		reader, err := s.agent.RunStream(ctx, s.buildMessages(req, userMessage))
		if err != nil {
			logger.Warnf("agent stream failed, falling back to mock: %v", err)
		} else {
			defer reader.Close()
			streamed = true
			for {
				msg, err := reader.Recv()
				if err == io.EOF {
					break
				}
				if err != nil {
					logger.Warnf("agent stream interrupted: %v", err)
					break
				}
				if msg.Content == "" {
					continue
				}
				full += msg.Content
				if err := emit(msg.Content); err != nil {
					return err
				}
			}
		}
	}
	if !streamed || full == "" {
		full = mockResponse(userMessage)
		if err := emit(full); err != nil {
			return err
		}
	}

	return s.store.Append(ctx, models.ChatMessage{Role: models.RoleAssistant, Content: full})
}

// History returns the recorded transcript, oldest first.
func (s *ChatService) History(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.store.Messages(ctx)
}

// ClearHistory drops the transcript.
func (s *ChatService) ClearHistory(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *ChatService) generate(ctx context.Context, req models.ChatRequest, userMessage string) string {
	if s.agent == nil || !s.agent.Started() {
		return mockResponse(userMessage)
	}
	reply, err := s.agent.Run(ctx, s.buildMessages(req, userMessage))
	if err != nil {
		logger.Warnf("agent call failed, falling back to mock: %v", err)
		return mockResponse(userMessage)
	}
	return reply.Content
}

// buildMessages maps the request onto agent messages. Report context is
// folded into the final user turn rather than sent as its own message.
func (s *ChatService) buildMessages(req models.ChatRequest, userMessage string) []*einoschema.Message {
	msgs := []*einoschema.Message{einoschema.SystemMessage(chatSystemInstructions)}
	for i, m := range req.Messages {
		content := m.Content
		if i == len(req.Messages)-1 && m.Role == models.RoleUser {
			content = mergeContext(req.Context, userMessage)
		}
		switch m.Role {
		case models.RoleAssistant:
			msgs = append(msgs, einoschema.AssistantMessage(content, nil))
		case models.RoleSystem:
			msgs = append(msgs, einoschema.SystemMessage(content))
		default:
			msgs = append(msgs, einoschema.UserMessage(content))
		}
	}
	return msgs
}

// latestUserMessage picks the content of the last user-role entry, or
// the last entry of any role when the caller sent none marked user.
func latestUserMessage(msgs []models.ChatMessage) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == models.RoleUser {
			return msgs[i].Content
		}
	}
	if len(msgs) > 0 {
		return msgs[len(msgs)-1].Content
	}
	return ""
}
