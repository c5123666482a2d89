package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"

	einoschema "github.com/cloudwego/eino/schema"
	"github.com/xeipuuv/gojsonschema"

	"pbiassist/internal/history"
	"pbiassist/internal/models"
)

// stubAgent returns canned replies and records the messages it was given.
type stubAgent struct {
	started bool
	reply   string
	err     error
	gotMsgs []*einoschema.Message
}

func (s *stubAgent) Started() bool { return s.started }

func (s *stubAgent) Run(ctx context.Context, msgs []*einoschema.Message) (*einoschema.Message, error) {
	s.gotMsgs = msgs
	if s.err != nil {
		return nil, s.err
	}
	return einoschema.AssistantMessage(s.reply, nil), nil
}

func (s *stubAgent) RunStream(ctx context.Context, msgs []*einoschema.Message) (*einoschema.StreamReader[*einoschema.Message], error) {
	s.gotMsgs = msgs
	if s.err != nil {
		return nil, s.err
	}
	sr, sw := einoschema.Pipe[*einoschema.Message](2)
	go func() {
		defer sw.Close()
		for _, part := range []string{s.reply[:len(s.reply)/2], s.reply[len(s.reply)/2:]} {
			sw.Send(einoschema.AssistantMessage(part, nil), nil)
		}
	}()
	return sr, nil
}

func (s *stubAgent) RunWithShape(ctx context.Context, msgs []*einoschema.Message, shape *gojsonschema.Schema) (string, error) {
	s.gotMsgs = msgs
	return s.reply, s.err
}

func userRequest(content string) models.ChatRequest {
	return models.ChatRequest{Messages: []models.ChatMessage{{Role: models.RoleUser, Content: content}}}
}

func TestChatMockIsDeterministic(t *testing.T) {
	store := history.NewMemoryStore(0)
	svc := NewChatService(nil, store)

	first, err := svc.Chat(context.Background(), userRequest("show revenue"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	second, err := svc.Chat(context.Background(), userRequest("show revenue"))
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if first.Message != second.Message {
		t.Fatalf("mock reply must be stable for identical input")
	}
	if !strings.Contains(first.Message, "'show revenue'") {
		t.Fatalf("mock reply must quote the literal input, got %q", first.Message)
	}
	if first.Role != models.RoleAssistant {
		t.Fatalf("unexpected role %q", first.Role)
	}
}

func TestChatFallsBackOnAgentError(t *testing.T) {
	agent := &stubAgent{started: true, err: errors.New("upstream gone")}
	store := history.NewMemoryStore(0)
	svc := NewChatService(agent, store)

	resp, err := svc.Chat(context.Background(), userRequest("anything"))
	if err != nil {
		t.Fatalf("agent failure must not fail the exchange: %v", err)
	}
	if !strings.Contains(resp.Message, "mock response") {
		t.Fatalf("expected mock fallback, got %q", resp.Message)
	}
}

func TestChatRecordsBothTurns(t *testing.T) {
	agent := &stubAgent{started: true, reply: "the answer"}
	store := history.NewMemoryStore(0)
	svc := NewChatService(agent, store)

	if _, err := svc.Chat(context.Background(), userRequest("question")); err != nil {
		t.Fatalf("chat: %v", err)
	}
	entries, err := store.Messages(context.Background())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected user and assistant entries, got %d", len(entries))
	}
	if entries[0].Role != models.RoleUser || entries[0].Content != "question" {
		t.Fatalf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Role != models.RoleAssistant || entries[1].Content != "the answer" {
		t.Fatalf("unexpected second entry %+v", entries[1])
	}
}

func TestChatMergesReportContext(t *testing.T) {
	agent := &stubAgent{started: true, reply: "ok"}
	svc := NewChatService(agent, history.NewMemoryStore(0))

	req := userRequest("what changed?")
	req.Context = "Viewing page: Sales Overview"
	if _, err := svc.Chat(context.Background(), req); err != nil {
		t.Fatalf("chat: %v", err)
	}

	last := agent.gotMsgs[len(agent.gotMsgs)-1]
	if !strings.HasPrefix(last.Content, "Power BI Context: Viewing page: Sales Overview") {
		t.Fatalf("context not merged: %q", last.Content)
	}
	if !strings.Contains(last.Content, "User Question: what changed?") {
		t.Fatalf("question missing from merged turn: %q", last.Content)
	}
}

func TestChatStreamAssemblesFullReply(t *testing.T) {
	agent := &stubAgent{started: true, reply: "streamed answer"}
	store := history.NewMemoryStore(0)
	svc := NewChatService(agent, store)

	var chunks []string
	err := svc.ChatStream(context.Background(), userRequest("question"), func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if strings.Join(chunks, "") != "streamed answer" {
		t.Fatalf("chunks do not assemble the reply: %q", strings.Join(chunks, ""))
	}

	entries, err := store.Messages(context.Background())
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(entries) != 2 || entries[1].Content != "streamed answer" {
		t.Fatalf("assembled reply not recorded: %+v", entries)
	}
}

func TestChatStreamMockFallback(t *testing.T) {
	svc := NewChatService(nil, history.NewMemoryStore(0))

	var chunks []string
	err := svc.ChatStream(context.Background(), userRequest("offline"), func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("mock fallback should emit one chunk, got %d", len(chunks))
	}
	if !strings.Contains(chunks[0], "'offline'") {
		t.Fatalf("fallback chunk must quote the input: %q", chunks[0])
	}
}

func TestLatestUserMessagePicksLastUserTurn(t *testing.T) {
	msgs := []models.ChatMessage{
		{Role: models.RoleUser, Content: "first"},
		{Role: models.RoleAssistant, Content: "reply"},
		{Role: models.RoleUser, Content: "second"},
	}
	if got := latestUserMessage(msgs); got != "second" {
		t.Fatalf("want %q, got %q", "second", got)
	}
	if got := latestUserMessage(nil); got != "" {
		t.Fatalf("want empty for no messages, got %q", got)
	}
}
