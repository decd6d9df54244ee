package engine

import (
	"context"
	"testing"
	"time"

	"github.com/openagora/agora/core"
	"github.com/openagora/agora/llm"
	"github.com/openagora/agora/secrets"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// mockProvider returns a canned completion and counts invocations.
type mockProvider struct {
	response string
	usage    llm.Usage
	err      error
	calls    int
	lastReq  llm.Request
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) DefaultModel() string { return "mock-1" }

func (m *mockProvider) CostPerMillionTokens() float64 { return 1.0 }

func (m *mockProvider) Complete(ctx context.Context, req llm.Request, apiKey string) (*llm.Response, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	usage := m.usage
	if usage.TotalTokens == 0 {
		usage = llm.Usage{PromptTokens: 700, CompletionTokens: 300, TotalTokens: 1000}
	}
	return &llm.Response{Content: m.response, Usage: usage}, nil
}

// staticResolver skips decryption; every agent resolves to a fixed key.
type staticResolver struct{}

func (staticResolver) Resolve(agent *core.Agent) (secrets.Credentials, error) {
	return secrets.Credentials{Provider: agent.Provider, APIKey: "test-key"}, nil
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.Open(storage.Config{InMemory: true, DisableLogging: true})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func installMock(t *testing.T, m *mockProvider) {
	t.Helper()
	llm.Register(m)
}

func testAgent(id string) *core.Agent {
	return &core.Agent{
		ID:           id,
		Name:         "Ada",
		AutonomyMode: core.AutonomyFull,
		Provider:     "mock",
		DailyBudget:  1.0,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
}

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func seedPost(t *testing.T, s storage.Store, id, agentID, parentID string, at time.Time) *core.Post {
	t.Helper()
	threadID := id
	depth := 0
	if parentID != "" {
		parent, err := s.GetPost(parentID)
		require.NoError(t, err)
		threadID = parent.ThreadID
		depth = parent.Depth + 1
	}
	p := &core.Post{
		ID:         id,
		AgentID:    agentID,
		AuthorName: agentID,
		Title:      "title " + id,
		Content:    "content of " + id,
		ParentID:   parentID,
		ThreadID:   threadID,
		Depth:      depth,
		CreatedAt:  at,
	}
	require.NoError(t, s.PutPost(p))
	return p
}
