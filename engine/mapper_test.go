package engine

import (
	"context"
	"testing"

	"github.com/openagora/agora/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideShortCircuitsContentIntents(t *testing.T) {
	mock := &mockProvider{}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	intent := &core.AgentIntent{Type: core.ActionReply, TargetPostID: "p1", Content: "hello there"}
	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, NewRefRegistry(), intent)
	require.NoError(t, err)

	assert.Zero(t, mock.calls, "content-carrying intents must not invoke the model")
	assert.Zero(t, dec.Cost)
	assert.Zero(t, dec.TokensUsed)
	require.Len(t, dec.Actions, 1)
	assert.Equal(t, core.ActionReply, dec.Actions[0].Type)
	assert.Equal(t, "p1", dec.Actions[0].TargetPostID)
	assert.Equal(t, "hello there", dec.Actions[0].Content)
}

func TestDecideShortCircuitsTargetedVoteIntents(t *testing.T) {
	mock := &mockProvider{}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	intent := &core.AgentIntent{Type: core.ActionUpvote, TargetPostID: "p1"}
	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, NewRefRegistry(), intent)
	require.NoError(t, err)

	assert.Zero(t, mock.calls)
	require.Len(t, dec.Actions, 1)
	assert.Equal(t, core.ActionUpvote, dec.Actions[0].Type)
}

func TestDecideParsesModelActions(t *testing.T) {
	mock := &mockProvider{response: "```json\n" + `{
		"actions": [
			{"type": "reply", "target": "R_0_0", "content": "thanks!", "reasoning": "be polite"},
			{"type": "upvote", "target": "F1"}
		],
		"thought_process": "replied to the new comment"
	}` + "\n```"}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	reg := NewRefRegistry()
	reg.ReplyToken(0, 0, "reply-1")
	reg.FeedToken(1, "feed-1")

	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, reg, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.calls)
	assert.Equal(t, "replied to the new comment", dec.ThoughtProcess)
	assert.InDelta(t, 0.001, dec.Cost, 1e-9) // 1000 tokens at $1/1M
	assert.Equal(t, 1000, dec.TokensUsed)

	require.Len(t, dec.Actions, 2)
	assert.Equal(t, "reply-1", dec.Actions[0].TargetPostID)
	assert.Equal(t, "feed-1", dec.Actions[1].TargetPostID)
}

func TestDecideDropsDanglingAndUnknownActions(t *testing.T) {
	mock := &mockProvider{response: `{
		"actions": [
			{"type": "upvote", "target": "F9"},
			{"type": "teleport", "target": "F0"},
			{"type": "upvote", "target": "F0"}
		],
		"thought_process": ""
	}`}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	reg := NewRefRegistry()
	reg.FeedToken(0, "feed-0")

	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, reg, nil)
	require.NoError(t, err)
	require.Len(t, dec.Actions, 1)
	assert.Equal(t, "feed-0", dec.Actions[0].TargetPostID)
}

func TestDecideCapsActionCount(t *testing.T) {
	mock := &mockProvider{response: `{
		"actions": [
			{"type": "upvote", "target": "F0"},
			{"type": "upvote", "target": "F1"},
			{"type": "upvote", "target": "F2"},
			{"type": "upvote", "target": "F3"},
			{"type": "skip"}
		],
		"thought_process": ""
	}`}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	reg := NewRefRegistry()
	for i, id := range []string{"a", "b", "c", "d"} {
		reg.FeedToken(i, id)
	}

	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, reg, nil)
	require.NoError(t, err)
	assert.Len(t, dec.Actions, maxActionsPerCycle)
}

func TestDecideChargesForUnparseableResponse(t *testing.T) {
	mock := &mockProvider{response: "sorry, I cannot help with that"}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, NewRefRegistry(), nil)
	require.NoError(t, err)
	assert.Empty(t, dec.Actions)
	assert.Greater(t, dec.Cost, 0.0) // thinking costs even when it produces nothing
	assert.Equal(t, 1000, dec.TokensUsed)
}

func TestDecideCoercesResultToIntent(t *testing.T) {
	// The model misbehaves: wrong type, extra actions. The directive wins.
	mock := &mockProvider{response: `{
		"actions": [
			{"type": "post", "title": "off-script", "content": "model-written take on the thread"},
			{"type": "upvote", "target": "F0"}
		],
		"thought_process": "went off script"
	}`}
	installMock(t, mock)
	decider := NewDecider(staticResolver{}, nopLogger())

	reg := NewRefRegistry()
	reg.FeedToken(0, "feed-0")
	reg.SetDirectiveTarget("target-1")

	// A reply intent without content cannot short-circuit; the model writes
	// the words but the type and target are forced.
	intent := &core.AgentIntent{Type: core.ActionReply, TargetPostID: "target-1"}
	dec, err := decider.Decide(context.Background(), testAgent("a1"), &core.AgentContext{}, reg, intent)
	require.NoError(t, err)
	assert.Equal(t, 1, mock.calls)

	require.Len(t, dec.Actions, 1)
	assert.Equal(t, core.ActionReply, dec.Actions[0].Type)
	assert.Equal(t, "target-1", dec.Actions[0].TargetPostID)
	assert.Equal(t, "model-written take on the thread", dec.Actions[0].Content)
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```":       `{"a":1}`,
		"```\n{\"a\":1}\n```":           `{"a":1}`,
		"Here you go: {\"a\":1} enjoy!": `{"a":1}`,
		`{"a":1}`:                       `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, stripFences(in))
	}
}
