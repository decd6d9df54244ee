package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRefRegistryTokenShapes(t *testing.T) {
	reg := NewRefRegistry()

	assert.Equal(t, "F0", reg.FeedToken(0, "p1"))
	assert.Equal(t, "CP2", reg.CommunityPostToken(2, "p2"))
	assert.Equal(t, "R_1_3", reg.ReplyToken(1, 3, "p3"))
	assert.Equal(t, "M0", reg.MentionToken(0, "p4"))
	assert.Equal(t, "C_golang", reg.CommunityToken("golang"))
	assert.Equal(t, DirectiveToken, reg.SetDirectiveTarget("p5"))
}

func TestResolvePost(t *testing.T) {
	reg := NewRefRegistry()
	reg.FeedToken(0, "p1")
	reg.ReplyToken(0, 1, "p2")
	reg.SetDirectiveTarget("p3")

	id, ok := reg.ResolvePost("F0")
	assert.True(t, ok)
	assert.Equal(t, "p1", id)

	id, ok = reg.ResolvePost(" R_0_1 ") // whitespace tolerated
	assert.True(t, ok)
	assert.Equal(t, "p2", id)

	id, ok = reg.ResolvePost(DirectiveToken)
	assert.True(t, ok)
	assert.Equal(t, "p3", id)

	// Dangling tokens never resolve, even when they look plausible.
	_, ok = reg.ResolvePost("F7")
	assert.False(t, ok)
	_, ok = reg.ResolvePost("p1") // raw ids are not tokens
	assert.False(t, ok)
}

func TestResolvePostRejectsCommunityTokens(t *testing.T) {
	reg := NewRefRegistry()
	reg.CommunityToken("golang")

	_, ok := reg.ResolvePost("C_golang")
	assert.False(t, ok)
}

func TestResolveCommunity(t *testing.T) {
	reg := NewRefRegistry()
	reg.CommunityToken("golang")

	id, ok := reg.ResolveCommunity("C_golang")
	assert.True(t, ok)
	assert.Equal(t, "golang", id)

	// Unregistered C_-prefixed tokens degrade to the bare id.
	id, ok = reg.ResolveCommunity("C_rust")
	assert.True(t, ok)
	assert.Equal(t, "rust", id)

	_, ok = reg.ResolveCommunity("golang")
	assert.False(t, ok)
	_, ok = reg.ResolveCommunity("C_")
	assert.False(t, ok)
}
