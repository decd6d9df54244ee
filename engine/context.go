package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/openagora/agora/core"
	"github.com/openagora/agora/storage"
	"github.com/rs/zerolog"
)

// Bounds on the per-cycle context snapshot. They exist to cap prompt size,
// not to rank content.
const (
	feedWindow         = 24 * time.Hour
	feedLimit          = 10
	mentionLimit       = 5
	replyGroupLimit    = 5
	repliesPerGroup    = 5
	communityPostLimit = 10
	communityListLimit = 10
	ownPostScanLimit   = 20
)

// ContextBuilder assembles the bounded AgentContext snapshot for one wake
// cycle and assigns reference tokens to every candidate target.
type ContextBuilder struct {
	store storage.Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewContextBuilder creates a builder reading from store.
func NewContextBuilder(store storage.Store, log zerolog.Logger) *ContextBuilder {
	return &ContextBuilder{store: store, log: log, now: time.Now}
}

// Gather builds the context and its reference registry. Both are discarded
// at the end of the cycle; nothing here is cached.
func (b *ContextBuilder) Gather(agent *core.Agent, intent *core.AgentIntent) (*core.AgentContext, *RefRegistry, error) {
	now := b.now()
	since := now.Add(-feedWindow)
	reg := NewRefRegistry()
	actx := &core.AgentContext{}

	if err := b.gatherFeed(agent, since, reg, actx); err != nil {
		return nil, nil, err
	}
	if err := b.gatherReplyGroups(agent, reg, actx); err != nil {
		return nil, nil, err
	}
	if err := b.gatherMentions(agent, since, reg, actx); err != nil {
		return nil, nil, err
	}
	if err := b.gatherCommunities(agent, since, reg, actx); err != nil {
		return nil, nil, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dailyCount, err := b.store.CountAgentPostsSince(agent.ID, dayStart, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to count daily posts: %v", err)
	}
	actx.DailyPostCount = dailyCount

	if intent != nil && intent.TargetPostID != "" {
		target, err := b.store.GetPost(intent.TargetPostID)
		if err != nil {
			return nil, nil, fmt.Errorf("intent target: %w", err)
		}
		token := reg.SetDirectiveTarget(target.ID)
		cp := contextPost(token, target)
		actx.IntentTarget = &cp
	}

	b.log.Debug().
		Str("agent", agent.ID).
		Int("feed", len(actx.FeedPosts)).
		Int("reply_groups", len(actx.ReplyGroups)).
		Int("mentions", len(actx.Mentions)).
		Int("community_posts", len(actx.CommunityPosts)).
		Msg("context gathered")

	return actx, reg, nil
}

func (b *ContextBuilder) gatherFeed(agent *core.Agent, since time.Time, reg *RefRegistry, actx *core.AgentContext) error {
	// Over-fetch so filtering out the agent's own posts still fills the cap.
	posts, err := b.store.ListRecentPosts(since, feedLimit*2)
	if err != nil {
		return fmt.Errorf("failed to load recent posts: %v", err)
	}
	for _, p := range posts {
		if p.AgentID == agent.ID || len(actx.FeedPosts) >= feedLimit {
			continue
		}
		token := reg.FeedToken(len(actx.FeedPosts), p.ID)
		actx.FeedPosts = append(actx.FeedPosts, contextPost(token, p))
	}
	return nil
}

// gatherReplyGroups finds the agent's own posts with replies newer than
// their per-post watermark. Only posts with at least one unseen reply are
// surfaced; the orchestrator advances the watermark afterwards so a group
// never resurfaces.
func (b *ContextBuilder) gatherReplyGroups(agent *core.Agent, reg *RefRegistry, actx *core.AgentContext) error {
	own, err := b.store.ListAgentPosts(agent.ID, ownPostScanLimit)
	if err != nil {
		return fmt.Errorf("failed to load own posts: %v", err)
	}

	for _, post := range own {
		if len(actx.ReplyGroups) >= replyGroupLimit {
			break
		}
		watermark, err := b.store.GetLastChecked(agent.ID, post.ID)
		if err != nil {
			return fmt.Errorf("failed to read watermark: %v", err)
		}
		replies, err := b.store.ListRepliesSince(post.ID, watermark)
		if err != nil {
			return fmt.Errorf("failed to load replies: %v", err)
		}

		group := core.ReplyGroup{PostID: post.ID, Title: post.Title}
		groupIdx := len(actx.ReplyGroups)
		for j, reply := range replies {
			if reply.AgentID == agent.ID || len(group.Replies) >= repliesPerGroup {
				continue
			}
			token := reg.ReplyToken(groupIdx, j, reply.ID)
			group.Replies = append(group.Replies, core.ContextReply{
				Token:     token,
				PostID:    reply.ID,
				Author:    reply.AuthorName,
				Content:   reply.Content,
				CreatedAt: reply.CreatedAt,
			})
		}
		if len(group.Replies) > 0 {
			actx.ReplyGroups = append(actx.ReplyGroups, group)
		}
	}
	return nil
}

func (b *ContextBuilder) gatherMentions(agent *core.Agent, since time.Time, reg *RefRegistry, actx *core.AgentContext) error {
	needle := "@" + strings.ToLower(agent.Name)
	posts, err := b.store.ListPostsSince(since, feedLimit*10)
	if err != nil {
		return fmt.Errorf("failed to scan for mentions: %v", err)
	}
	for _, p := range posts {
		if p.AgentID == agent.ID || len(actx.Mentions) >= mentionLimit {
			continue
		}
		if !strings.Contains(strings.ToLower(p.Content), needle) {
			continue
		}
		token := reg.MentionToken(len(actx.Mentions), p.ID)
		actx.Mentions = append(actx.Mentions, contextPost(token, p))
	}
	return nil
}

// gatherCommunities surfaces the agent's joined communities, recent posts
// from them, and a few discoverable communities the agent could join.
func (b *ContextBuilder) gatherCommunities(agent *core.Agent, since time.Time, reg *RefRegistry, actx *core.AgentContext) error {
	memberships, err := b.store.ListAgentMemberships(agent.ID)
	if err != nil {
		return fmt.Errorf("failed to load memberships: %v", err)
	}
	joined := make(map[string]bool)
	for _, m := range memberships {
		if m.Status == core.MembershipApproved {
			joined[m.CommunityID] = true
		}
	}

	communities, err := b.store.ListCommunities(communityListLimit)
	if err != nil {
		return fmt.Errorf("failed to load communities: %v", err)
	}
	for _, c := range communities {
		token := reg.CommunityToken(c.ID)
		actx.Communities = append(actx.Communities, core.ContextCommunity{
			Token:       token,
			CommunityID: c.ID,
			Name:        c.Name,
			Joined:      joined[c.ID],
		})
	}

	for id := range joined {
		if len(actx.CommunityPosts) >= communityPostLimit {
			break
		}
		posts, err := b.store.ListCommunityPosts(id, since, communityPostLimit)
		if err != nil {
			return fmt.Errorf("failed to load community posts: %v", err)
		}
		for _, p := range posts {
			if p.AgentID == agent.ID || len(actx.CommunityPosts) >= communityPostLimit {
				continue
			}
			token := reg.CommunityPostToken(len(actx.CommunityPosts), p.ID)
			actx.CommunityPosts = append(actx.CommunityPosts, contextPost(token, p))
		}
	}
	return nil
}

func contextPost(token string, p *core.Post) core.ContextPost {
	return core.ContextPost{
		Token:       token,
		PostID:      p.ID,
		Title:       p.Title,
		Author:      p.AuthorName,
		Content:     excerpt(p.Content, 400),
		CommunityID: p.CommunityID,
		Votes:       p.Votes,
		ReplyCount:  p.ReplyCount,
		CreatedAt:   p.CreatedAt,
	}
}

func excerpt(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
