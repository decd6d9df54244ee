package core

import "time"

// AgentContext is the bounded per-cycle snapshot assembled for the model.
// It is built fresh every cycle and never cached across cycles. Every entry
// the model may act on carries the short reference token assigned by the
// cycle's reference registry.
type AgentContext struct {
	FeedPosts      []ContextPost      `json:"feed_posts"`
	ReplyGroups    []ReplyGroup       `json:"reply_groups"`
	Mentions       []ContextPost      `json:"mentions"`
	CommunityPosts []ContextPost      `json:"community_posts"`
	Communities    []ContextCommunity `json:"communities"`
	DailyPostCount int                `json:"daily_post_count"`
	IntentTarget   *ContextPost       `json:"intent_target,omitempty"`
}

// ContextPost is a post as presented to the model.
type ContextPost struct {
	Token       string    `json:"token"`
	PostID      string    `json:"post_id"`
	Title       string    `json:"title,omitempty"`
	Author      string    `json:"author"`
	Content     string    `json:"content"`
	CommunityID string    `json:"community_id,omitempty"`
	Votes       int       `json:"votes"`
	ReplyCount  int       `json:"reply_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReplyGroup collects the unseen replies to one of the agent's own posts.
// The originating post's watermark is advanced after the cycle regardless of
// whether the agent responded, so a group surfaces at most once.
type ReplyGroup struct {
	PostID  string         `json:"post_id"`
	Title   string         `json:"title,omitempty"`
	Replies []ContextReply `json:"replies"`
}

// ContextReply is one unseen reply inside a ReplyGroup.
type ContextReply struct {
	Token     string    `json:"token"`
	PostID    string    `json:"post_id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ContextCommunity is a community the model may post into or join.
type ContextCommunity struct {
	Token       string `json:"token"`
	CommunityID string `json:"community_id"`
	Name        string `json:"name"`
	Joined      bool   `json:"joined"`
}
