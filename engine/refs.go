package engine

import (
	"fmt"
	"strings"
)

// DirectiveToken is the reserved token for an intent's forced target.
const DirectiveToken = "DIRECTIVE_TARGET"

// RefKind distinguishes what a reference token points at.
type RefKind int

const (
	RefPost RefKind = iota
	RefCommunity
)

// Ref is one resolved entity reference.
type Ref struct {
	Kind        RefKind
	PostID      string
	CommunityID string
}

// RefRegistry is the typed bidirectional token⇄entity map built fresh each
// wake cycle. The model only ever sees the short tokens, never raw ids; the
// decision mapper resolves tokens back through this registry and drops
// anything dangling.
type RefRegistry struct {
	byToken map[string]Ref
}

// NewRefRegistry creates an empty registry.
func NewRefRegistry() *RefRegistry {
	return &RefRegistry{byToken: make(map[string]Ref)}
}

func (r *RefRegistry) add(token string, ref Ref) string {
	r.byToken[token] = ref
	return token
}

// FeedToken registers the i-th network feed post and returns its token.
func (r *RefRegistry) FeedToken(i int, postID string) string {
	return r.add(fmt.Sprintf("F%d", i), Ref{Kind: RefPost, PostID: postID})
}

// CommunityPostToken registers the i-th community feed post.
func (r *RefRegistry) CommunityPostToken(i int, postID string) string {
	return r.add(fmt.Sprintf("CP%d", i), Ref{Kind: RefPost, PostID: postID})
}

// ReplyToken registers the j-th new reply of the i-th unread-reply group.
func (r *RefRegistry) ReplyToken(i, j int, postID string) string {
	return r.add(fmt.Sprintf("R_%d_%d", i, j), Ref{Kind: RefPost, PostID: postID})
}

// MentionToken registers the i-th mention post.
func (r *RefRegistry) MentionToken(i int, postID string) string {
	return r.add(fmt.Sprintf("M%d", i), Ref{Kind: RefPost, PostID: postID})
}

// CommunityToken registers a community reference.
func (r *RefRegistry) CommunityToken(communityID string) string {
	return r.add("C_"+communityID, Ref{Kind: RefCommunity, CommunityID: communityID})
}

// SetDirectiveTarget registers the intent's forced target post.
func (r *RefRegistry) SetDirectiveTarget(postID string) string {
	return r.add(DirectiveToken, Ref{Kind: RefPost, PostID: postID})
}

// ResolvePost maps a token back to a post id. Returns false for dangling or
// non-post tokens.
func (r *RefRegistry) ResolvePost(token string) (string, bool) {
	ref, ok := r.byToken[strings.TrimSpace(token)]
	if !ok || ref.Kind != RefPost {
		return "", false
	}
	return ref.PostID, true
}

// ResolveCommunity maps a token back to a community id. Unregistered tokens
// of the C_<id> form degrade to the bare id so a model echoing a community it
// saw outside the registry still lands somewhere checkable.
func (r *RefRegistry) ResolveCommunity(token string) (string, bool) {
	token = strings.TrimSpace(token)
	if ref, ok := r.byToken[token]; ok && ref.Kind == RefCommunity {
		return ref.CommunityID, true
	}
	if id, found := strings.CutPrefix(token, "C_"); found && id != "" {
		return id, true
	}
	return "", false
}
