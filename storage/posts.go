package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/openagora/agora/core"
)

func postKey(id string) string { return "post:" + id }

func postTimeKey(p *core.Post) string {
	return fmt.Sprintf("post_time:%s:%s", tsKey(p.CreatedAt), p.ID)
}

func postReplyKey(p *core.Post) string {
	return fmt.Sprintf("post_reply:%s:%s:%s", p.ParentID, tsKey(p.CreatedAt), p.ID)
}

func postAgentKey(p *core.Post) string {
	return fmt.Sprintf("post_agent:%s:%s:%s", p.AgentID, tsKey(p.CreatedAt), p.ID)
}

func postCommunityKey(p *core.Post) string {
	return fmt.Sprintf("post_comm:%s:%s:%s", p.CommunityID, tsKey(p.CreatedAt), p.ID)
}

// GetPost fetches a post by id.
func (s *BadgerStore) GetPost(id string) (*core.Post, error) {
	var p core.Post
	if err := s.getObject(postKey(id), &p); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("post %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &p, nil
}

// PutPost inserts or updates a post and maintains its time/parent/agent/
// community index entries. Index keys are derived from immutable fields, so
// re-writing an updated post is idempotent on the indexes.
func (s *BadgerStore) PutPost(p *core.Post) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal post: %v", err)
	}

	rootMarker := []byte("c")
	if p.IsRoot() {
		rootMarker = []byte("r")
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(postKey(p.ID)), data); err != nil {
			return err
		}
		if err := txn.Set([]byte(postTimeKey(p)), []byte(p.ID)); err != nil {
			return err
		}
		if p.AgentID != "" {
			if err := txn.Set([]byte(postAgentKey(p)), rootMarker); err != nil {
				return err
			}
		}
		if !p.IsRoot() {
			if err := txn.Set([]byte(postReplyKey(p)), []byte(p.ID)); err != nil {
				return err
			}
		}
		if p.CommunityID != "" && p.IsRoot() {
			if err := txn.Set([]byte(postCommunityKey(p)), []byte(p.ID)); err != nil {
				return err
			}
		}
		return nil
	})
}

// collectByIndex walks a timestamp-ordered index prefix and loads the posts
// whose index timestamp falls at or after since.
func (s *BadgerStore) collectByIndex(prefix string, since time.Time) ([]*core.Post, error) {
	var ids []string
	err := s.scan(prefix, func(key string, val []byte) error {
		ts, ok := indexTimestamp(key, prefix)
		if !ok || ts.Before(since) {
			return nil
		}
		ids = append(ids, string(val))
		return nil
	})
	if err != nil {
		return nil, err
	}

	posts := make([]*core.Post, 0, len(ids))
	for _, id := range ids {
		p, err := s.GetPost(id)
		if err != nil {
			continue // index entry may outlive the post
		}
		if p.Deleted {
			continue
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// indexTimestamp parses the fixed-width nanosecond segment that follows the
// index prefix.
func indexTimestamp(key, prefix string) (time.Time, bool) {
	rest := strings.TrimPrefix(key, prefix)
	if len(rest) < 20 {
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(rest[:20], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}

func sortNewestFirst(posts []*core.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
}

func capPosts(posts []*core.Post, limit int) []*core.Post {
	if limit > 0 && len(posts) > limit {
		return posts[:limit]
	}
	return posts
}

// ListRecentPosts returns top-level posts created at or after since, newest
// first, capped at limit.
func (s *BadgerStore) ListRecentPosts(since time.Time, limit int) ([]*core.Post, error) {
	all, err := s.collectByIndex("post_time:", since)
	if err != nil {
		return nil, err
	}
	var roots []*core.Post
	for _, p := range all {
		if p.IsRoot() {
			roots = append(roots, p)
		}
	}
	sortNewestFirst(roots)
	return capPosts(roots, limit), nil
}

// ListPostsSince returns all post nodes (roots and replies) created at or
// after since, newest first, capped at limit.
func (s *BadgerStore) ListPostsSince(since time.Time, limit int) ([]*core.Post, error) {
	all, err := s.collectByIndex("post_time:", since)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(all)
	return capPosts(all, limit), nil
}

// ListRepliesSince returns the direct replies to parentID created strictly
// after the given watermark, oldest first.
func (s *BadgerStore) ListRepliesSince(parentID string, after time.Time) ([]*core.Post, error) {
	prefix := fmt.Sprintf("post_reply:%s:", parentID)
	replies, err := s.collectByIndex(prefix, after)
	if err != nil {
		return nil, err
	}
	var out []*core.Post
	for _, p := range replies {
		if p.CreatedAt.After(after) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// ListAgentPosts returns posts authored by the agent, newest first.
func (s *BadgerStore) ListAgentPosts(agentID string, limit int) ([]*core.Post, error) {
	prefix := fmt.Sprintf("post_agent:%s:", agentID)
	var ids []string
	err := s.scan(prefix, func(key string, val []byte) error {
		rest := strings.TrimPrefix(key, prefix)
		if parts := strings.SplitN(rest, ":", 2); len(parts) == 2 {
			ids = append(ids, parts[1])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var posts []*core.Post
	for _, id := range ids {
		p, err := s.GetPost(id)
		if err != nil || p.Deleted {
			continue
		}
		posts = append(posts, p)
	}
	sortNewestFirst(posts)
	return capPosts(posts, limit), nil
}

// ListCommunityPosts returns top-level posts in the community created at or
// after since, newest first, capped at limit.
func (s *BadgerStore) ListCommunityPosts(communityID string, since time.Time, limit int) ([]*core.Post, error) {
	prefix := fmt.Sprintf("post_comm:%s:", communityID)
	posts, err := s.collectByIndex(prefix, since)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(posts)
	return capPosts(posts, limit), nil
}

// CountAgentPostsSince counts posts authored by the agent at or after since,
// reading only index keys. With rootOnly set, replies are excluded. This is
// the sliding-window source for hourly rate and daily post ceilings.
func (s *BadgerStore) CountAgentPostsSince(agentID string, since time.Time, rootOnly bool) (int, error) {
	prefix := fmt.Sprintf("post_agent:%s:", agentID)
	count := 0
	err := s.scan(prefix, func(key string, val []byte) error {
		ts, ok := indexTimestamp(key, prefix)
		if !ok || ts.Before(since) {
			return nil
		}
		if rootOnly && string(val) != "r" {
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
