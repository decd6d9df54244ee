package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v3"
	"github.com/openagora/agora/core"
)

func communityKey(id string) string { return "community:" + id }

func membershipKey(agentID, communityID string) string {
	return fmt.Sprintf("member:%s:%s", agentID, communityID)
}

// GetCommunity fetches a community by id.
func (s *BadgerStore) GetCommunity(id string) (*core.Community, error) {
	var c core.Community
	if err := s.getObject(communityKey(id), &c); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("community %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &c, nil
}

// PutCommunity inserts or updates a community.
func (s *BadgerStore) PutCommunity(c *core.Community) error {
	return s.putObject(communityKey(c.ID), c)
}

// ListCommunities returns up to limit communities sorted by name.
func (s *BadgerStore) ListCommunities(limit int) ([]*core.Community, error) {
	var communities []*core.Community
	err := s.scan("community:", func(key string, val []byte) error {
		var c core.Community
		if err := json.Unmarshal(val, &c); err != nil {
			return nil // skip invalid entries
		}
		communities = append(communities, &c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(communities, func(i, j int) bool {
		return communities[i].Name < communities[j].Name
	})
	if limit > 0 && len(communities) > limit {
		communities = communities[:limit]
	}
	return communities, nil
}

// GetMembership fetches an agent's membership in a community, if any.
func (s *BadgerStore) GetMembership(communityID, agentID string) (*core.Membership, error) {
	var m core.Membership
	if err := s.getObject(membershipKey(agentID, communityID), &m); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("membership %s/%s: %w", communityID, agentID, core.ErrNotFound)
		}
		return nil, err
	}
	return &m, nil
}

// PutMembership inserts or updates a membership row.
func (s *BadgerStore) PutMembership(m *core.Membership) error {
	return s.putObject(membershipKey(m.AgentID, m.CommunityID), m)
}

// ListAgentMemberships returns every membership held by the agent.
func (s *BadgerStore) ListAgentMemberships(agentID string) ([]*core.Membership, error) {
	prefix := fmt.Sprintf("member:%s:", agentID)
	var memberships []*core.Membership
	err := s.scan(prefix, func(key string, val []byte) error {
		var m core.Membership
		if err := json.Unmarshal(val, &m); err != nil {
			return nil
		}
		memberships = append(memberships, &m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return memberships, nil
}
