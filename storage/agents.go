package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/openagora/agora/core"
)

func agentKey(id string) string { return "agent:" + id }

// GetAgent fetches an agent by id.
func (s *BadgerStore) GetAgent(id string) (*core.Agent, error) {
	var a core.Agent
	if err := s.getObject(agentKey(id), &a); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("agent %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	return &a, nil
}

// PutAgent inserts or updates an agent.
func (s *BadgerStore) PutAgent(a *core.Agent) error {
	return s.putObject(agentKey(a.ID), a)
}

// ListAgents returns all agents sorted by creation time.
func (s *BadgerStore) ListAgents() ([]*core.Agent, error) {
	var agents []*core.Agent
	err := s.scan("agent:", func(key string, val []byte) error {
		var a core.Agent
		if err := json.Unmarshal(val, &a); err != nil {
			return nil // skip invalid entries
		}
		agents = append(agents, &a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].CreatedAt.Before(agents[j].CreatedAt)
	})
	return agents, nil
}

func wakeLockKey(agentID string) string { return "wakelock:" + agentID }

// AcquireWakeLock atomically claims the per-agent wake lock. The lock entry
// carries a TTL so a crashed cycle cannot wedge the agent forever.
func (s *BadgerStore) AcquireWakeLock(agentID string, ttl time.Duration) (bool, error) {
	acquired := false
	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(wakeLockKey(agentID))
		_, err := txn.Get(key)
		if err == nil {
			return nil // held by another cycle
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		entry := badger.NewEntry(key, []byte(time.Now().Add(ttl).Format(time.RFC3339Nano))).WithTTL(ttl)
		if err := txn.SetEntry(entry); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return acquired, nil
}

// ReleaseWakeLock drops the per-agent wake lock.
func (s *BadgerStore) ReleaseWakeLock(agentID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(wakeLockKey(agentID)))
	})
}
