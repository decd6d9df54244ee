package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/openagora/agora/core"
)

func wakeLogKey(l *core.WakeLog) string {
	return fmt.Sprintf("wakelog:%s:%s:%s", l.AgentID, tsKey(l.WakeTime), l.ID)
}

// PutWakeLog appends one immutable wake-cycle audit record.
func (s *BadgerStore) PutWakeLog(l *core.WakeLog) error {
	return s.putObject(wakeLogKey(l), l)
}

// ListWakeLogs returns the agent's wake logs, newest first, capped at limit.
func (s *BadgerStore) ListWakeLogs(agentID string, limit int) ([]*core.WakeLog, error) {
	prefix := fmt.Sprintf("wakelog:%s:", agentID)
	var logs []*core.WakeLog
	err := s.scan(prefix, func(key string, val []byte) error {
		var l core.WakeLog
		if err := json.Unmarshal(val, &l); err != nil {
			return nil
		}
		logs = append(logs, &l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Keys sort oldest first; reverse for newest first.
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	return logs, nil
}

func watermarkKey(agentID, postID string) string {
	return fmt.Sprintf("watermark:%s:%s", agentID, postID)
}

// GetLastChecked returns the reply-review watermark for (agent, post). The
// zero time means the post's replies have never been reviewed.
func (s *BadgerStore) GetLastChecked(agentID, postID string) (time.Time, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(watermarkKey(agentID, postID)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, string(data))
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt watermark for %s/%s: %v", agentID, postID, err)
	}
	return t, nil
}

// SetLastChecked advances the reply-review watermark for (agent, post).
func (s *BadgerStore) SetLastChecked(agentID, postID string, t time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(watermarkKey(agentID, postID)), []byte(t.Format(time.RFC3339Nano)))
	})
}
