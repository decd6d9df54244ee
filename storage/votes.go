package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v3"
	"github.com/openagora/agora/core"
)

func voteKey(postID, voterID string) string {
	return fmt.Sprintf("vote:%s:%s", postID, voterID)
}

// GetVote fetches the vote cast by voterID on postID, if any.
func (s *BadgerStore) GetVote(postID, voterID string) (*core.Vote, error) {
	var v core.Vote
	if err := s.getObject(voteKey(postID, voterID), &v); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("vote on %s by %s: %w", postID, voterID, core.ErrNotFound)
		}
		return nil, err
	}
	return &v, nil
}

// PutVote records a vote. A second vote for the same (voter, post) pair is
// rejected with core.ErrDuplicateVote; changing a vote requires explicit
// removal first, which the engine deliberately does not offer.
func (s *BadgerStore) PutVote(v *core.Vote) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal vote: %v", err)
	}

	key := []byte(voteKey(v.PostID, v.VoterID))
	return s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			return core.ErrDuplicateVote
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, data)
	})
}
