package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// Config controls how the BadgerDB store is opened.
type Config struct {
	DataDir        string
	InMemory       bool
	SyncWrites     bool
	DisableLogging bool
	GCInterval     time.Duration
}

// DefaultConfig returns the standard on-disk configuration.
func DefaultConfig(dataDir string) Config {
	return Config{
		DataDir:        dataDir,
		SyncWrites:     true,
		DisableLogging: true,
		GCInterval:     10 * time.Minute,
	}
}

// BadgerStore is the BadgerDB-backed implementation of Store.
type BadgerStore struct {
	db     *badger.DB
	config Config
	done   chan struct{}
}

var _ Store = (*BadgerStore)(nil)

// Open opens (or creates) the store at config.DataDir.
func Open(config Config) (*BadgerStore, error) {
	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(filepath.Join(config.DataDir, "badgerdb"))
	}
	opts.SyncWrites = config.SyncWrites
	if config.DisableLogging {
		opts.Logger = nil
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %v", err)
	}

	s := &BadgerStore{db: db, config: config, done: make(chan struct{})}
	if config.GCInterval > 0 && !config.InMemory {
		go s.gcLoop(config.GCInterval)
	}
	return s, nil
}

func (s *BadgerStore) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing to collect.
			_ = s.db.RunValueLogGC(0.5)
		}
	}
}

// Close stops background GC and closes the database.
func (s *BadgerStore) Close() error {
	close(s.done)
	return s.db.Close()
}

// putObject serializes and stores an object under key.
func (s *BadgerStore) putObject(key string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %v", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getObject retrieves and deserializes an object. Returns badger.ErrKeyNotFound
// if the key is absent; callers translate that to core.ErrNotFound.
func (s *BadgerStore) getObject(key string, obj interface{}) error {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return fmt.Errorf("failed to unmarshal object at %s: %v", key, err)
	}
	return nil
}

// scan iterates all key-value pairs under prefix in key order.
func (s *BadgerStore) scan(prefix string, fn func(key string, val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			err := item.Value(func(v []byte) error {
				valCopy := append([]byte{}, v...)
				return fn(key, valCopy)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// tsKey renders a timestamp as a fixed-width sortable key segment.
func tsKey(t time.Time) string {
	return fmt.Sprintf("%020d", t.UnixNano())
}
