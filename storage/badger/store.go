// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package badger implements the secondary (overflow) persistence tier on
// BadgerDB. It stores individual content blobs referenced from primary
// snapshots and, when the primary tier rejects a write, a complete
// fallback copy of the application state.
package badger

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/doctalk/storage"
)

// Store implements storage.OverflowStore on a Badger backend.
type Store struct {
	backend *Backend
}

var _ storage.OverflowStore = (*Store)(nil)

// NewStore creates an overflow store on the given backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

// PutContent stores a content blob under the given overflow reference.
func (s *Store) PutContent(ctx context.Context, ref string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeOverflowKey(ref), []byte(content)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetContent returns the blob stored under ref, or storage.ErrNotFound.
func (s *Store) GetContent(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var content string
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeOverflowKey(ref))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			content = string(val)
			return nil
		})
	}, false)
	return content, err
}

// DeleteContent removes the blob stored under ref. Deleting an unknown
// reference is a no-op.
func (s *Store) DeleteContent(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeOverflowKey(ref)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// PutFallbackState stores the entire state, full content included, and
// marks the fallback tier as authoritative. Any previous fallback state
// is replaced. Records go through a write batch, so states too large
// for a single transaction still land; the authority marker is written
// only after every record has been flushed.
func (s *Store) PutFallbackState(ctx context.Context, state *storage.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.deletePrefixes(fallbackDocPrefix, fallbackConvPrefix, fallbackHashPrefix); err != nil {
		return err
	}

	batch := s.backend.NewWriteBatch()
	defer batch.Cancel()

	for i, record := range state.Documents {
		if err := batch.Set(makeFallbackDocKey(i), storage.MarshalDocumentRecord(record)); err != nil {
			return err
		}
	}
	for i, conversation := range state.Conversations {
		if err := batch.Set(makeFallbackConvKey(i), storage.MarshalConversation(conversation)); err != nil {
			return err
		}
	}
	for _, hash := range state.Hashes {
		if err := batch.Set(makeFallbackHashKey(hash), nil); err != nil {
			return err
		}
	}
	if err := batch.Set([]byte(fallbackCurrentKey), []byte(state.CurrentConversationId)); err != nil {
		return err
	}
	if err := batch.Flush(); err != nil {
		return err
	}

	return s.backend.WithTx(func(tx *badger.Txn) error {
		marker := []byte(time.Now().UTC().Format(time.RFC3339))
		if err := tx.Set([]byte(fallbackMarkerKey), marker); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetFallbackState reconstructs the state from the fallback tier.
// Positional keys iterate in insertion order, so document and
// conversation ordering survives the round trip.
func (s *Store) GetFallbackState(ctx context.Context) (*storage.State, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	has, err := s.HasFallbackState(ctx)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, storage.ErrNotFound
	}

	state := &storage.State{}
	err = s.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fallbackDocPrefix + ":")
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				record, err := storage.UnmarshalDocumentRecord(val)
				if err != nil {
					return err
				}
				state.Documents = append(state.Documents, record)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		opts = badger.DefaultIteratorOptions
		opts.Prefix = []byte(fallbackConvPrefix + ":")
		iter = tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				conversation, err := storage.UnmarshalConversation(val)
				if err != nil {
					return err
				}
				state.Conversations = append(state.Conversations, conversation)
				return nil
			})
			if err != nil {
				iter.Close()
				return err
			}
		}
		iter.Close()

		hashPrefix := []byte(fallbackHashPrefix + ":")
		opts = badger.DefaultIteratorOptions
		opts.Prefix = hashPrefix
		iter = tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid(); iter.Next() {
			key := iter.Item().Key()
			state.Hashes = append(state.Hashes, string(bytes.TrimPrefix(key, hashPrefix)))
		}
		iter.Close()

		item, err := tx.Get([]byte(fallbackCurrentKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			state.CurrentConversationId = string(val)
			return nil
		})
	}, false)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// HasFallbackState reports whether the fallback tier is authoritative.
func (s *Store) HasFallbackState(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	has := false
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte(fallbackMarkerKey))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		has = true
		return nil
	}, false)
	return has, err
}

// Clear removes all overflow content and fallback state.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.backend.DropAll()
}

// ClearFallback removes only the fallback state, leaving overflow blobs
// in place. Called after a successful primary write supersedes the
// fallback tier.
func (s *Store) ClearFallback(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.deletePrefixes(fallbackDocPrefix, fallbackConvPrefix, fallbackHashPrefix); err != nil {
		return err
	}
	return s.backend.WithTx(func(tx *badger.Txn) error {
		for _, key := range [][]byte{[]byte(fallbackCurrentKey), []byte(fallbackMarkerKey)} {
			if err := tx.Delete(key); err != nil && err != badger.ErrKeyNotFound {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// deletePrefixes removes every key under each of the given prefixes.
// Deletions go through a write batch so an arbitrarily large fallback
// state can be replaced wholesale.
func (s *Store) deletePrefixes(prefixes ...string) error {
	batch := s.backend.NewWriteBatch()
	defer batch.Cancel()

	for _, prefix := range prefixes {
		var keys [][]byte
		err := s.backend.WithTx(func(tx *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefix + ":")
			opts.PrefetchValues = false
			iter := tx.NewIterator(opts)
			defer iter.Close()
			for iter.Rewind(); iter.Valid(); iter.Next() {
				keys = append(keys, iter.Item().KeyCopy(nil))
			}
			return nil
		}, false)
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := batch.Delete(key); err != nil {
				return err
			}
		}
	}
	return batch.Flush()
}
