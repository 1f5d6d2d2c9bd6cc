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


// Package statefile implements the primary persistence tier as a single
// quota-limited JSON snapshot file.
package statefile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/poiesic/doctalk/storage"
)

// DefaultQuota is the maximum snapshot payload the store accepts, in
// bytes. Oversized payloads are rejected so the caller can fall back to
// the overflow tier.
const DefaultQuota = 5 << 20 // 5 MiB

// Store persists snapshots as a JSON file with an enforced size quota.
type Store struct {
	path   string
	quota  int
	logger *slog.Logger
}

var _ storage.PrimaryStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithQuota sets the maximum accepted payload size in bytes.
func WithQuota(quota int) Option {
	return func(s *Store) {
		if quota > 0 {
			s.quota = quota
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a snapshot file store at the given path.
// The parent directory is created if it does not exist.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("statefile: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	s := &Store{
		path:   path,
		quota:  DefaultQuota,
		logger: slog.Default().With("component", "statefile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// WriteSnapshot persists the snapshot atomically (temp file + rename).
// Payloads above the quota are rejected with storage.ErrQuotaExceeded
// before anything touches the disk, leaving any previous snapshot intact.
func (s *Store) WriteSnapshot(ctx context.Context, snapshot *storage.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}

	if len(data) > s.quota {
		s.logger.Warn("snapshot exceeds primary quota",
			"size", len(data), "quota", s.quota)
		return fmt.Errorf("%w: %d bytes > %d", storage.ErrQuotaExceeded, len(data), s.quota)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return err
	}

	s.logger.Debug("snapshot written", "size", len(data), "documents", len(snapshot.Documents))
	return nil
}

// ReadSnapshot returns the stored snapshot, or storage.ErrNotFound when
// no snapshot file exists.
func (s *Store) ReadSnapshot(ctx context.Context) (*storage.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var snapshot storage.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrSerializationFailed, err)
	}
	return &snapshot, nil
}

// Clear removes the snapshot file. Removing an absent file is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
