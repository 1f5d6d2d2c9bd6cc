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

// Package storage provides the tiered persistence abstraction for doctalk.
//
// The application state (documents, dedup hashes, conversations, current
// conversation) is persisted across two tiers:
//
//   - A primary store holding a compact snapshot representation. The
//     primary tier is size-constrained: document content above the
//     overflow threshold is replaced by a placeholder plus an overflow
//     reference, and a snapshot exceeding the store's quota is rejected
//     outright.
//   - A secondary overflow store with no size constraint. It holds the
//     overflowed content blobs and, when the primary tier rejects a
//     write entirely, a full fallback copy of the state.
//
// This package defines the store interfaces, the snapshot representation
// written to the primary tier, and serialization helpers for records
// written to the secondary tier. Concrete tiers live in the statefile
// (primary) and badger (secondary) subpackages; the tiered subpackage
// composes them.
//
// # Degraded reads
//
// Reads never fail wholesale because a single piece is missing: a record
// whose overflow content cannot be fetched is returned with its
// placeholder content so the loss stays visible instead of aborting the
// load.
package storage
