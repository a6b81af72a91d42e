/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package undo keeps the linear undo/redo history of a document as full deep-copied
// snapshots with a cursor. Branching is not supported: pushing after an undo discards
// the undone future.
package undo

import (
	"sync"
	"time"

	"popupstudio/internal/domain"
)

// Entry is one immutable history snapshot.
type Entry struct {
	Blocks []domain.BlockInstance
	Canvas domain.CanvasSettings
	TS     time.Time
	key    string
}

// Snapshot returns a deep copy of the entry in export shape.
func (e Entry) Snapshot() domain.Snapshot {
	return domain.Snapshot{CanvasSettings: e.Canvas.Clone(), Blocks: domain.CloneBlocks(e.Blocks)}
}

// Config controls depth caps and coalescing.
type Config struct {
	// MaxEntries caps the history depth (0 means unlimited). When exceeded, the oldest
	// entry becomes the new baseline.
	MaxEntries int
	// CoalesceWindow merges consecutive PushCoalesced calls with the same key made
	// within the window into a single entry. Zero disables merging.
	CoalesceWindow time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// Manager holds the history entries and the cursor. The baseline is the state the
// document had when it was initialized or loaded; undo can return to it but it is not
// counted as an entry.
type Manager struct {
	cfg     Config
	mu      sync.Mutex
	base    Entry
	entries []Entry
	cursor  int
	// mergeable is true while the entry at cursor was the last thing pushed.
	mergeable bool
}

func NewManager(cfg Config) *Manager {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Manager{cfg: cfg, cursor: -1}
}

func (m *Manager) entryFor(s domain.Snapshot, key string) Entry {
	return Entry{
		Blocks: domain.CloneBlocks(s.Blocks),
		Canvas: s.CanvasSettings.Clone(),
		TS:     m.cfg.Now(),
		key:    key,
	}
}

// Reset discards all entries and records s as the new baseline.
func (m *Manager) Reset(s domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.base = m.entryFor(s, "")
	m.entries = nil
	m.cursor = -1
	m.mergeable = false
}

// Push records s after truncating any redo tail.
func (m *Manager) Push(s domain.Snapshot) {
	m.PushCoalesced("", s)
}

// PushCoalesced records s like Push, but replaces the newest entry instead when it was
// pushed with the same non-empty key less than CoalesceWindow ago and nothing was
// undone or redone since.
func (m *Manager) PushCoalesced(key string, s domain.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entryFor(s, key)
	if key != "" && m.cfg.CoalesceWindow > 0 && m.mergeable && m.cursor >= 0 {
		last := m.entries[m.cursor]
		if last.key == key && e.TS.Sub(last.TS) < m.cfg.CoalesceWindow {
			m.entries[m.cursor] = e
			return
		}
	}
	m.entries = append(m.entries[:m.cursor+1], e)
	m.cursor = len(m.entries) - 1
	m.mergeable = true
	m.enforceCapLocked()
}

func (m *Manager) enforceCapLocked() {
	if m.cfg.MaxEntries <= 0 || len(m.entries) <= m.cfg.MaxEntries {
		return
	}
	drop := len(m.entries) - m.cfg.MaxEntries
	m.base = m.entries[drop-1]
	m.entries = append([]Entry(nil), m.entries[drop:]...)
	m.cursor -= drop
}

// Undo moves the cursor back one entry and returns the state to restore. It returns
// false when there is nothing to undo.
func (m *Manager) Undo() (domain.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor < 0 {
		return domain.Snapshot{}, false
	}
	m.cursor--
	m.mergeable = false
	if m.cursor < 0 {
		return m.base.Snapshot(), true
	}
	return m.entries[m.cursor].Snapshot(), true
}

// Redo moves the cursor forward one entry and returns the state to restore.
func (m *Manager) Redo() (domain.Snapshot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cursor >= len(m.entries)-1 {
		return domain.Snapshot{}, false
	}
	m.cursor++
	m.mergeable = false
	return m.entries[m.cursor].Snapshot(), true
}

// Len returns the number of entries, excluding the baseline.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Index returns the cursor; -1 means the document is at its baseline.
func (m *Manager) Index() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

func (m *Manager) CanUndo() bool { return m.Index() >= 0 }

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor < len(m.entries)-1
}

// At returns a copy of entry i.
func (m *Manager) At(i int) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.entries) {
		return Entry{}, false
	}
	e := m.entries[i]
	e.Blocks = domain.CloneBlocks(e.Blocks)
	e.Canvas = e.Canvas.Clone()
	return e, true
}

// Stats returns sizes for diagnostics.
func (m *Manager) Stats() (entries int, cursor int, totalBlocks int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		totalBlocks += len(e.Blocks)
	}
	return len(m.entries), m.cursor, totalBlocks
}
