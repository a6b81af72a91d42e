/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor is the single writable surface of a document. Every UI surface
// (drag/drop input, property panels, template loading) funnels its changes through a
// Store, which applies them to the document and records undo snapshots.
//
// A Store is not safe for concurrent use: all calls are expected to come from the
// one goroutine driving the UI, one at a time. Lookups by id never fail; an unknown
// id turns the call into a no-op.
package editor

import (
	"log/slog"

	"github.com/google/uuid"

	"popupstudio/internal/domain"
	applog "popupstudio/internal/log"
	"popupstudio/internal/registry"
	"popupstudio/internal/undo"
)

// Config configures a new Store. Zero values pick sensible defaults.
type Config struct {
	// Canvas is the initial canvas; a zero Width selects domain.DefaultCanvas.
	Canvas domain.CanvasSettings
	// Blocks seeds the document, e.g. from a loaded file.
	Blocks   []domain.BlockInstance
	Registry *registry.Registry
	// History caps depth and, through CoalesceWindow, merges rapid resizes of the
	// same block into one undo step.
	History undo.Config
	// SnapThreshold is the smart-guide distance in pixels (default 6).
	SnapThreshold float64
	// NewID generates block and group ids (default uuid.NewString).
	NewID  func() string
	Logger *slog.Logger
}

// EventKind tells listeners what changed.
type EventKind string

const (
	EventCanvasChanged EventKind = "canvas"
	EventBlockAdded    EventKind = "block-added"
	EventBlockChanged  EventKind = "block-changed"
	EventBlockMoved    EventKind = "block-moved"
	EventBlockRemoved  EventKind = "block-removed"
	EventSelection     EventKind = "selection"
	EventGroup         EventKind = "group"
	EventHistory       EventKind = "history"
	EventLoaded        EventKind = "loaded"
)

// Event is delivered synchronously to listeners after a state change.
type Event struct {
	Kind    EventKind
	BlockID string
	GroupID string
}

// Store owns a document and its history.
type Store struct {
	doc   domain.Document
	hist  *undo.Manager
	reg   *registry.Registry
	log   *slog.Logger
	newID func() string
	snap  float64

	// issued holds every id handed out or loaded, so ids are never reused.
	issued map[string]bool

	listeners map[int]func(Event)
	nextSub   int
}

// New creates a store whose history baseline is the initial document.
func New(cfg Config) *Store {
	canvas := cfg.Canvas
	if canvas.Width == 0 {
		canvas = domain.DefaultCanvas()
	}
	s := &Store{
		hist:      undo.NewManager(cfg.History),
		reg:       cfg.Registry,
		log:       cfg.Logger,
		newID:     cfg.NewID,
		snap:      cfg.SnapThreshold,
		issued:    make(map[string]bool),
		listeners: make(map[int]func(Event)),
	}
	if s.reg == nil {
		s.reg = registry.Default()
	}
	if s.log == nil {
		s.log = applog.WithComponent("editor")
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.snap <= 0 {
		s.snap = 6
	}
	s.doc.Canvas = canvas.Clone()
	s.doc.Blocks = s.withUniqueIDs(cfg.Blocks)
	s.hist.Reset(s.ExportToJSON())
	return s
}

// Registry returns the block catalog used by PlaceBlock.
func (s *Store) Registry() *registry.Registry { return s.reg }

// Canvas returns a copy of the canvas settings.
func (s *Store) Canvas() domain.CanvasSettings { return s.doc.Canvas.Clone() }

// Blocks returns a deep copy of the block list in document order.
func (s *Store) Blocks() []domain.BlockInstance { return domain.CloneBlocks(s.doc.Blocks) }

// Block returns a copy of the block with the given id.
func (s *Store) Block(id string) (domain.BlockInstance, bool) {
	i := s.doc.Index(id)
	if i < 0 {
		return domain.BlockInstance{}, false
	}
	return s.doc.Blocks[i].Clone(), true
}

// Len returns the number of blocks.
func (s *Store) Len() int { return len(s.doc.Blocks) }

// SelectedBlockID returns the selected block id, or "" when nothing is selected.
func (s *Store) SelectedBlockID() string { return s.doc.SelectedBlockID }

// SelectedBlock returns a copy of the selected block.
func (s *Store) SelectedBlock() (domain.BlockInstance, bool) { return s.Block(s.doc.SelectedBlockID) }

// SelectBlock sets the selection. An empty id clears it; an unknown id is ignored.
// Selection is view state and never recorded in history.
func (s *Store) SelectBlock(id string) {
	if id != "" && s.doc.Index(id) < 0 {
		return
	}
	if s.doc.SelectedBlockID == id {
		return
	}
	s.doc.SelectedBlockID = id
	s.emit(Event{Kind: EventSelection, BlockID: id})
}

// ClearSelection deselects any block.
func (s *Store) ClearSelection() { s.SelectBlock("") }

// Subscribe registers fn to be called after every state change and returns a
// function that removes it.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

func (s *Store) emit(ev Event) {
	for _, fn := range s.listeners {
		fn(ev)
	}
}

// commit records the current document as a new history entry.
func (s *Store) commit(op string) {
	s.hist.Push(s.ExportToJSON())
	s.log.Debug("snapshot", slog.String("op", op), slog.Int("history", s.hist.Len()))
}

// Commit records a history entry for changes made by silent operations such as
// MoveBlock or MoveGroup. Drag collaborators call it once when a gesture settles so
// that one drag becomes one undo step.
func (s *Store) Commit() {
	s.commit("commit")
	s.emit(Event{Kind: EventHistory})
}

// Undo restores the previous history state. It reports whether anything changed.
func (s *Store) Undo() bool {
	snap, ok := s.hist.Undo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

// Redo re-applies the next history state. It reports whether anything changed.
func (s *Store) Redo() bool {
	snap, ok := s.hist.Redo()
	if !ok {
		return false
	}
	s.restore(snap)
	return true
}

func (s *Store) restore(snap domain.Snapshot) {
	s.doc.Canvas = snap.CanvasSettings
	s.doc.Blocks = snap.Blocks
	if s.doc.Index(s.doc.SelectedBlockID) < 0 {
		s.doc.SelectedBlockID = ""
	}
	s.emit(Event{Kind: EventHistory})
}

func (s *Store) CanUndo() bool { return s.hist.CanUndo() }
func (s *Store) CanRedo() bool { return s.hist.CanRedo() }

// HistoryLen returns the number of recorded history entries.
func (s *Store) HistoryLen() int { return s.hist.Len() }

// HistoryIndex returns the history cursor; -1 means the initial state.
func (s *Store) HistoryIndex() int { return s.hist.Index() }

// withUniqueIDs deep-copies blocks and assigns fresh ids to blocks whose id is
// missing or already taken.
func (s *Store) withUniqueIDs(in []domain.BlockInstance) []domain.BlockInstance {
	out := domain.CloneBlocks(in)
	seen := make(map[string]bool, len(out))
	for i := range out {
		if out[i].ID == "" || seen[out[i].ID] {
			out[i].ID = s.freshID()
		}
		seen[out[i].ID] = true
		s.issued[out[i].ID] = true
	}
	return out
}

// freshID returns an id that was never issued by this store.
func (s *Store) freshID() string {
	for {
		id := s.newID()
		if id != "" && !s.issued[id] {
			s.issued[id] = true
			return id
		}
	}
}
