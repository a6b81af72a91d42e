/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"log/slog"

	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
)

// SetCanvasSettings shallow-merges p into the canvas. Values are not range-checked;
// the property panel is trusted to send sane sizes.
func (s *Store) SetCanvasSettings(p domain.CanvasPatch) {
	s.doc.Canvas = s.doc.Canvas.Apply(p)
	s.commit("set_canvas")
	s.emit(Event{Kind: EventCanvasChanged})
}

// AddBlock assigns a fresh id to b, appends it, selects it and returns the id.
// Position and size are stored as given; centering and clamping are the caller's job.
func (s *Store) AddBlock(b domain.BlockInstance) string {
	b = b.Clone()
	b.ID = s.freshID()
	if b.Content == nil {
		b.Content = domain.Content{}
	}
	if b.Style == nil {
		b.Style = domain.Style{}
	}
	s.doc.Blocks = append(s.doc.Blocks, b)
	s.doc.SelectedBlockID = b.ID
	s.log.Debug("add block", slog.String("id", b.ID), slog.String("type", b.Type))
	s.commit("add_block")
	s.emit(Event{Kind: EventBlockAdded, BlockID: b.ID})
	return b.ID
}

// UpdateBlock shallow-merges the patch into the block.
func (s *Store) UpdateBlock(id string, p domain.BlockPatch) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.doc.Blocks[i] = s.doc.Blocks[i].Apply(p)
	s.commit("update_block")
	s.emit(Event{Kind: EventBlockChanged, BlockID: id})
}

// UpdateBlockContent replaces the block's content wholesale. Callers that want to
// keep existing keys merge them in before calling.
func (s *Store) UpdateBlockContent(id string, c domain.Content) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	c = c.Clone()
	if c == nil {
		c = domain.Content{}
	}
	s.doc.Blocks[i].Content = c
	s.commit("update_content")
	s.emit(Event{Kind: EventBlockChanged, BlockID: id})
}

// UpdateBlockStyle merges st into the block's style.
func (s *Store) UpdateBlockStyle(id string, st domain.Style) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.doc.Blocks[i].Style = s.doc.Blocks[i].Style.Merge(st)
	s.commit("update_style")
	s.emit(Event{Kind: EventBlockChanged, BlockID: id})
}

// MoveBlock sets the position directly without recording history. A drag emits
// many of these; the gesture is committed once when it settles.
func (s *Store) MoveBlock(id string, pos geometry.Point) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.doc.Blocks[i].Position = pos
	s.emit(Event{Kind: EventBlockMoved, BlockID: id})
}

// ResizeBlock sets the size directly, without clamping, and records history.
// With a history CoalesceWindow configured, rapid resizes of the same block
// collapse into one entry.
func (s *Store) ResizeBlock(id string, size geometry.Size) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.doc.Blocks[i].Size = size
	s.hist.PushCoalesced("resize:"+id, s.ExportToJSON())
	s.log.Debug("snapshot", slog.String("op", "resize_block"), slog.Int("history", s.hist.Len()))
	s.emit(Event{Kind: EventBlockChanged, BlockID: id})
}

// RemoveBlock deletes the block and clears the selection if it pointed at it.
func (s *Store) RemoveBlock(id string) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.doc.Blocks = append(s.doc.Blocks[:i:i], s.doc.Blocks[i+1:]...)
	if s.doc.SelectedBlockID == id {
		s.doc.SelectedBlockID = ""
	}
	s.commit("remove_block")
	s.emit(Event{Kind: EventBlockRemoved, BlockID: id})
}
