/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"popupstudio/internal/domain"
)

// ExportToJSON returns a deep copy of {canvasSettings, blocks}. Later edits never
// reach a value returned earlier. Blocks is never nil.
func (s *Store) ExportToJSON() domain.Snapshot {
	blocks := domain.CloneBlocks(s.doc.Blocks)
	if blocks == nil {
		blocks = []domain.BlockInstance{}
	}
	return domain.Snapshot{CanvasSettings: s.doc.Canvas.Clone(), Blocks: blocks}
}

// ExportJSON encodes ExportToJSON as indented JSON.
func (s *Store) ExportJSON() ([]byte, error) {
	b, err := json.MarshalIndent(s.ExportToJSON(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return append(b, '\n'), nil
}

// ImportJSON decodes an exported document and loads it like a template.
func (s *Store) ImportJSON(data []byte) error {
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	s.LoadTemplate(snap)
	return nil
}

// LoadTemplate replaces the canvas and blocks wholesale, clears the selection and
// starts a fresh history whose baseline is the loaded state. Missing or duplicate
// block ids are replaced with fresh ones.
func (s *Store) LoadTemplate(snap domain.Snapshot) {
	s.doc.Canvas = snap.CanvasSettings.Clone()
	s.doc.Blocks = s.withUniqueIDs(snap.Blocks)
	s.doc.SelectedBlockID = ""
	s.hist.Reset(s.ExportToJSON())
	s.log.Debug("load template", slog.String("name", s.doc.Canvas.Name), slog.Int("blocks", len(s.doc.Blocks)))
	s.emit(Event{Kind: EventLoaded})
}
