/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
	"popupstudio/internal/registry"
)

// The helpers below are what the drag/drop and resize collaborators call. They
// resolve canvas arithmetic and then go through the raw operations, so history
// behaves exactly as it does for direct calls.

// PlaceBlock drops a new block of type typ centered on the point at, using the
// registry defaults merged with o, and keeps it inside the canvas. Unless o sets a
// ZIndex, the block is stacked above everything else. It returns the new id.
func (s *Store) PlaceBlock(typ string, at geometry.Point, o registry.Overrides) string {
	b := s.reg.NewBlock(typ, geometry.Point{}, o)
	b.Position = geometry.ClampPosition(geometry.CenteredAt(at, b.Size), s.doc.Canvas.Bounds(), b.Size)
	if o.ZIndex == nil {
		b.ZIndex = s.maxZ() + 1
	}
	return s.AddBlock(b)
}

// DragBlock moves a block to pos clamped inside the canvas. Like MoveBlock it does
// not record history.
func (s *Store) DragBlock(id string, pos geometry.Point) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	s.MoveBlock(id, geometry.ClampPosition(pos, s.doc.Canvas.Bounds(), s.doc.Blocks[i].Size))
}

// ResizeWithHandle applies a corner-handle drag. start is the block's box when the
// drag began and delta the cumulative pointer offset since then. The resulting
// size is floored at geometry.MinBlockSize and the opposite corner stays put.
func (s *Store) ResizeWithHandle(id string, h geometry.Handle, start geometry.Box, delta geometry.Point) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	box := geometry.ResizeFromHandle(h, start, delta)
	s.doc.Blocks[i].Position = box.Pos
	s.ResizeBlock(id, box.Size)
}

// SnapPosition reports where the block would land if dropped at pos with smart
// guides against the canvas and the other blocks, plus the guides to draw. It
// does not change the document.
func (s *Store) SnapPosition(id string, pos geometry.Point) (geometry.Point, []geometry.GuideLine) {
	i := s.doc.Index(id)
	if i < 0 {
		return pos, nil
	}
	anchors := []geometry.Anchor{geometry.CanvasAnchor(s.doc.Canvas.Bounds())}
	for j, b := range s.doc.Blocks {
		if j != i {
			anchors = append(anchors, geometry.Anchor{Rect: b.Rect(), Weight: 1})
		}
	}
	size := s.doc.Blocks[i].Size
	moving := geometry.R(pos.X, pos.Y, size.Width, size.Height)
	snapped, guides := geometry.ComputeGuides(moving, anchors, geometry.SnapOptions{Threshold: s.snap, Edges: true, Centers: true})
	return geometry.Point{X: snapped.X, Y: snapped.Y}, guides
}

// DuplicateBlock copies a block 10px down and right, outside any group and on top
// of the stack, and returns the copy's id ("" when id is unknown).
func (s *Store) DuplicateBlock(id string) string {
	i := s.doc.Index(id)
	if i < 0 {
		return ""
	}
	b := s.doc.Blocks[i].Clone()
	b.Position.X += 10
	b.Position.Y += 10
	b.GroupID = ""
	b.ZIndex = s.maxZ() + 1
	return s.AddBlock(b)
}

// BringToFront stacks the block above all others.
func (s *Store) BringToFront(id string) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	z := s.maxZ() + 1
	s.UpdateBlock(id, domain.BlockPatch{ZIndex: &z})
}

// SendToBack stacks the block below all others.
func (s *Store) SendToBack(id string) {
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	z := s.minZ() - 1
	s.UpdateBlock(id, domain.BlockPatch{ZIndex: &z})
}

func (s *Store) maxZ() int {
	z := 0
	for i, b := range s.doc.Blocks {
		if i == 0 || b.ZIndex > z {
			z = b.ZIndex
		}
	}
	return z
}

func (s *Store) minZ() int {
	z := 0
	for i, b := range s.doc.Blocks {
		if i == 0 || b.ZIndex < z {
			z = b.ZIndex
		}
	}
	return z
}
