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
	"testing"

	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
	"popupstudio/internal/registry"
)

func TestMoveGroupOffsetsMembersOnly(t *testing.T) {
	s := newTestStore(t, Config{})
	a := s.AddBlock(textBlock(10, 10))
	b := s.AddBlock(textBlock(50, 60))
	c := s.AddBlock(textBlock(100, 100))
	gid := s.CreateGroup([]string{a, b, "missing"})
	if gid == "" {
		t.Fatalf("expected a group id")
	}
	if got := s.GroupMembers(gid); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected members %v", got)
	}
	before := s.HistoryLen()

	s.MoveGroup(gid, 10, -5)

	ba, _ := s.Block(a)
	bb, _ := s.Block(b)
	bc, _ := s.Block(c)
	if ba.Position != (geometry.Point{X: 20, Y: 5}) || bb.Position != (geometry.Point{X: 60, Y: 55}) {
		t.Fatalf("members not offset: %+v %+v", ba.Position, bb.Position)
	}
	if bc.Position != (geometry.Point{X: 100, Y: 100}) {
		t.Fatalf("non-member moved: %+v", bc.Position)
	}
	if s.HistoryLen() != before {
		t.Fatalf("MoveGroup must not snapshot")
	}
}

func TestCreateGroupWithNoKnownIDs(t *testing.T) {
	s := newTestStore(t, Config{})
	if gid := s.CreateGroup([]string{"x", "y"}); gid != "" {
		t.Fatalf("expected empty group id, got %q", gid)
	}
	if gid := s.CreateGroup(nil); gid != "" {
		t.Fatalf("expected empty group id for nil, got %q", gid)
	}
}

func TestGroupMembershipChanges(t *testing.T) {
	s := newTestStore(t, Config{})
	a := s.AddBlock(textBlock(0, 0))
	b := s.AddBlock(textBlock(0, 0))
	c := s.AddBlock(textBlock(0, 0))
	g1 := s.CreateGroup([]string{a, b})
	g2 := s.CreateGroup([]string{b, c})
	if g1 == g2 {
		t.Fatalf("group ids must differ")
	}
	if got := s.GroupMembers(g1); len(got) != 1 || got[0] != a {
		t.Fatalf("b should have moved to the new group, g1=%v", got)
	}
	s.AddToGroup(a, g2)
	s.RemoveFromGroup(c)
	if got := s.GroupMembers(g2); len(got) != 2 || got[0] != a || got[1] != b {
		t.Fatalf("unexpected g2 members %v", got)
	}
	s.Ungroup(g2)
	if got := s.GroupMembers(g2); len(got) != 0 {
		t.Fatalf("ungroup left members %v", got)
	}
	if s.Len() != 3 {
		t.Fatalf("ungroup must not delete blocks")
	}
}

func TestGroupTagIsCapturedByNextSnapshot(t *testing.T) {
	s := newTestStore(t, Config{})
	a := s.AddBlock(textBlock(0, 0))
	before := s.HistoryLen()
	gid := s.CreateGroup([]string{a})
	if s.HistoryLen() != before {
		t.Fatalf("grouping alone must not snapshot")
	}
	s.Commit()
	s.UpdateBlockStyle(a, domain.Style{"color": "red"})
	s.Undo()
	if b, _ := s.Block(a); b.GroupID != gid {
		t.Fatalf("committed group tag lost on undo: %+v", b)
	}
}

func TestPlaceBlockCentersClampsAndStacks(t *testing.T) {
	s := newTestStore(t, Config{})
	first := s.PlaceBlock("button", geometry.Point{X: 225, Y: 300}, registry.Overrides{})
	b, _ := s.Block(first)
	if b.Position != (geometry.Point{X: 125, Y: 275}) {
		t.Fatalf("button should be centered on the drop point, got %+v", b.Position)
	}
	if b.Content["action"] != "close" {
		t.Fatalf("registry defaults missing: %+v", b.Content)
	}
	second := s.PlaceBlock("button", geometry.Point{X: 449, Y: 599}, registry.Overrides{Content: domain.Content{"text": "Go"}})
	c, _ := s.Block(second)
	if c.Position != (geometry.Point{X: 250, Y: 550}) {
		t.Fatalf("drop near the corner should be clamped, got %+v", c.Position)
	}
	if c.ZIndex <= b.ZIndex {
		t.Fatalf("later block should stack above, z=%d vs %d", c.ZIndex, b.ZIndex)
	}
	if c.Content["text"] != "Go" {
		t.Fatalf("override lost: %+v", c.Content)
	}
}

func TestPlaceUnknownTypeUsesFallbackSize(t *testing.T) {
	s := newTestStore(t, Config{})
	id := s.PlaceBlock("hologram", geometry.Point{X: 225, Y: 300}, registry.Overrides{})
	b, _ := s.Block(id)
	if b.Size != registry.FallbackSize || b.Type != "hologram" {
		t.Fatalf("unexpected block %+v", b)
	}
}

func TestPlaceBlockHonorsExplicitZeroZIndex(t *testing.T) {
	s := newTestStore(t, Config{})
	s.PlaceBlock("text", geometry.Point{X: 225, Y: 100}, registry.Overrides{})
	id := s.PlaceBlock("button", geometry.Point{X: 225, Y: 300}, registry.Overrides{ZIndex: domain.Ptr(0)})
	b, _ := s.Block(id)
	if b.ZIndex != 0 {
		t.Fatalf("explicit zIndex 0 should be kept, got %d", b.ZIndex)
	}
}

func TestDragBlockClamps(t *testing.T) {
	s := newTestStore(t, Config{})
	id := s.AddBlock(textBlock(0, 0))
	before := s.HistoryLen()
	s.DragBlock(id, geometry.Point{X: -40, Y: 900})
	b, _ := s.Block(id)
	if b.Position != (geometry.Point{X: 0, Y: 540}) {
		t.Fatalf("drag should clamp inside the canvas, got %+v", b.Position)
	}
	s.Commit()
	if s.HistoryLen() != before+1 {
		t.Fatalf("Commit should record one entry")
	}
}

func TestResizeWithHandleKeepsOppositeCorner(t *testing.T) {
	s := newTestStore(t, Config{})
	id := s.AddBlock(textBlock(100, 100))
	start := geometry.Box{Pos: geometry.Point{X: 100, Y: 100}, Size: geometry.Size{Width: 300, Height: 60}}
	s.ResizeWithHandle(id, geometry.TopLeft, start, geometry.Point{X: 500, Y: 10})
	b, _ := s.Block(id)
	if b.Size != (geometry.Size{Width: geometry.MinBlockSize, Height: 50}) {
		t.Fatalf("unexpected size %+v", b.Size)
	}
	if b.Position != (geometry.Point{X: 380, Y: 110}) {
		t.Fatalf("right/bottom edges should stay put, got %+v", b.Position)
	}
	s.Undo()
	if b, _ := s.Block(id); b.Position != start.Pos || b.Size != start.Size {
		t.Fatalf("undo should restore the starting box, got %+v", b.Box())
	}
}

func TestSnapPositionAlignsToCanvasCenter(t *testing.T) {
	s := newTestStore(t, Config{})
	id := s.AddBlock(domain.BlockInstance{Type: "button", Size: geometry.Size{Width: 200, Height: 50}})
	p, guides := s.SnapPosition(id, geometry.Point{X: 122, Y: 400})
	if p.X != 125 {
		t.Fatalf("expected snap to x=125, got %+v", p)
	}
	if len(guides) == 0 {
		t.Fatalf("expected a guide line")
	}
	if b, _ := s.Block(id); b.Position != (geometry.Point{}) {
		t.Fatalf("SnapPosition must not move the block")
	}
}

func TestDuplicateAndStacking(t *testing.T) {
	s := newTestStore(t, Config{})
	a := s.AddBlock(textBlock(10, 10))
	gid := s.CreateGroup([]string{a})
	d := s.DuplicateBlock(a)
	orig, _ := s.Block(a)
	dup, _ := s.Block(d)
	if d == a || dup.Position != (geometry.Point{X: 20, Y: 20}) || dup.GroupID != "" {
		t.Fatalf("unexpected duplicate %+v", dup)
	}
	if orig.GroupID != gid {
		t.Fatalf("original lost its group")
	}
	dup.Content["text"] = "changed"
	if again, _ := s.Block(d); again.Content["text"] != "Hello" {
		t.Fatalf("Block must return a copy")
	}

	s.SendToBack(d)
	s.BringToFront(a)
	orig, _ = s.Block(a)
	dup, _ = s.Block(d)
	if !(dup.ZIndex < orig.ZIndex) {
		t.Fatalf("stacking wrong: dup=%d orig=%d", dup.ZIndex, orig.ZIndex)
	}
}

func TestExportIsIsolated(t *testing.T) {
	s := newTestStore(t, Config{})
	id := s.AddBlock(textBlock(0, 0))
	snap := s.ExportToJSON()
	snap.Blocks[0].Content["text"] = "mutated"
	snap.CanvasSettings.Overlay.Color = "#ff0000"

	s.UpdateBlockContent(id, domain.Content{"text": "later"})
	if snap.Blocks[0].Content["text"] != "mutated" {
		t.Fatalf("later edits leaked into an earlier export")
	}
	b, _ := s.Block(id)
	if b.Content["text"] != "later" || s.Canvas().Overlay.Color != "#000000" {
		t.Fatalf("mutating an export changed the store")
	}
}

type wheelContent struct {
	Slices []string
	Odds   map[string]float64
}

func TestExportIsolatesStructContent(t *testing.T) {
	s := newTestStore(t, Config{})
	b := textBlock(0, 0)
	b.Content = domain.Content{
		"wheel": wheelContent{Slices: []string{"10%", "20%"}},
		"ptr":   &wheelContent{Slices: []string{"a"}, Odds: map[string]float64{"a": 1}},
	}
	id := s.AddBlock(b)
	exp := s.ExportToJSON()

	live, _ := s.Block(id)
	live.Content["wheel"].(wheelContent).Slices[0] = "changed"
	live.Content["ptr"].(*wheelContent).Slices[0] = "changed"
	live.Content["ptr"].(*wheelContent).Odds["a"] = 0

	again, _ := s.Block(id)
	if again.Content["wheel"].(wheelContent).Slices[0] != "10%" || again.Content["ptr"].(*wheelContent).Slices[0] != "a" {
		t.Fatalf("editing a returned block changed the document: %+v", again.Content)
	}
	if again.Content["ptr"].(*wheelContent).Odds["a"] != 1 {
		t.Fatalf("map inside a struct pointer was shared")
	}
	got := exp.Blocks[0].Content
	if got["wheel"].(wheelContent).Slices[0] != "10%" || got["ptr"].(*wheelContent).Slices[0] != "a" {
		t.Fatalf("earlier export shares memory with the document: %+v", got)
	}
}

func TestExportJSONShape(t *testing.T) {
	s := newTestStore(t, Config{})
	s.AddBlock(textBlock(0, 0))
	data, err := s.ExportJSON()
	if err != nil {
		t.Fatalf("ExportJSON: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["canvasSettings"]; !ok {
		t.Fatalf("missing canvasSettings key: %s", data)
	}
	if blocks, ok := raw["blocks"].([]any); !ok || len(blocks) != 1 {
		t.Fatalf("missing blocks: %s", data)
	}
}

func TestLoadTemplateResetsHistoryAndSelection(t *testing.T) {
	s := newTestStore(t, Config{})
	s.AddBlock(textBlock(0, 0))
	s.AddBlock(textBlock(0, 0))

	tpl := domain.Snapshot{CanvasSettings: domain.DefaultBanner(), Blocks: []domain.BlockInstance{textBlock(5, 5)}}
	var loaded int
	s.Subscribe(func(ev Event) {
		if ev.Kind == EventLoaded {
			loaded++
		}
	})
	s.LoadTemplate(tpl)
	if loaded != 1 {
		t.Fatalf("expected one load event")
	}
	if s.Canvas().Mode != domain.ModeBanner || s.Len() != 1 {
		t.Fatalf("template not applied: %+v", s.Canvas())
	}
	if s.SelectedBlockID() != "" || s.CanUndo() || s.HistoryLen() != 0 {
		t.Fatalf("load should clear selection and history")
	}
	if s.Blocks()[0].ID == "" {
		t.Fatalf("template block without id should get one")
	}
	tpl.Blocks[0].Content["text"] = "mutated"
	if s.Blocks()[0].Content["text"] != "Hello" {
		t.Fatalf("template must be copied on load")
	}
}

func TestImportJSONRoundTrip(t *testing.T) {
	src := newTestStore(t, Config{})
	src.AddBlock(textBlock(1, 2))
	data, err := src.ExportJSON()
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	dst := newTestStore(t, Config{})
	if err := dst.ImportJSON(data); err != nil {
		t.Fatalf("import: %v", err)
	}
	if dst.Len() != 1 || dst.Blocks()[0].Position != (geometry.Point{X: 1, Y: 2}) {
		t.Fatalf("unexpected import %+v", dst.Blocks())
	}
	if err := dst.ImportJSON([]byte("{")); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
