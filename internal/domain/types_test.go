/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import (
	"encoding/json"
	"testing"

	"popupstudio/internal/geometry"
)

func TestSnapshotJSONFieldNames(t *testing.T) {
	s := Snapshot{
		CanvasSettings: DefaultCanvas(),
		Blocks: []BlockInstance{{
			ID:       "b1",
			Type:     "text",
			Content:  Content{"text": "Hello"},
			Style:    Style{"color": "#111"},
			Position: geometry.Point{X: 10, Y: 20},
			Size:     geometry.Size{Width: 200, Height: 50},
			ZIndex:   3,
			GroupID:  "g1",
		}},
	}
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := m["canvasSettings"]; !ok {
		t.Fatalf("missing canvasSettings key: %s", b)
	}
	blocks, ok := m["blocks"].([]any)
	if !ok || len(blocks) != 1 {
		t.Fatalf("unexpected blocks: %s", b)
	}
	blk := blocks[0].(map[string]any)
	for _, k := range []string{"id", "type", "content", "style", "position", "size", "zIndex", "groupId"} {
		if _, ok := blk[k]; !ok {
			t.Fatalf("block missing %q: %v", k, blk)
		}
	}
}

func TestCanvasApplyIsShallowAndCopies(t *testing.T) {
	c := DefaultCanvas()
	got := c.Apply(CanvasPatch{Width: Ptr(320.0), Background: Ptr("#000")})
	if got.Width != 320 || got.Background != "#000" {
		t.Fatalf("patch not applied: %+v", got)
	}
	if got.Height != c.Height || got.Name != c.Name {
		t.Fatalf("untouched fields changed: %+v", got)
	}
	got.Overlay.Opacity = 0.9
	if c.Overlay.Opacity == 0.9 {
		t.Fatalf("Apply must not alias the overlay")
	}
	cleared := c.Apply(CanvasPatch{ClearOverlay: true})
	if cleared.Overlay != nil {
		t.Fatalf("overlay should be cleared")
	}
}

func TestBlockApplyKeepsType(t *testing.T) {
	b := BlockInstance{ID: "x", Type: "image", Content: Content{"src": "a.png"}}
	got := b.Apply(BlockPatch{ZIndex: Ptr(7), Content: Content{"src": "b.png"}})
	if got.Type != "image" || got.ZIndex != 7 || got.Content["src"] != "b.png" {
		t.Fatalf("unexpected apply result: %+v", got)
	}
	if b.Content["src"] != "a.png" {
		t.Fatalf("original content changed")
	}
}

func TestDocumentIndex(t *testing.T) {
	d := Document{Blocks: []BlockInstance{{ID: "a"}, {ID: "b"}}}
	if d.Index("b") != 1 || d.Index("zzz") != -1 || d.Index("") != -1 {
		t.Fatalf("unexpected index results")
	}
}

func TestZOrderStable(t *testing.T) {
	in := []BlockInstance{{ID: "a", ZIndex: 2}, {ID: "b", ZIndex: 1}, {ID: "c", ZIndex: 2}, {ID: "d", ZIndex: 0}}
	got := ZOrder(in)
	order := ""
	for _, b := range got {
		order += b.ID
	}
	if order != "dbac" {
		t.Fatalf("unexpected order %q", order)
	}
	if in[0].ID != "a" {
		t.Fatalf("input reordered")
	}
}
