/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// This file defines the in-memory document edited by the block editor: one canvas,
// an ordered list of placed blocks and the current selection. The JSON field names
// are the export shape consumed by persistence and template loading.

import (
	"sort"

	"popupstudio/internal/geometry"
)

// Mode selects how the canvas is presented.
type Mode string

const (
	ModePopup  Mode = "popup"
	ModeBanner Mode = "banner"
)

// Content is the block-specific data bag (text, image URL, wheel slices, ...).
// The engine stores and replaces it but never interprets it.
type Content map[string]any

// Style is the visual-style bag (colors, spacing, typography, flex properties).
type Style map[string]any

// BlockInstance is one placed element on the canvas.
type BlockInstance struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Content  Content        `json:"content"`
	Style    Style          `json:"style"`
	Position geometry.Point `json:"position"`
	Size     geometry.Size  `json:"size"`
	ZIndex   int            `json:"zIndex"`
	// GroupID is a non-owning tag; empty means ungrouped.
	GroupID string `json:"groupId,omitempty"`
}

// Box returns the block's position and size.
func (b BlockInstance) Box() geometry.Box { return geometry.Box{Pos: b.Position, Size: b.Size} }

// Rect returns the block's bounds.
func (b BlockInstance) Rect() geometry.Rect { return geometry.RectOf(b.Box()) }

// Overlay dims the page behind a popup.
type Overlay struct {
	Color        string  `json:"color"`
	Opacity      float64 `json:"opacity"`
	CloseOnClick bool    `json:"closeOnClick,omitempty"`
}

// Transition describes one entry or exit animation.
type Transition struct {
	Type       string `json:"type"` // fade, slide-up, slide-down, zoom, none
	DurationMs int    `json:"durationMs"`
	Easing     string `json:"easing,omitempty"`
}

// Animation holds the in/out transitions of the canvas.
type Animation struct {
	In  Transition `json:"in"`
	Out Transition `json:"out"`
}

// Trigger describes when the canvas is shown to a visitor.
type Trigger struct {
	Type          string `json:"type"` // on-load, exit-intent, scroll, timer, click
	DelaySeconds  int    `json:"delaySeconds,omitempty"`
	ScrollPercent int    `json:"scrollPercent,omitempty"`
	Selector      string `json:"selector,omitempty"`
	Frequency     string `json:"frequency,omitempty"` // always, once-per-session, once
}

// CanvasSettings describes the single canvas of a document.
type CanvasSettings struct {
	Name         string    `json:"name,omitempty"`
	Mode         Mode      `json:"mode"`
	Width        float64   `json:"width"`
	Height       float64   `json:"height"`
	Background   string    `json:"background"`
	Overlay      *Overlay  `json:"overlay,omitempty"`
	Animation    Animation `json:"animation"`
	Trigger      Trigger   `json:"trigger"`
	BorderRadius float64   `json:"borderRadius,omitempty"`
	Shadow       string    `json:"shadow,omitempty"`
	Border       string    `json:"border,omitempty"`
	FontFamily   string    `json:"fontFamily,omitempty"`
	// Placement is where a banner docks: top or bottom.
	Placement string `json:"placement,omitempty"`
}

// Bounds returns the canvas size used to clamp block positions.
func (c CanvasSettings) Bounds() geometry.Size {
	return geometry.Size{Width: c.Width, Height: c.Height}
}

// DefaultCanvas returns the settings of a fresh document.
func DefaultCanvas() CanvasSettings {
	return CanvasSettings{
		Name:       "Untitled popup",
		Mode:       ModePopup,
		Width:      450,
		Height:     600,
		Background: "#ffffff",
		Overlay:    &Overlay{Color: "#000000", Opacity: 0.5, CloseOnClick: true},
		Animation: Animation{
			In:  Transition{Type: "fade", DurationMs: 300, Easing: "ease-out"},
			Out: Transition{Type: "fade", DurationMs: 200, Easing: "ease-in"},
		},
		Trigger:      Trigger{Type: "on-load", DelaySeconds: 3, Frequency: "once-per-session"},
		BorderRadius: 12,
		Shadow:       "0 10px 40px rgba(0,0,0,0.25)",
		FontFamily:   "Inter, sans-serif",
	}
}

// DefaultBanner returns a full-width banner canvas.
func DefaultBanner() CanvasSettings {
	c := DefaultCanvas()
	c.Name = "Untitled banner"
	c.Mode = ModeBanner
	c.Width = 1200
	c.Height = 90
	c.Overlay = nil
	c.BorderRadius = 0
	c.Shadow = ""
	c.Placement = "top"
	c.Animation.In.Type = "slide-down"
	c.Animation.Out.Type = "slide-up"
	return c
}

// CanvasPatch is a partial canvas update; nil fields are left untouched.
type CanvasPatch struct {
	Name         *string
	Mode         *Mode
	Width        *float64
	Height       *float64
	Background   *string
	Overlay      *Overlay
	ClearOverlay bool
	Animation    *Animation
	Trigger      *Trigger
	BorderRadius *float64
	Shadow       *string
	Border       *string
	FontFamily   *string
	Placement    *string
}

// Apply returns c with the non-nil fields of p merged in.
func (c CanvasSettings) Apply(p CanvasPatch) CanvasSettings {
	out := c.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Mode != nil {
		out.Mode = *p.Mode
	}
	if p.Width != nil {
		out.Width = *p.Width
	}
	if p.Height != nil {
		out.Height = *p.Height
	}
	if p.Background != nil {
		out.Background = *p.Background
	}
	if p.ClearOverlay {
		out.Overlay = nil
	}
	if p.Overlay != nil {
		ov := *p.Overlay
		out.Overlay = &ov
	}
	if p.Animation != nil {
		out.Animation = *p.Animation
	}
	if p.Trigger != nil {
		out.Trigger = *p.Trigger
	}
	if p.BorderRadius != nil {
		out.BorderRadius = *p.BorderRadius
	}
	if p.Shadow != nil {
		out.Shadow = *p.Shadow
	}
	if p.Border != nil {
		out.Border = *p.Border
	}
	if p.FontFamily != nil {
		out.FontFamily = *p.FontFamily
	}
	if p.Placement != nil {
		out.Placement = *p.Placement
	}
	return out
}

// BlockPatch is a shallow partial block update. Content and Style, when non-nil,
// replace the block's bags; the block type cannot be patched.
type BlockPatch struct {
	Position *geometry.Point
	Size     *geometry.Size
	Content  Content
	Style    Style
	ZIndex   *int
	GroupID  *string
}

// Apply returns b with the patch merged in. Bags are cloned on the way in.
func (b BlockInstance) Apply(p BlockPatch) BlockInstance {
	out := b
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.Content != nil {
		out.Content = p.Content.Clone()
	}
	if p.Style != nil {
		out.Style = p.Style.Clone()
	}
	if p.ZIndex != nil {
		out.ZIndex = *p.ZIndex
	}
	if p.GroupID != nil {
		out.GroupID = *p.GroupID
	}
	return out
}

// Document is the live editor state. It is a plain container; the editor
// package owns every invariant.
type Document struct {
	Canvas          CanvasSettings
	Blocks          []BlockInstance
	SelectedBlockID string
}

// Index returns the position of the block with the given id, or -1.
func (d *Document) Index(id string) int {
	if id == "" {
		return -1
	}
	for i := range d.Blocks {
		if d.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Snapshot is the export shape {canvasSettings, blocks}. It is also what the
// history stores and what templates and saved files contain.
type Snapshot struct {
	CanvasSettings CanvasSettings  `json:"canvasSettings"`
	Blocks         []BlockInstance `json:"blocks"`
}

// Ptr returns a pointer to v, handy for building patches.
func Ptr[T any](v T) *T { return &v }

// ZOrder returns a copy of blocks sorted by ZIndex, keeping insertion order for ties.
func ZOrder(blocks []BlockInstance) []BlockInstance {
	out := CloneBlocks(blocks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}
