/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package geometry holds the pure position and resize arithmetic used by the editor.
// Coordinates are canvas pixels with a top-left origin.
package geometry

import (
	"errors"
	"fmt"
	"strings"
)

// MinBlockSize is the smallest width or height a handle-driven resize may produce.
const MinBlockSize = 20

// ErrUnknownHandle is returned by ParseHandle for names outside the four corners.
var ErrUnknownHandle = errors.New("unknown resize handle")

// Point is a canvas position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Box couples a position with a size, e.g. the state of a block when a drag starts.
type Box struct {
	Pos  Point
	Size Size
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y float64
	W, H float64
}

func R(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// RectOf converts a box to a rect.
func RectOf(b Box) Rect { return Rect{X: b.Pos.X, Y: b.Pos.Y, W: b.Size.Width, H: b.Size.Height} }

func (r Rect) Min() Point { return Point{r.X, r.Y} }
func (r Rect) Max() Point { return Point{r.X + r.W, r.Y + r.H} }

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X <= r.X+r.W && p.Y <= r.Y+r.H
}

// Intersects reports whether the two rects overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.W && o.X < r.X+r.W && r.Y < o.Y+o.H && o.Y < r.Y+r.H
}

// Handle names one of the four corner resize affordances.
type Handle string

const (
	TopLeft     Handle = "top-left"
	TopRight    Handle = "top-right"
	BottomLeft  Handle = "bottom-left"
	BottomRight Handle = "bottom-right"
)

// Handles lists the corners in a stable order.
var Handles = []Handle{TopLeft, TopRight, BottomLeft, BottomRight}

// ParseHandle accepts the canonical names plus the short forms tl/tr/bl/br.
func ParseHandle(s string) (Handle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top-left", "tl", "nw":
		return TopLeft, nil
	case "top-right", "tr", "ne":
		return TopRight, nil
	case "bottom-left", "bl", "sw":
		return BottomLeft, nil
	case "bottom-right", "br", "se":
		return BottomRight, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownHandle, s)
}

// movesLeft reports whether dragging h moves the left edge.
func (h Handle) movesLeft() bool { return h == TopLeft || h == BottomLeft }

// movesTop reports whether dragging h moves the top edge.
func (h Handle) movesTop() bool { return h == TopLeft || h == TopRight }

// ClampPosition keeps a block of the given size inside the canvas.
// When the block is larger than the canvas on an axis, that axis clamps to 0.
func ClampPosition(pos Point, canvas Size, block Size) Point {
	return Point{
		X: clampAxis(pos.X, canvas.Width-block.Width),
		Y: clampAxis(pos.Y, canvas.Height-block.Height),
	}
}

func clampAxis(v, hi float64) float64 {
	if hi < 0 {
		hi = 0
	}
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}

// ResizeFromHandle computes the box produced by dragging handle h by the cumulative
// pointer delta since the drag started. The corner opposite to h stays fixed; once an
// axis hits MinBlockSize its position stops moving as well. Axes are independent.
func ResizeFromHandle(h Handle, start Box, delta Point) Box {
	out := start

	if h.movesLeft() {
		out.Size.Width = floor(start.Size.Width - delta.X)
		out.Pos.X = start.Pos.X + start.Size.Width - out.Size.Width
	} else {
		out.Size.Width = floor(start.Size.Width + delta.X)
	}

	if h.movesTop() {
		out.Size.Height = floor(start.Size.Height - delta.Y)
		out.Pos.Y = start.Pos.Y + start.Size.Height - out.Size.Height
	} else {
		out.Size.Height = floor(start.Size.Height + delta.Y)
	}
	return out
}

func floor(v float64) float64 {
	if v < MinBlockSize {
		return MinBlockSize
	}
	return v
}

// CenteredAt returns the top-left position that centers a block of size s on p.
func CenteredAt(p Point, s Size) Point {
	return Point{X: p.X - s.Width/2, Y: p.Y - s.Height/2}
}
