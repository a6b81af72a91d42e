/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geometry

// Smart guides snap a dragged block to the edges and centers of nearby blocks or the
// canvas. They are a read-only aid: the editor reports the snapped position and the
// caller decides whether to move there.

import "math"

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance in pixels at which snapping occurs.
	Threshold float64
	Edges     bool
	Centers   bool
}

// Anchor is a static reference rect. Higher Weight wins ties.
type Anchor struct {
	Rect   Rect
	Weight float64
}

// GuideLine describes a visual guide produced by a snap.
// Orientation is "vertical" or "horizontal"; Kind is "edge" or "center".
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        Point
	To          Point
}

// CanvasAnchor returns the canvas bounds as an anchor preferred over block anchors.
func CanvasAnchor(canvas Size) Anchor {
	return Anchor{Rect: R(0, 0, canvas.Width, canvas.Height), Weight: 2}
}

type axisBest struct {
	delta float64
	dist  float64
	score float64
	guide GuideLine
}

func (b *axisBest) consider(delta, threshold, weight float64, g GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if score < b.score {
		b.delta, b.dist, b.score, b.guide = delta, dist, score, g
	}
}

// ComputeGuides snaps moving against anchors, independently in X and Y, and returns
// the adjusted rect together with the guides to draw.
func ComputeGuides(moving Rect, anchors []Anchor, opts SnapOptions) (Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	bx := axisBest{score: math.Inf(1)}
	by := axisBest{score: math.Inf(1)}

	mL, mR, mCX := moving.X, moving.X+moving.W, moving.X+moving.W/2
	mT, mB, mCY := moving.Y, moving.Y+moving.H, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aCX := a.Rect.X, a.Rect.X+a.Rect.W, a.Rect.X+a.Rect.W/2
		aT, aB, aCY := a.Rect.Y, a.Rect.Y+a.Rect.H, a.Rect.Y+a.Rect.H/2
		if opts.Edges {
			for _, pair := range [][2]float64{{mL, aL}, {mR, aR}, {mL, aR}, {mR, aL}} {
				bx.consider(pair[0]-pair[1], opts.Threshold, a.Weight, vertical(pair[1], moving, a.Rect, "edge"))
			}
			for _, pair := range [][2]float64{{mT, aT}, {mB, aB}, {mT, aB}, {mB, aT}} {
				by.consider(pair[0]-pair[1], opts.Threshold, a.Weight, horizontal(pair[1], moving, a.Rect, "edge"))
			}
		}
		if opts.Centers {
			bx.consider(mCX-aCX, opts.Threshold, a.Weight, vertical(aCX, moving, a.Rect, "center"))
			by.consider(mCY-aCY, opts.Threshold, a.Weight, horizontal(aCY, moving, a.Rect, "center"))
		}
	}

	var guides []GuideLine
	snapped := moving
	if !math.IsInf(bx.score, 1) {
		snapped.X = Round(moving.X-bx.delta, 3)
		guides = append(guides, bx.guide)
	}
	if !math.IsInf(by.score, 1) {
		snapped.Y = Round(moving.Y-by.delta, 3)
		guides = append(guides, by.guide)
	}
	return snapped, guides
}

func vertical(x float64, a, b Rect, kind string) GuideLine {
	x = Round(x, 3)
	return GuideLine{
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        Point{x, math.Min(a.Y, b.Y)},
		To:          Point{x, math.Max(a.Y+a.H, b.Y+b.H)},
	}
}

func horizontal(y float64, a, b Rect, kind string) GuideLine {
	y = Round(y, 3)
	return GuideLine{
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        Point{math.Min(a.X, b.X), y},
		To:          Point{math.Max(a.X+a.W, b.X+b.W), y},
	}
}

// Round rounds v to n decimal places.
func Round(v float64, places int) float64 {
	if places < 0 {
		return v
	}
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
