/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"popupstudio/internal/domain"
)

// RenderPNG rasterizes snap at opt.Scale pixels per canvas pixel.
func RenderPNG(snap domain.Snapshot, opt Options) *image.RGBA {
	opt = opt.withDefaults()
	c := snap.CanvasSettings
	px := func(v float64) int { return int(math.Round(v * opt.Scale)) }

	w, h := px(c.Width), px(c.Height)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: canvasBackground(c)}, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	for _, b := range domain.ZOrder(snap.Blocks) {
		x0, y0 := px(b.Position.X), px(b.Position.Y)
		x1, y1 := x0+px(b.Size.Width)-1, y0+px(b.Size.Height)-1
		if bg, ok := styleColor(b.Style, "background"); ok && bg.A != 0 {
			fillRect(img, x0, y0, x1, y1, bg)
		}
		strokeRect(img, x0, y0, x1, y1, opt.Outline)
		if opt.NoLabels {
			continue
		}
		col := ink
		if fg, ok := styleColor(b.Style, "color"); ok && fg.A != 0 {
			col = fg
		}
		if x1-x0-6 < face.Advance || y1-y0 < face.Height {
			continue
		}
		d := font.Drawer{Dst: img, Src: image.NewUniform(col), Face: face}
		baseline := y0 + face.Ascent + 3
		for _, line := range wrapLines(face, label(b), x1-x0-6) {
			if baseline+face.Descent > y1 {
				break
			}
			d.Dot = fixed.P(x0+4, baseline)
			d.DrawString(line)
			baseline += face.Height
		}
	}
	return img
}

// WritePNG renders snap and writes it to path, creating the directory if needed.
func WritePNG(path string, snap domain.Snapshot, opt Options) error {
	img := RenderPNG(snap, opt)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create png: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close png: %w", err)
	}
	return nil
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
// Pixels outside the image are ignored by SetRGBA.
func strokeRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	for x := x0; x <= x1; x++ {
		img.SetRGBA(x, y0, col)
		img.SetRGBA(x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		img.SetRGBA(x0, y, col)
		img.SetRGBA(x1, y, col)
	}
}

func fillRect(img *image.RGBA, x0, y0, x1, y1 int, col color.RGBA) {
	r := image.Rect(x0, y0, x1+1, y1+1).Intersect(img.Bounds())
	draw.Draw(img, r, &image.Uniform{C: col}, image.Point{}, draw.Over)
}
