/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package preview renders wireframe previews of a document: blocks as outlined
// boxes in stacking order, labelled with their type and text. Previews serve as
// template thumbnails and as proofs to share; they are not a faithful rendering.
package preview

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"popupstudio/internal/domain"
)

// Options controls preview output. Zero values pick defaults.
type Options struct {
	// Scale multiplies canvas pixels (PNG only); default 1.
	Scale float64
	// NoLabels suppresses the type/text label inside each block.
	NoLabels bool
	// Outline is the block border color; default a neutral gray.
	Outline color.RGBA
}

func (o Options) withDefaults() Options {
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.Outline == (color.RGBA{}) {
		o.Outline = color.RGBA{R: 107, G: 114, B: 128, A: 255}
	}
	return o
}

var (
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	ink   = color.RGBA{R: 17, G: 24, B: 39, A: 255}
)

// ParseColor understands #rgb, #rrggbb and "transparent". Anything else reports false.
func ParseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "transparent" {
		return color.RGBA{}, true
	}
	if !strings.HasPrefix(s, "#") {
		return color.RGBA{}, false
	}
	h := s[1:]
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, true
}

func styleColor(st domain.Style, key string) (color.RGBA, bool) {
	v, ok := st[key].(string)
	if !ok {
		return color.RGBA{}, false
	}
	return ParseColor(v)
}

func canvasBackground(c domain.CanvasSettings) color.RGBA {
	if col, ok := ParseColor(c.Background); ok && col.A != 0 {
		return col
	}
	return white
}

// label is the text drawn inside a block: its type, plus the first text-ish
// content value when there is one.
func label(b domain.BlockInstance) string {
	for _, k := range []string{"text", "label", "code", "prize"} {
		if s, ok := b.Content[k].(string); ok && s != "" {
			return fmt.Sprintf("%s: %s", b.Type, s)
		}
	}
	return b.Type
}

// fit trims s to at most n characters, marking the cut with "..".
func fit(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n <= 2 {
		return string(r[:n])
	}
	return string(r[:n-2]) + ".."
}
