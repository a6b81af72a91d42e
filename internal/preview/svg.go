/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"bytes"
	"fmt"
	"html"
	"image/color"
	"io"

	"popupstudio/internal/domain"
)

// WriteSVG writes snap as a standalone SVG document. The viewBox is the canvas in
// pixels; opt.Scale sets the width/height attributes.
func WriteSVG(w io.Writer, snap domain.Snapshot, opt Options) error {
	opt = opt.withDefaults()
	c := snap.CanvasSettings

	var buf bytes.Buffer
	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(&buf, format, args...)
	}

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpx\" height=\"%gpx\" viewBox=\"0 0 %g %g\">\n",
		c.Width*opt.Scale, c.Height*opt.Scale, c.Width, c.Height)
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"%s\" rx=\"%g\"/>\n", c.Width, c.Height, svgColor(canvasBackground(c)), c.BorderRadius)

	outline := svgColor(opt.Outline)
	for _, b := range domain.ZOrder(snap.Blocks) {
		fill := "none"
		if bg, ok := styleColor(b.Style, "background"); ok && bg.A != 0 {
			fill = svgColor(bg)
		}
		wf("  <g data-id=\"%s\" data-type=\"%s\">\n", html.EscapeString(b.ID), html.EscapeString(b.Type))
		wf("    <rect x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"1\"/>\n",
			b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height, fill, outline)
		if !opt.NoLabels {
			col := ink
			if fg, ok := styleColor(b.Style, "color"); ok && fg.A != 0 {
				col = fg
			}
			wf("    <text x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"11\" fill=\"%s\">%s</text>\n",
				b.Position.X+4, b.Position.Y+14, svgColor(col), html.EscapeString(label(b)))
		}
		wf("  </g>\n")
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func svgColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
