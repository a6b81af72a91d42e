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
	"image/color"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"

	"popupstudio/internal/domain"
)

// WritePDF writes a one-page proof of snap. Canvas pixels map 1:1 to points.
func WritePDF(path string, snap domain.Snapshot, opt Options) error {
	opt = opt.withDefaults()
	c := snap.CanvasSettings
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas has no area: %gx%g", c.Width, c.Height)
	}
	size := gofpdf.SizeType{Wd: c.Width, Ht: c.Height}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{UnitStr: "pt", Size: size})
	pdf.SetTitle(pdfTitle(c), false)
	pdf.SetAuthor("popupstudio", false)
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPageFormat("", size)

	setFillColor(pdf, canvasBackground(c))
	pdf.Rect(0, 0, c.Width, c.Height, "F")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetLineWidth(0.5)
	for _, b := range domain.ZOrder(snap.Blocks) {
		x, y, w, h := b.Position.X, b.Position.Y, b.Size.Width, b.Size.Height
		setDrawColor(pdf, opt.Outline)
		style := "D"
		if bg, ok := styleColor(b.Style, "background"); ok && bg.A != 0 {
			setFillColor(pdf, bg)
			style = "FD"
		}
		pdf.Rect(x, y, w, h, style)
		if opt.NoLabels || h < 12 {
			continue
		}
		col := ink
		if fg, ok := styleColor(b.Style, "color"); ok && fg.A != 0 {
			col = fg
		}
		pdf.SetTextColor(int(col.R), int(col.G), int(col.B))
		text := label(b)
		for len(text) > 0 && pdf.GetStringWidth(text) > w-6 {
			text = fit(text, len([]rune(text))-1)
		}
		if text != "" {
			pdf.Text(x+3, y+11, text)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

func pdfTitle(c domain.CanvasSettings) string {
	if c.Name == "" {
		return fmt.Sprintf("%s preview", c.Mode)
	}
	return c.Name
}

func setDrawColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
}

func setFillColor(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}
