/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package preview

import (
	"strings"

	"golang.org/x/image/font"
)

// wrapLines breaks s on spaces and newlines into lines no wider than maxWidth
// pixels when measured with face. A word wider than maxWidth gets a line of its
// own, cut with fit.
func wrapLines(face font.Face, s string, maxWidth int) []string {
	if maxWidth <= 0 {
		return nil
	}
	d := &font.Drawer{Face: face}
	width := func(t string) int { return d.MeasureString(t).Ceil() }
	charW := width("M")

	var out []string
	for _, para := range strings.Split(s, "\n") {
		cur := ""
		for _, word := range strings.Fields(para) {
			if width(word) > maxWidth {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				out = append(out, fit(word, maxWidth/max(charW, 1)))
				continue
			}
			switch {
			case cur == "":
				cur = word
			case width(cur+" "+word) <= maxWidth:
				cur += " " + word
			default:
				out = append(out, cur)
				cur = word
			}
		}
		if cur != "" || len(out) == 0 {
			out = append(out, cur)
		}
	}
	return out
}
