/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package registry

import (
	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
)

func sz(w, h float64) geometry.Size { return geometry.Size{Width: w, Height: h} }

// builtin is the catalog shipped with the editor.
func builtin() []Definition {
	text := domain.Style{"color": "#1f2937", "fontSize": 16.0, "fontWeight": "400", "textAlign": "center", "padding": 8.0}
	field := domain.Style{"borderColor": "#d1d5db", "borderRadius": 6.0, "padding": 10.0, "fontSize": 14.0, "background": "#ffffff"}
	return []Definition{
		{Type: "text", Label: "Text", Category: CategoryBasic, DefaultSize: sz(300, 60),
			DefaultContent: domain.Content{"text": "Add your text here"}, DefaultStyle: text},
		{Type: "heading", Label: "Heading", Category: CategoryBasic, DefaultSize: sz(350, 70),
			DefaultContent: domain.Content{"text": "Special offer!", "level": 1.0},
			DefaultStyle:   domain.Style{"color": "#111827", "fontSize": 32.0, "fontWeight": "700", "textAlign": "center"}},
		{Type: "image", Label: "Image", Category: CategoryMedia, DefaultSize: sz(250, 180),
			DefaultContent: domain.Content{"src": "", "alt": "", "fit": "cover"},
			DefaultStyle:   domain.Style{"borderRadius": 0.0}},
		{Type: "video", Label: "Video", Category: CategoryMedia, DefaultSize: sz(320, 180),
			DefaultContent: domain.Content{"url": "", "autoplay": false, "muted": true},
			DefaultStyle:   domain.Style{}},
		{Type: "button", Label: "Button", Category: CategoryBasic, DefaultSize: sz(200, 50),
			DefaultContent: domain.Content{"label": "Claim now", "action": "close", "url": ""},
			DefaultStyle:   domain.Style{"background": "#2563eb", "color": "#ffffff", "borderRadius": 8.0, "fontWeight": "600", "fontSize": 16.0}},
		{Type: "close-button", Label: "Close button", Category: CategoryBasic, DefaultSize: sz(32, 32),
			DefaultContent: domain.Content{"icon": "x"},
			DefaultStyle:   domain.Style{"color": "#6b7280", "background": "transparent"}},
		{Type: "input", Label: "Text field", Category: CategoryForm, DefaultSize: sz(300, 44),
			DefaultContent: domain.Content{"name": "name", "placeholder": "Your name", "required": false}, DefaultStyle: field},
		{Type: "email", Label: "Email field", Category: CategoryForm, DefaultSize: sz(300, 44),
			DefaultContent: domain.Content{"name": "email", "placeholder": "you@example.com", "required": true}, DefaultStyle: field},
		{Type: "phone", Label: "Phone field", Category: CategoryForm, DefaultSize: sz(300, 44),
			DefaultContent: domain.Content{"name": "phone", "placeholder": "+1 555 0100", "required": false}, DefaultStyle: field},
		{Type: "checkbox", Label: "Consent checkbox", Category: CategoryForm, DefaultSize: sz(300, 30),
			DefaultContent: domain.Content{"name": "consent", "label": "I agree to receive emails", "required": true},
			DefaultStyle:   domain.Style{"fontSize": 12.0, "color": "#4b5563"}},
		{Type: "form", Label: "Signup form", Category: CategoryForm, DefaultSize: sz(320, 160),
			DefaultContent: domain.Content{
				"fields":      []any{map[string]any{"name": "email", "type": "email", "required": true}},
				"submitLabel": "Subscribe",
				"successText": "Thanks for subscribing!",
				"redirectUrl": "",
			},
			DefaultStyle: domain.Style{"gap": 8.0, "flexDirection": "column"}},
		{Type: "countdown", Label: "Countdown timer", Category: CategoryPrize, DefaultSize: sz(300, 80),
			DefaultContent: domain.Content{"durationSeconds": 900.0, "endsAt": "", "format": "mm:ss", "expiredText": "Offer expired"},
			DefaultStyle:   domain.Style{"color": "#dc2626", "fontSize": 28.0, "fontWeight": "700"}},
		{Type: "spin-wheel", Label: "Spin to win", Category: CategoryPrize, DefaultSize: sz(300, 300),
			DefaultContent: domain.Content{
				"slices": []any{
					map[string]any{"label": "10% OFF", "color": "#f59e0b", "probability": 0.4},
					map[string]any{"label": "Free shipping", "color": "#10b981", "probability": 0.3},
					map[string]any{"label": "No luck", "color": "#6b7280", "probability": 0.2},
					map[string]any{"label": "20% OFF", "color": "#ef4444", "probability": 0.1},
				},
				"spinLabel": "Spin",
			},
			DefaultStyle: domain.Style{}},
		{Type: "scratch-card", Label: "Scratch card", Category: CategoryPrize, DefaultSize: sz(280, 160),
			DefaultContent: domain.Content{"prize": "15% OFF", "coverColor": "#9ca3af", "revealPercent": 60.0},
			DefaultStyle:   domain.Style{"borderRadius": 12.0}},
		{Type: "gift-box", Label: "Gift box", Category: CategoryPrize, DefaultSize: sz(200, 200),
			DefaultContent: domain.Content{"prize": "Mystery gift", "boxes": 3.0},
			DefaultStyle:   domain.Style{}},
		{Type: "coupon", Label: "Coupon code", Category: CategoryPrize, DefaultSize: sz(260, 56),
			DefaultContent: domain.Content{"code": "WELCOME10", "copyLabel": "Copy"},
			DefaultStyle:   domain.Style{"border": "2px dashed #2563eb", "fontSize": 20.0, "fontWeight": "700"}},
		{Type: "progress-bar", Label: "Progress bar", Category: CategoryPrize, DefaultSize: sz(300, 24),
			DefaultContent: domain.Content{"value": 60.0, "label": "Almost there"},
			DefaultStyle:   domain.Style{"background": "#e5e7eb", "barColor": "#22c55e", "borderRadius": 12.0}},
		{Type: "social-links", Label: "Social links", Category: CategoryBasic, DefaultSize: sz(220, 40),
			DefaultContent: domain.Content{"links": []any{
				map[string]any{"network": "instagram", "url": ""},
				map[string]any{"network": "facebook", "url": ""},
			}},
			DefaultStyle: domain.Style{"gap": 12.0, "justifyContent": "center"}},
		{Type: "divider", Label: "Divider", Category: CategoryLayout, DefaultSize: sz(300, 20),
			DefaultContent: domain.Content{}, DefaultStyle: domain.Style{"color": "#e5e7eb", "thickness": 1.0}},
		{Type: "spacer", Label: "Spacer", Category: CategoryLayout, DefaultSize: sz(300, 40),
			DefaultContent: domain.Content{}, DefaultStyle: domain.Style{}},
	}
}

// Default returns a registry loaded with the built-in catalog.
func Default() *Registry {
	r := New()
	for _, d := range builtin() {
		r.Register(d)
	}
	return r
}
