/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package templates ships the starter documents offered when a new popup or banner
// is created. Each template is built through an editor.Store, so it goes through
// the same placement rules as a user's edits.
package templates

import (
	"errors"
	"fmt"
	"sort"

	"popupstudio/internal/domain"
	"popupstudio/internal/editor"
	"popupstudio/internal/geometry"
	applog "popupstudio/internal/log"
	"popupstudio/internal/registry"
)

// ErrUnknown is returned by Get for a name that is not built in.
var ErrUnknown = errors.New("unknown template")

// Info describes a built-in template.
type Info struct {
	Name        string
	Description string
	Mode        domain.Mode
}

type template struct {
	Info
	canvas func() domain.CanvasSettings
	build  func(s *editor.Store)
}

func at(x, y float64) geometry.Point { return geometry.Point{X: x, Y: y} }

var builtins = []template{
	{
		Info:   Info{Name: "blank-popup", Description: "Empty popup canvas", Mode: domain.ModePopup},
		canvas: domain.DefaultCanvas,
		build:  func(*editor.Store) {},
	},
	{
		Info:   Info{Name: "blank-banner", Description: "Empty top banner", Mode: domain.ModeBanner},
		canvas: domain.DefaultBanner,
		build:  func(*editor.Store) {},
	},
	{
		Info: Info{Name: "spin-to-win", Description: "Prize wheel with email capture", Mode: domain.ModePopup},
		canvas: func() domain.CanvasSettings {
			c := domain.DefaultCanvas()
			c.Name = "Spin to win"
			c.Trigger = domain.Trigger{Type: "exit-intent", Frequency: "once"}
			return c
		},
		build: func(s *editor.Store) {
			s.PlaceBlock("close-button", at(425, 25), registry.Overrides{})
			s.PlaceBlock("heading", at(225, 60), registry.Overrides{Content: domain.Content{"text": "Spin to win!"}})
			s.PlaceBlock("spin-wheel", at(225, 255), registry.Overrides{})
			s.PlaceBlock("email", at(225, 450), registry.Overrides{})
			s.PlaceBlock("button", at(225, 520), registry.Overrides{Content: domain.Content{"label": "Spin now", "action": "spin"}})
		},
	},
	{
		Info: Info{Name: "newsletter-banner", Description: "Slim banner with signup field", Mode: domain.ModeBanner},
		canvas: func() domain.CanvasSettings {
			c := domain.DefaultBanner()
			c.Name = "Newsletter"
			c.Background = "#111827"
			return c
		},
		build: func(s *editor.Store) {
			s.PlaceBlock("text", at(250, 45), registry.Overrides{
				Content: domain.Content{"text": "Get 10% off your first order"},
				Style:   domain.Style{"color": "#ffffff", "textAlign": "left"},
			})
			s.PlaceBlock("email", at(650, 45), registry.Overrides{})
			s.PlaceBlock("button", at(920, 45), registry.Overrides{
				Content: domain.Content{"label": "Subscribe", "action": "submit"},
				Size:    &geometry.Size{Width: 160, Height: 44},
			})
			s.PlaceBlock("close-button", at(1170, 45), registry.Overrides{Style: domain.Style{"color": "#9ca3af"}})
		},
	},
	{
		Info: Info{Name: "countdown-sale", Description: "Flash sale with timer and coupon", Mode: domain.ModePopup},
		canvas: func() domain.CanvasSettings {
			c := domain.DefaultCanvas()
			c.Name = "Flash sale"
			c.Height = 520
			c.Trigger = domain.Trigger{Type: "timer", DelaySeconds: 5, Frequency: "once-per-session"}
			return c
		},
		build: func(s *editor.Store) {
			s.PlaceBlock("close-button", at(425, 25), registry.Overrides{})
			s.PlaceBlock("heading", at(225, 70), registry.Overrides{Content: domain.Content{"text": "Flash sale"}})
			s.PlaceBlock("text", at(225, 140), registry.Overrides{Content: domain.Content{"text": "Everything 25% off until the timer runs out."}})
			s.PlaceBlock("countdown", at(225, 230), registry.Overrides{})
			s.PlaceBlock("coupon", at(225, 320), registry.Overrides{Content: domain.Content{"code": "FLASH25"}})
			s.PlaceBlock("button", at(225, 420), registry.Overrides{Content: domain.Content{"label": "Shop now", "action": "link"}})
		},
	},
}

func find(name string) (template, bool) {
	for _, t := range builtins {
		if t.Name == name {
			return t, true
		}
	}
	return template{}, false
}

// Names returns the built-in template names in sorted order.
func Names() []string {
	out := make([]string, 0, len(builtins))
	for _, t := range builtins {
		out = append(out, t.Name)
	}
	sort.Strings(out)
	return out
}

// List describes every built-in template, sorted by name.
func List() []Info {
	out := make([]Info, 0, len(builtins))
	for _, t := range builtins {
		out = append(out, t.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Get builds the named template against the default block registry.
func Get(name string) (domain.Snapshot, error) {
	return GetWith(name, registry.Default())
}

// GetWith builds the named template with block defaults taken from reg.
func GetWith(name string, reg *registry.Registry) (domain.Snapshot, error) {
	t, ok := find(name)
	if !ok {
		return domain.Snapshot{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	n := 0
	s := editor.New(editor.Config{
		Canvas:   t.canvas(),
		Registry: reg,
		NewID: func() string {
			n++
			return fmt.Sprintf("%s-%d", t.Name, n)
		},
		Logger: applog.Nop(),
	})
	t.build(s)
	return s.ExportToJSON(), nil
}
