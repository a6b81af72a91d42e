/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package registry is the catalog of block types: default content, style and size
// per type. Lookups never fail hard; unknown types resolve to an empty definition
// with FallbackSize so the catalog can grow independently of the editor.
package registry

import (
	"sort"
	"sync"

	"popupstudio/internal/domain"
	"popupstudio/internal/geometry"
)

// FallbackSize is used for block types the registry does not know.
var FallbackSize = geometry.Size{Width: 200, Height: 100}

// Category groups block types in the palette.
type Category string

const (
	CategoryBasic  Category = "basic"
	CategoryForm   Category = "form"
	CategoryPrize  Category = "prize"
	CategoryMedia  Category = "media"
	CategoryLayout Category = "layout"
)

// Definition describes one block type.
type Definition struct {
	Type           string
	Label          string
	Category       Category
	DefaultContent domain.Content
	DefaultStyle   domain.Style
	DefaultSize    geometry.Size
}

// Registry maps block types to their definitions. It is safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// New returns an empty registry.
func New() *Registry { return &Registry{defs: make(map[string]Definition)} }

// Register adds or replaces a definition.
func (r *Registry) Register(d Definition) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[d.Type] = d
}

// Lookup returns a deep copy of the definition for typ.
func (r *Registry) Lookup(typ string) (Definition, bool) {
	if r == nil {
		return Definition{}, false
	}
	r.mu.RLock()
	d, ok := r.defs[typ]
	r.mu.RUnlock()
	if !ok {
		return Definition{}, false
	}
	d.DefaultContent = d.DefaultContent.Clone()
	d.DefaultStyle = d.DefaultStyle.Clone()
	return d, true
}

// Resolve returns the definition for typ, or an empty one with FallbackSize.
func (r *Registry) Resolve(typ string) Definition {
	if d, ok := r.Lookup(typ); ok {
		return d
	}
	return Definition{
		Type:           typ,
		Label:          typ,
		DefaultContent: domain.Content{},
		DefaultStyle:   domain.Style{},
		DefaultSize:    FallbackSize,
	}
}

// Types lists the registered types sorted by category then type.
func (r *Registry) Types() []Definition {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		d.DefaultContent = d.DefaultContent.Clone()
		d.DefaultStyle = d.DefaultStyle.Clone()
		out = append(out, d)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// Overrides customize a new block on top of its type defaults.
// Content and Style are merged key by key; a non-nil Size replaces the default.
type Overrides struct {
	Content domain.Content
	Style   domain.Style
	Size    *geometry.Size
	// ZIndex, when non-nil, is used as given; nil lets the caller pick a stacking.
	ZIndex *int
}

// NewBlock builds a block of type typ at pos without an id. The editor assigns the
// id when the block is added.
func (r *Registry) NewBlock(typ string, pos geometry.Point, o Overrides) domain.BlockInstance {
	d := r.Resolve(typ)
	size := d.DefaultSize
	if o.Size != nil {
		size = *o.Size
	}
	z := 0
	if o.ZIndex != nil {
		z = *o.ZIndex
	}
	return domain.BlockInstance{
		Type:     typ,
		Content:  d.DefaultContent.Merge(o.Content),
		Style:    d.DefaultStyle.Merge(o.Style),
		Position: pos,
		Size:     size,
		ZIndex:   z,
	}
}
