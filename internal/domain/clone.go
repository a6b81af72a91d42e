/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "reflect"

// Snapshots taken for undo and export must never share maps or slices with the live
// document, otherwise a later edit would silently rewrite history. Every value that
// leaves or enters the editor goes through these routines.

// CloneValue deep-copies JSON-like values. Maps, slices, arrays, pointers and the
// exported fields of structs are copied recursively; unexported struct fields are
// copied by value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, bool, float64, float32, int, int64, int32, uint, uint64, uint32:
		return t
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = CloneValue(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	case Content:
		return t.Clone()
	case Style:
		return t.Clone()
	}
	return cloneReflect(reflect.ValueOf(v)).Interface()
}

func cloneReflect(v reflect.Value) reflect.Value {
	switch v.Kind() {
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), v.Type().Elem()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(cloneElem(v.Index(i), v.Type().Elem()))
		}
		return out
	case reflect.Pointer:
		if v.IsNil() {
			return v
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(cloneReflect(v.Elem()))
		return out
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		out.Set(v)
		for i := 0; i < v.NumField(); i++ {
			if f := out.Field(i); f.CanSet() {
				f.Set(cloneElem(v.Field(i), f.Type()))
			}
		}
		return out
	}
	return v
}

// cloneElem clones a container element and converts it back to the element type,
// which matters for interface-typed elements holding maps or slices.
func cloneElem(v reflect.Value, elemType reflect.Type) reflect.Value {
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(elemType)
		}
		return reflect.ValueOf(CloneValue(v.Interface()))
	}
	return cloneReflect(v).Convert(elemType)
}

// Clone returns a deep copy of the content bag.
func (c Content) Clone() Content {
	if c == nil {
		return nil
	}
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the style bag.
func (s Style) Clone() Style {
	if s == nil {
		return nil
	}
	out := make(Style, len(s))
	for k, v := range s {
		out[k] = CloneValue(v)
	}
	return out
}

// Merge returns a copy of s with the keys of patch layered on top.
func (s Style) Merge(patch Style) Style {
	out := s.Clone()
	if out == nil {
		out = make(Style, len(patch))
	}
	for k, v := range patch {
		out[k] = CloneValue(v)
	}
	return out
}

// Merge returns a copy of c with the keys of patch layered on top.
func (c Content) Merge(patch Content) Content {
	out := c.Clone()
	if out == nil {
		out = make(Content, len(patch))
	}
	for k, v := range patch {
		out[k] = CloneValue(v)
	}
	return out
}

// Clone returns a deep copy of the block.
func (b BlockInstance) Clone() BlockInstance {
	out := b
	out.Content = b.Content.Clone()
	out.Style = b.Style.Clone()
	return out
}

// CloneBlocks deep-copies a block list. A nil list stays nil.
func CloneBlocks(in []BlockInstance) []BlockInstance {
	if in == nil {
		return nil
	}
	out := make([]BlockInstance, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the canvas settings.
func (c CanvasSettings) Clone() CanvasSettings {
	out := c
	if c.Overlay != nil {
		ov := *c.Overlay
		out.Overlay = &ov
	}
	return out
}

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	return Snapshot{CanvasSettings: s.CanvasSettings.Clone(), Blocks: CloneBlocks(s.Blocks)}
}
