/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

// Groups are a flat tag on blocks. A block belongs to at most one group, and
// dissolving a group only clears the tag. Tag changes and group moves are not
// recorded in history on their own; they are captured by the next snapshot.

// CreateGroup tags every listed block that exists with a new group id and returns
// it. Blocks already in another group are moved into the new one. It returns ""
// when none of the ids exist.
func (s *Store) CreateGroup(ids []string) string {
	var members []int
	for _, id := range ids {
		if i := s.doc.Index(id); i >= 0 {
			members = append(members, i)
		}
	}
	if len(members) == 0 {
		return ""
	}
	gid := s.freshID()
	for _, i := range members {
		s.doc.Blocks[i].GroupID = gid
	}
	s.emit(Event{Kind: EventGroup, GroupID: gid})
	return gid
}

// AddToGroup tags a single block with groupID.
func (s *Store) AddToGroup(id, groupID string) {
	i := s.doc.Index(id)
	if i < 0 || groupID == "" {
		return
	}
	s.doc.Blocks[i].GroupID = groupID
	s.emit(Event{Kind: EventGroup, BlockID: id, GroupID: groupID})
}

// RemoveFromGroup clears the block's group tag.
func (s *Store) RemoveFromGroup(id string) {
	i := s.doc.Index(id)
	if i < 0 || s.doc.Blocks[i].GroupID == "" {
		return
	}
	gid := s.doc.Blocks[i].GroupID
	s.doc.Blocks[i].GroupID = ""
	s.emit(Event{Kind: EventGroup, BlockID: id, GroupID: gid})
}

// Ungroup clears the tag on every member of groupID.
func (s *Store) Ungroup(groupID string) {
	if groupID == "" {
		return
	}
	changed := false
	for i := range s.doc.Blocks {
		if s.doc.Blocks[i].GroupID == groupID {
			s.doc.Blocks[i].GroupID = ""
			changed = true
		}
	}
	if changed {
		s.emit(Event{Kind: EventGroup, GroupID: groupID})
	}
}

// GroupMembers returns the ids of the blocks tagged with groupID in document order.
func (s *Store) GroupMembers(groupID string) []string {
	if groupID == "" {
		return nil
	}
	var out []string
	for _, b := range s.doc.Blocks {
		if b.GroupID == groupID {
			out = append(out, b.ID)
		}
	}
	return out
}

// MoveGroup offsets every member of groupID by (dx, dy). Like MoveBlock it does not
// record history.
func (s *Store) MoveGroup(groupID string, dx, dy float64) {
	if groupID == "" {
		return
	}
	moved := false
	for i := range s.doc.Blocks {
		if s.doc.Blocks[i].GroupID == groupID {
			s.doc.Blocks[i].Position.X += dx
			s.doc.Blocks[i].Position.Y += dy
			moved = true
		}
	}
	if moved {
		s.emit(Event{Kind: EventBlockMoved, GroupID: groupID})
	}
}
