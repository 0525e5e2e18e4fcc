/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package layout

import (
	"sort"
)

// Op names a z-order operation.
type Op string

const (
	OpUp    Op = "up"
	OpDown  Op = "down"
	OpFront Op = "front"
	OpBack  Op = "back"
)

// ParseOp accepts the wire names of the z-order operations.
func ParseOp(s string) (Op, bool) {
	switch Op(s) {
	case OpUp, OpDown, OpFront, OpBack:
		return Op(s), true
	}
	return "", false
}

// Model is the ordered element collection of one editing session.
// It keeps insertion order; paint and hit-test order come from ZIndex alone.
// Model is not safe for concurrent use.
type Model struct {
	elems []Element
}

// NewModel copies the given elements into a fresh model.
func NewModel(elems []Element) *Model {
	m := &Model{elems: make([]Element, len(elems))}
	copy(m.elems, elems)
	return m
}

func (m *Model) Len() int { return len(m.elems) }

func (m *Model) index(id string) int {
	for i := range m.elems {
		if m.elems[i].ID == id {
			return i
		}
	}
	return -1
}

// NextZ is the zIndex a newly added element receives: the collection length,
// raised above the current maximum when deletions left larger indices behind.
func (m *Model) NextZ() int {
	z := len(m.elems)
	if hi, ok := m.maxZ(); ok && hi+1 > z {
		z = hi + 1
	}
	return z
}

// Add appends e. An element with an id already present replaces the old one.
func (m *Model) Add(e Element) {
	if i := m.index(e.ID); i >= 0 {
		m.elems[i] = e
		return
	}
	m.elems = append(m.elems, e)
}

// Remove deletes the element with the given id and reports whether it existed.
func (m *Model) Remove(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	m.elems = append(m.elems[:i], m.elems[i+1:]...)
	return true
}

func (m *Model) Get(id string) (Element, bool) {
	if i := m.index(id); i >= 0 {
		return m.elems[i], true
	}
	return Element{}, false
}

// Update merges p into the element with the given id. Unknown ids are ignored.
// A patch that fails validation or targets the wrong kind leaves the element unchanged.
func (m *Model) Update(id string, p Patch) error {
	i := m.index(id)
	if i < 0 || p == nil {
		return nil
	}
	if err := p.validate(); err != nil {
		return err
	}
	e := m.elems[i]
	if err := p.apply(&e); err != nil {
		return err
	}
	m.elems[i] = e
	return nil
}

// Elements returns a copy of the collection in insertion order.
func (m *Model) Elements() []Element {
	out := make([]Element, len(m.elems))
	copy(out, m.elems)
	return out
}

// Sorted returns a copy ordered by ascending ZIndex; ties keep insertion order.
func (m *Model) Sorted() []Element {
	out := m.Elements()
	sort.SliceStable(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (m *Model) maxZ() (int, bool) {
	if len(m.elems) == 0 {
		return 0, false
	}
	hi := m.elems[0].ZIndex
	for _, e := range m.elems[1:] {
		hi = max(hi, e.ZIndex)
	}
	return hi, true
}

func (m *Model) minZ() (int, bool) {
	if len(m.elems) == 0 {
		return 0, false
	}
	lo := m.elems[0].ZIndex
	for _, e := range m.elems[1:] {
		lo = min(lo, e.ZIndex)
	}
	return lo, true
}

// Reorder applies a z-order operation and reports whether any zIndex changed.
func (m *Model) Reorder(id string, op Op) bool {
	switch op {
	case OpUp:
		return m.swapNeighbor(id, +1)
	case OpDown:
		return m.swapNeighbor(id, -1)
	case OpFront:
		return m.BringToFront(id)
	case OpBack:
		return m.SendToBack(id)
	}
	return false
}

func (m *Model) MoveUp(id string) bool   { return m.swapNeighbor(id, +1) }
func (m *Model) MoveDown(id string) bool { return m.swapNeighbor(id, -1) }

// untie raises tied or out-of-order values along the sorted order until zIndex is strictly
// increasing. Elements that are already distinct keep their zIndex.
func (m *Model) untie() {
	sorted := m.Sorted()
	for i := 1; i < len(sorted); i++ {
		if prev := sorted[i-1].ZIndex; sorted[i].ZIndex <= prev {
			sorted[i].ZIndex = prev + 1
			m.elems[m.index(sorted[i].ID)].ZIndex = prev + 1
		}
	}
}

// swapNeighbor exchanges the zIndex of the target with its neighbor in ascending z order.
// Every other element keeps its zIndex unless the pair was tied; ties are resolved first so
// the swap always changes the paint order.
func (m *Model) swapNeighbor(id string, dir int) bool {
	sorted := m.Sorted()
	pos := -1
	for i := range sorted {
		if sorted[i].ID == id {
			pos = i
			break
		}
	}
	if pos < 0 {
		return false
	}
	n := pos + dir
	if n < 0 || n >= len(sorted) {
		return false
	}
	a, b := m.index(sorted[pos].ID), m.index(sorted[n].ID)
	if m.elems[a].ZIndex == m.elems[b].ZIndex {
		m.untie()
	}
	m.elems[a].ZIndex, m.elems[b].ZIndex = m.elems[b].ZIndex, m.elems[a].ZIndex
	return true
}

// BringToFront sets the target's zIndex one above the current maximum.
func (m *Model) BringToFront(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	hi, _ := m.maxZ()
	m.elems[i].ZIndex = hi + 1
	return true
}

// SendToBack sets the target's zIndex one below the current minimum.
func (m *Model) SendToBack(id string) bool {
	i := m.index(id)
	if i < 0 {
		return false
	}
	lo, _ := m.minZ()
	m.elems[i].ZIndex = lo - 1
	return true
}

// HitTest returns the topmost element whose unrotated box contains the percentage point.
func (m *Model) HitTest(x, y float64) (Element, bool) {
	sorted := m.Sorted()
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i].Box().Contains(x, y) {
			return sorted[i], true
		}
	}
	return Element{}, false
}
