/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import (
	"fmt"

	"thumbstudio/internal/layout"
)

// Lookup resolves an element kind by id.
type Lookup interface {
	Get(id string) (layout.Element, bool)
}

// Controller tracks the selected element and the text element in inline-edit mode.
// Editing implies selected, and only text elements can be edited.
type Controller struct {
	selected string
	editing  string
}

func (c *Controller) Selected() string { return c.selected }
func (c *Controller) Editing() string  { return c.editing }

// Select marks id as selected. Selecting a different element ends any edit.
func (c *Controller) Select(id string) {
	if id != c.selected {
		c.editing = ""
	}
	c.selected = id
}

// ClearAll handles a click on empty canvas.
func (c *Controller) ClearAll() {
	c.selected = ""
	c.editing = ""
}

// BeginEdit enters inline-edit mode for a text element and selects it.
// Non-text or unknown elements are only selected.
func (c *Controller) BeginEdit(e layout.Element, ok bool) bool {
	if !ok {
		return false
	}
	c.Select(e.ID)
	if e.Kind() != layout.KindText {
		return false
	}
	c.editing = e.ID
	return true
}

// CommitEdit leaves edit mode; selection is kept.
func (c *Controller) CommitEdit() { c.editing = "" }

// Forget clears the fields that reference a deleted element.
func (c *Controller) Forget(id string) {
	if id == "" {
		return
	}
	if c.selected == id {
		c.selected = ""
	}
	if c.editing == id {
		c.editing = ""
	}
}

// Check panics when the controller state contradicts the model. A breach is a controller bug.
func (c *Controller) Check(m Lookup) {
	if c.editing == "" {
		return
	}
	if c.editing != c.selected {
		panic(fmt.Sprintf("selection: editing %q but selected %q", c.editing, c.selected))
	}
	e, ok := m.Get(c.editing)
	if !ok {
		panic(fmt.Sprintf("selection: editing unknown element %q", c.editing))
	}
	if e.Kind() != layout.KindText {
		panic(fmt.Sprintf("selection: editing %s element %q", e.Kind(), c.editing))
	}
}
