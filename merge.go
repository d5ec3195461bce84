// Copyright 2025 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package borderfilter

import (
	"m4o.io/pbf/v2/model"
)

// Matcher is the merge-join cursor at the heart of passes two and three.
// It selects, from a stream of entities in ascending ID order, exactly
// those whose ID appears in a sorted, duplicate-free target list, in a
// single linear scan of both sequences.
//
// Both sortedness preconditions are assumed, not checked.  Feeding an
// unsorted stream or target list produces silently incomplete selection.
type Matcher struct {
	targets []model.ID
	next    int
}

// NewMatcher creates a Matcher over targets, which must be sorted
// ascending and free of duplicates, as produced by IDList.Finalize.  An
// empty target list matches nothing.
func NewMatcher(targets []model.ID) *Matcher {
	return &Matcher{targets: targets}
}

// Match reports whether id is in the target list.  IDs must be presented
// in ascending order; the cursor only moves forward.  Since target values
// are unique, a matched slot is consumed and never matched again.
func (m *Matcher) Match(id model.ID) bool {
	for m.next < len(m.targets) && m.targets[m.next] < id {
		m.next++
	}

	if m.next < len(m.targets) && m.targets[m.next] == id {
		m.next++

		return true
	}

	return false
}

// Exhausted reports whether every target slot has been passed.  Once true,
// no further stream entity can match and the scan may stop early.
func (m *Matcher) Exhausted() bool {
	return m.next >= len(m.targets)
}

// Remaining returns the number of target slots not yet passed.
func (m *Matcher) Remaining() int {
	return len(m.targets) - m.next
}
