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
	"slices"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/hashset"

	"m4o.io/pbf/v2/model"
)

// IDSet is an unordered set of entity IDs.  It backs the allow and deny
// predicates applied to relations during the first pass.
type IDSet struct {
	inner *hashset.Set
}

// NewIDSet creates an IDSet holding ids.
func NewIDSet(ids ...model.ID) *IDSet {
	s := &IDSet{inner: hashset.New()}
	s.AddAll(ids...)

	return s
}

// Add inserts id into the set.
func (s *IDSet) Add(id model.ID) {
	s.inner.Add(id)
}

// AddAll inserts every id into the set.
func (s *IDSet) AddAll(ids ...model.ID) {
	for _, id := range ids {
		s.inner.Add(id)
	}
}

// Contains reports whether id is in the set.
func (s *IDSet) Contains(id model.ID) bool {
	return s.inner.Contains(id)
}

// Len returns the number of IDs in the set.
func (s *IDSet) Len() int {
	return s.inner.Size()
}

// Clear removes all IDs from the set.
func (s *IDSet) Clear() {
	s.inner.Clear()
}

// TagOverrides is an ordered key to value mapping of tag replacements for
// a single way.  Iteration order is ascending by key.
type TagOverrides struct {
	inner *treemap.Map
}

// NewTagOverrides creates an empty TagOverrides.
func NewTagOverrides() *TagOverrides {
	return &TagOverrides{inner: treemap.NewWithStringComparator()}
}

// Put inserts or replaces the override for key.
func (o *TagOverrides) Put(key, value string) {
	o.inner.Put(key, value)
}

// Get returns the override for key, if present.
func (o *TagOverrides) Get(key string) (string, bool) {
	v, ok := o.inner.Get(key)
	if !ok {
		return "", false
	}

	return v.(string), true
}

// Each calls f for every override, in ascending key order.
func (o *TagOverrides) Each(f func(key, value string)) {
	o.inner.Each(func(k, v interface{}) {
		f(k.(string), v.(string))
	})
}

// Len returns the number of overrides.
func (o *TagOverrides) Len() int {
	return o.inner.Size()
}

// IDList accumulates the entity IDs referenced during one pass.  It is
// write-only while its producing pass runs; Finalize hands ownership to
// the consuming pass as a sorted, duplicate-free merge-join target list.
type IDList struct {
	ids []model.ID
}

// Append adds ids to the list.  Duplicates are allowed; they are removed
// in bulk by Finalize.
func (l *IDList) Append(ids ...model.ID) {
	l.ids = append(l.ids, ids...)
}

// Len returns the number of IDs appended so far, duplicates included.
func (l *IDList) Len() int {
	return len(l.ids)
}

// Finalize sorts the list ascending, removes duplicates in place, and
// returns the result.  The list must not be appended to afterward.
func (l *IDList) Finalize() []model.ID {
	slices.Sort(l.ids)
	l.ids = slices.Compact(l.ids)

	return l.ids
}
