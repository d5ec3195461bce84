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

// RewriteWay returns a copy of way with overrides applied on top of its
// existing tags.  Existing tags are carried over verbatim, then each
// override is inserted in ascending key order; an override that collides
// with an existing key replaces it.  The node reference list and metadata
// are never altered, only tags change.
func RewriteWay(way model.Way, overrides *TagOverrides) model.Way {
	if overrides == nil || overrides.Len() == 0 {
		return way
	}

	tags := make(map[string]string, len(way.Tags)+overrides.Len())
	for k, v := range way.Tags {
		tags[k] = v
	}

	overrides.Each(func(k, v string) {
		tags[k] = v
	})

	way.Tags = tags

	return way
}
