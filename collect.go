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

// CollectWayRefs appends the IDs of relation's way members to list.
// Members of other kinds are ignored; a way referenced by several
// relations appears several times until the list is finalized.
func CollectWayRefs(relation model.Relation, list *IDList) {
	for _, m := range relation.Members {
		if m.Type == model.WAY {
			list.Append(m.ID)
		}
	}
}

// CollectNodeRefs appends the IDs of every node referenced by way to
// list, duplicates included.
func CollectNodeRefs(way model.Way, list *IDList) {
	list.Append(way.NodeIDs...)
}
