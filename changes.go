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
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"m4o.io/pbf/v2/model"
)

// Changes holds the override configuration loaded from a change file: a
// set of relation IDs to include regardless of tags, a set of relation
// IDs to exclude regardless of tags, and per-way tag overrides.  All
// three are built before the first pass starts and are read-only for the
// rest of the run.
//
// An ID present in both Allow and Deny is denied; the pipeline checks
// Deny first.
type Changes struct {
	Allow *IDSet
	Deny  *IDSet
	Ways  map[model.ID]*TagOverrides
}

// NewChanges creates an empty Changes, the configuration used when no
// change file is supplied.
func NewChanges() *Changes {
	return &Changes{
		Allow: NewIDSet(),
		Deny:  NewIDSet(),
		Ways:  make(map[model.ID]*TagOverrides),
	}
}

func (c *Changes) reset() {
	c.Allow.Clear()
	c.Deny.Clear()
	c.Ways = make(map[model.ID]*TagOverrides)
}

// Empty reports whether the configuration carries no allow, deny, or
// override entries.
func (c *Changes) Empty() bool {
	return c.Allow.Len() == 0 && c.Deny.Len() == 0 && len(c.Ways) == 0
}

// LoadChangeFile parses the change file at path into a Changes.  The file
// is a JSON document with two optional top-level arrays:
//
//	relations: objects with osm_id (integer) and optional whitelist /
//	  blacklist booleans feeding the allow and deny sets
//	ways: objects with osm_id (integer); every other string-valued field
//	  becomes a tag override for that way
//
// A section that is absent or not an array is skipped, as are array
// entries that are not objects or lack an osm_id.  Way override fields
// with non-string values are silently dropped.  Any other structural
// problem, an unreadable file, malformed JSON, or a wrongly typed osm_id,
// whitelist, or blacklist field, resets the result to empty and returns
// an error; callers are expected to warn and proceed with the empty
// configuration rather than abort.
func LoadChangeFile(path string) (*Changes, error) {
	changes := NewChanges()

	data, err := os.ReadFile(path)
	if err != nil {
		return changes, fmt.Errorf("reading change file: %w", err)
	}

	if !gjson.ValidBytes(data) {
		return changes, fmt.Errorf("change file %s is not valid JSON", path)
	}

	root := gjson.ParseBytes(data)

	if err := loadRelations(root.Get("relations"), changes); err != nil {
		changes.reset()

		return changes, fmt.Errorf("change file %s: %w", path, err)
	}

	if err := loadWays(root.Get("ways"), changes); err != nil {
		changes.reset()

		return changes, fmt.Errorf("change file %s: %w", path, err)
	}

	return changes, nil
}

func loadRelations(relations gjson.Result, changes *Changes) error {
	if !relations.IsArray() {
		return nil
	}

	var err error

	relations.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			return true
		}

		if !entry.Get("osm_id").Exists() {
			return true
		}

		var id model.ID

		id, err = entityID(entry)
		if err != nil {
			return false
		}

		var flagged bool

		if flagged, err = boolField(entry, "whitelist"); err != nil {
			return false
		} else if flagged {
			changes.Allow.Add(id)
		}

		if flagged, err = boolField(entry, "blacklist"); err != nil {
			return false
		} else if flagged {
			changes.Deny.Add(id)
		}

		return true
	})

	return err
}

func loadWays(ways gjson.Result, changes *Changes) error {
	if !ways.IsArray() {
		return nil
	}

	var err error

	ways.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() {
			return true
		}

		if !entry.Get("osm_id").Exists() {
			return true
		}

		var id model.ID

		id, err = entityID(entry)
		if err != nil {
			return false
		}

		overrides := NewTagOverrides()

		entry.ForEach(func(key, value gjson.Result) bool {
			if key.String() != "osm_id" && value.Type == gjson.String {
				overrides.Put(key.String(), value.String())
			}

			return true
		})

		changes.Ways[id] = overrides

		return true
	})

	return err
}

// entityID extracts the osm_id field.  A missing field yields (0, nil);
// callers that require the field check Exists themselves.  A present but
// non-numeric field is a structural error that fails the whole load.
func entityID(entry gjson.Result) (model.ID, error) {
	id := entry.Get("osm_id")
	if !id.Exists() {
		return 0, nil
	}

	if id.Type != gjson.Number {
		return 0, fmt.Errorf("osm_id %q is not a number", id.Raw)
	}

	return model.ID(id.Int()), nil
}

// boolField extracts an optional boolean field.  A present field of any
// other type is a structural error that fails the whole load.
func boolField(entry gjson.Result, name string) (bool, error) {
	v := entry.Get(name)
	if !v.Exists() {
		return false, nil
	}

	if v.Type != gjson.True && v.Type != gjson.False {
		return false, fmt.Errorf("%s %q is not a boolean", name, v.Raw)
	}

	return v.Bool(), nil
}
