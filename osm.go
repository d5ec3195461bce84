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

// Package borderfilter extracts administrative boundary relations, and the
// ways and nodes they reference, from an OpenStreetMap PBF extract.  The
// extraction is a staged reachability computation over three forward scans
// of the same backing file: relations are selected first, the ways they
// reference second, and the nodes those ways reference third.  The interim
// ID lists are the only state carried between passes, so inputs far larger
// than memory can be filtered.
package borderfilter

import (
	"context"

	"m4o.io/pbf/v2/model"
)

// Source opens forward scans over a backing OSM dataset.  Each pass of the
// pipeline opens its own scan, restricted to a single entity kind; scans
// are never interleaved.  Entities must be produced in ascending ID order,
// which the PBF format guarantees for files written by standard tooling.
type Source interface {
	Open(ctx context.Context, kind model.EntityType) (Stream, error)
}

// Stream is a forward-only cursor over entities of a single kind.  Next
// returns io.EOF when the scan is complete.
type Stream interface {
	Next() (model.Entity, error)
	Close() error
}

// Sink persists entities in the order submitted.  Close finalizes the
// output; no writes may follow it.
type Sink interface {
	Write(entity model.Entity) error
	Close() error
}

// WorldBounds is the bounding box covering the full valid coordinate
// range.  An output containing no entities is still annotated with a box
// contained by WorldBounds.
func WorldBounds() model.BoundingBox {
	return model.BoundingBox{
		Left:   model.MinLon,
		Right:  model.MaxLon,
		Bottom: model.MinLat,
		Top:    model.MaxLat,
	}
}
