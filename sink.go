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

	pbf "m4o.io/pbf/v2"
	"m4o.io/pbf/v2/model"
)

// Generator is the writing-program string stamped into the output header.
const Generator = "borderfilter"

// FileSink writes accepted entities to an OSM PBF file, in submission
// order.  The header carries Generator as the writing program; the
// encoder annotates it with the bounding box of the written entities,
// which is always contained by WorldBounds.
type FileSink struct {
	f       *os.File
	encoder *pbf.Encoder
}

// NewFileSink creates the output file at path, truncating any previous
// content, and prepares the PBF encoder.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	encoder, err := pbf.NewEncoder(f, pbf.WithWritingProgram(Generator))
	if err != nil {
		f.Close()

		return nil, fmt.Errorf("creating encoder for %s: %w", path, err)
	}

	return &FileSink{f: f, encoder: encoder}, nil
}

// Write appends entity to the output.
func (s *FileSink) Write(entity model.Entity) error {
	return s.encoder.Encode(entity)
}

// Close flushes pending blobs, writes the header, and closes the file.
func (s *FileSink) Close() error {
	s.encoder.Close()

	return s.f.Close()
}
