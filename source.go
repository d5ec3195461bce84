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
	"context"
	"fmt"
	"io"
	"os"

	pbf "m4o.io/pbf/v2"
	"m4o.io/pbf/v2/model"
)

// FileSource opens independent forward scans over a single OSM PBF file,
// one per pass.  Scans decode the whole file but surface only entities of
// the requested kind.
type FileSource struct {
	// Path locates the backing PBF file.
	Path string

	// WrapReader, when set, wraps each pass's file before decoding.  The
	// CLI uses it to attach a progress bar; the wrapper is closed with
	// the scan.
	WrapReader func(f *os.File) (io.ReadCloser, error)
}

// Open starts a new scan of the backing file restricted to kind.
func (s *FileSource) Open(ctx context.Context, kind model.EntityType) (Stream, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, err
	}

	var rdr io.ReadCloser = f

	if s.WrapReader != nil {
		rdr, err = s.WrapReader(f)
		if err != nil {
			f.Close()

			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(ctx)

	decoder, err := pbf.NewDecoder(ctx, rdr)
	if err != nil {
		cancel()
		rdr.Close()

		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}

	return &pbfStream{
		rdr:     rdr,
		decoder: decoder,
		cancel:  cancel,
		kind:    kind,
	}, nil
}

// pbfStream drains decoder batches and filters them down to one entity
// kind.  The decoder produces entities in file order, which for standard
// extracts is ascending by ID within each kind.
type pbfStream struct {
	rdr     io.ReadCloser
	decoder *pbf.Decoder
	cancel  context.CancelFunc
	kind    model.EntityType

	batch []model.Entity
}

func (s *pbfStream) Next() (model.Entity, error) {
	for {
		for len(s.batch) > 0 {
			entity := s.batch[0]
			s.batch = s.batch[1:]

			if entityKind(entity) == s.kind {
				return entity, nil
			}
		}

		batch, err := s.decoder.Decode()
		if err != nil {
			return nil, err
		}

		s.batch = batch
	}
}

func (s *pbfStream) Close() error {
	s.cancel()

	return s.rdr.Close()
}

// entityKind maps an entity to its EntityType.
func entityKind(entity model.Entity) model.EntityType {
	switch entity.(type) {
	case model.Node:
		return model.NODE
	case model.Way:
		return model.WAY
	case model.Relation:
		return model.RELATION
	default:
		panic(fmt.Sprintf("unrecognized entity type %T", entity))
	}
}
