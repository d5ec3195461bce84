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
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"m4o.io/pbf/v2/model"
)

// memSource serves entities from memory, one kind-filtered scan at a
// time.  Slices must be in ascending ID order, as the PBF format
// guarantees.
type memSource struct {
	relations []model.Relation
	ways      []model.Way
	nodes     []model.Node
}

func (s *memSource) Open(_ context.Context, kind model.EntityType) (Stream, error) {
	var entities []model.Entity

	switch kind {
	case model.RELATION:
		for _, r := range s.relations {
			entities = append(entities, r)
		}
	case model.WAY:
		for _, w := range s.ways {
			entities = append(entities, w)
		}
	case model.NODE:
		for _, n := range s.nodes {
			entities = append(entities, n)
		}
	}

	return &memStream{entities: entities}, nil
}

type memStream struct {
	entities []model.Entity
}

func (s *memStream) Next() (model.Entity, error) {
	if len(s.entities) == 0 {
		return nil, io.EOF
	}

	entity := s.entities[0]
	s.entities = s.entities[1:]

	return entity, nil
}

func (s *memStream) Close() error { return nil }

// memSink records written entities in order.
type memSink struct {
	entities []model.Entity
	closed   bool
	writeErr error
}

func (s *memSink) Write(entity model.Entity) error {
	if s.writeErr != nil {
		return s.writeErr
	}

	s.entities = append(s.entities, entity)

	return nil
}

func (s *memSink) Close() error {
	s.closed = true

	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boundaryRelation(id model.ID, wayIDs ...model.ID) model.Relation {
	members := make([]model.Member, len(wayIDs))
	for i, wid := range wayIDs {
		members[i] = model.Member{ID: wid, Type: model.WAY, Role: "outer"}
	}

	return model.Relation{
		ID:      id,
		Tags:    map[string]string{"boundary": "administrative", "admin_level": "2"},
		Members: members,
	}
}

func TestPipelineExtractsReachableSubgraph(t *testing.T) {
	source := &memSource{
		relations: []model.Relation{
			boundaryRelation(100, 200),
			{ID: 999, Tags: map[string]string{"type": "route"}, Members: []model.Member{{ID: 300, Type: model.WAY}}},
		},
		ways: []model.Way{
			{ID: 200, Tags: map[string]string{"boundary": "administrative"}, NodeIDs: []model.ID{1, 2, 3}},
			{ID: 300, NodeIDs: []model.ID{4, 5}},
		},
		nodes: []model.Node{
			{ID: 1, Lat: 1, Lon: 1}, {ID: 2, Lat: 2, Lon: 2}, {ID: 3, Lat: 3, Lon: 3},
			{ID: 4, Lat: 4, Lon: 4}, {ID: 5, Lat: 5, Lon: 5},
		},
	}
	sink := &memSink{}

	pipeline := NewPipeline(source, sink, WithLogger(quietLogger()))

	stats, err := pipeline.Run(context.Background())
	require.NoError(t, err)

	// relation 100, way 200, nodes 1, 2, 3 and nothing else, in pass order
	require.Len(t, sink.entities, 5)
	assert.Equal(t, source.relations[0], sink.entities[0])
	assert.Equal(t, source.ways[0], sink.entities[1])
	assert.Equal(t, source.nodes[0], sink.entities[2])
	assert.Equal(t, source.nodes[1], sink.entities[3])
	assert.Equal(t, source.nodes[2], sink.entities[4])

	assert.True(t, sink.closed)

	assert.Equal(t, int64(1), stats.RelationsKept)
	assert.Equal(t, int64(0), stats.RelationsForced)
	assert.Equal(t, int64(1), stats.WaysKept)
	assert.Equal(t, int64(0), stats.WaysRewritten)
	assert.Equal(t, int64(3), stats.NodesKept)
}

func TestPipelineUnchangedRelationRoundTrips(t *testing.T) {
	relation := model.Relation{
		ID:   100,
		Tags: map[string]string{"boundary": "administrative"},
	}
	source := &memSource{relations: []model.Relation{relation}}
	sink := &memSink{}

	_, err := NewPipeline(source, sink, WithLogger(quietLogger())).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.entities, 1)
	assert.Equal(t, relation, sink.entities[0])
}

func TestPipelineForcedInclusion(t *testing.T) {
	changes := NewChanges()
	changes.Allow.Add(101)

	source := &memSource{
		relations: []model.Relation{
			{ID: 101, Members: []model.Member{{ID: 200, Type: model.WAY}}},
		},
		ways: []model.Way{{ID: 200, NodeIDs: []model.ID{1}}},
		nodes: []model.Node{
			{ID: 1, Lat: 1, Lon: 1},
		},
	}
	sink := &memSink{}

	stats, err := NewPipeline(source, sink, WithChanges(changes), WithLogger(quietLogger())).
		Run(context.Background())
	require.NoError(t, err)

	// the untagged relation is emitted, and the forced inclusion is
	// distinguishable from a tag match in the stats
	require.Len(t, sink.entities, 3)
	assert.Equal(t, int64(1), stats.RelationsKept)
	assert.Equal(t, int64(1), stats.RelationsForced)
}

func TestPipelineDenyWinsOverAllow(t *testing.T) {
	changes := NewChanges()
	changes.Allow.Add(7)
	changes.Deny.Add(7)

	source := &memSource{
		relations: []model.Relation{
			boundaryRelation(7, 200),
		},
		ways:  []model.Way{{ID: 200, NodeIDs: []model.ID{1}}},
		nodes: []model.Node{{ID: 1}},
	}
	sink := &memSink{}

	stats, err := NewPipeline(source, sink, WithChanges(changes), WithLogger(quietLogger())).
		Run(context.Background())
	require.NoError(t, err)

	// relation 7 is rejected and its members never reach the way list
	assert.Empty(t, sink.entities)
	assert.Equal(t, int64(1), stats.RelationsDenied)
	assert.Equal(t, int64(0), stats.RelationsKept)
	assert.Equal(t, int64(0), stats.WaysKept)
	assert.Equal(t, int64(0), stats.NodesKept)
}

func TestPipelineAppliesWayOverrides(t *testing.T) {
	changes := NewChanges()

	overrides := NewTagOverrides()
	overrides.Put("name", "X")
	changes.Ways[200] = overrides

	source := &memSource{
		relations: []model.Relation{boundaryRelation(100, 200, 300)},
		ways: []model.Way{
			{ID: 200, Tags: map[string]string{"name": "Y", "highway": "Z"}, NodeIDs: []model.ID{1}},
			{ID: 300, Tags: map[string]string{"name": "kept"}, NodeIDs: []model.ID{2}},
		},
		nodes: []model.Node{{ID: 1}, {ID: 2}},
	}
	sink := &memSink{}

	stats, err := NewPipeline(source, sink, WithChanges(changes), WithLogger(quietLogger())).
		Run(context.Background())
	require.NoError(t, err)

	require.Len(t, sink.entities, 5)

	rewritten, ok := sink.entities[1].(model.Way)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"highway": "Z", "name": "X"}, rewritten.Tags)
	assert.Equal(t, []model.ID{1}, rewritten.NodeIDs)

	untouched, ok := sink.entities[2].(model.Way)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"name": "kept"}, untouched.Tags)

	assert.Equal(t, int64(2), stats.WaysKept)
	assert.Equal(t, int64(1), stats.WaysRewritten)
}

func TestPipelineSharedMemberDeduplicated(t *testing.T) {
	source := &memSource{
		relations: []model.Relation{
			boundaryRelation(100, 200),
			boundaryRelation(101, 200),
		},
		ways:  []model.Way{{ID: 200, NodeIDs: []model.ID{1, 2}}},
		nodes: []model.Node{{ID: 1}, {ID: 2}},
	}
	sink := &memSink{}

	stats, err := NewPipeline(source, sink, WithLogger(quietLogger())).Run(context.Background())
	require.NoError(t, err)

	// way 200 is referenced twice but emitted once
	assert.Equal(t, int64(1), stats.WaysKept)
	assert.Equal(t, int64(2), stats.NodesKept)
	assert.Len(t, sink.entities, 5)
}

func TestPipelineEmptyInput(t *testing.T) {
	sink := &memSink{}

	stats, err := NewPipeline(&memSource{}, sink, WithLogger(quietLogger())).Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, sink.entities)
	assert.True(t, sink.closed)
	assert.Equal(t, Stats{}, stats)
}

func TestPipelineSinkFailureAborts(t *testing.T) {
	source := &memSource{
		relations: []model.Relation{boundaryRelation(100, 200)},
	}
	sink := &memSink{writeErr: errors.New("disk full")}

	_, err := NewPipeline(source, sink, WithLogger(quietLogger())).Run(context.Background())

	assert.ErrorContains(t, err, "disk full")
	assert.False(t, sink.closed)
}
