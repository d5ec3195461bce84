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
	"fmt"
	"io"
	"log/slog"

	"m4o.io/pbf/v2/model"
)

// Stats counts the decisions made during a run.  Forced inclusions are
// counted separately from tag matches so diagnostics can tell them apart.
type Stats struct {
	RelationsKept   int64
	RelationsForced int64
	RelationsDenied int64
	WaysKept        int64
	WaysRewritten   int64
	NodesKept       int64
}

// Pipeline drives the three sequential passes over the backing dataset:
// relations, then ways, then nodes.  Passes are ordered dependencies; the
// way scan consumes the ID list produced by the relation scan, and the
// node scan consumes the list produced by the way scan.  Nothing runs
// concurrently.
type Pipeline struct {
	source  Source
	sink    Sink
	changes *Changes
	logger  *slog.Logger
}

// PipelineOption configures how we set up the pipeline.
type PipelineOption func(*Pipeline)

// WithChanges supplies the override configuration loaded from a change
// file.  The default is an empty configuration.
func WithChanges(changes *Changes) PipelineOption {
	return func(p *Pipeline) {
		if changes != nil {
			p.changes = changes
		}
	}
}

// WithLogger supplies the logger used for pass narration and per-entity
// decisions.  The default is slog.Default.
func WithLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline creates a pipeline reading from source and writing to sink.
func NewPipeline(source Source, sink Sink, opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		source:  source,
		sink:    sink,
		changes: NewChanges(),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Run executes the three passes and finalizes the sink.  Any stream or
// sink failure aborts the run; whatever the sink already flushed stays as
// is.  The returned Stats are valid even on error, up to the point of
// failure.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	var stats Stats

	var wayIDs, nodeIDs IDList

	p.logger.Info("Reading relations (1st pass through input file)...")

	if err := p.scanRelations(ctx, &stats, &wayIDs); err != nil {
		return stats, err
	}

	p.logger.Info("Preparing way ID list...", "collected", wayIDs.Len())
	wayTargets := wayIDs.Finalize()

	p.logger.Info("Reading ways (2nd pass through input file)...", "targets", len(wayTargets))

	if err := p.scanWays(ctx, &stats, wayTargets, &nodeIDs); err != nil {
		return stats, err
	}

	p.logger.Info("Preparing node ID list...", "collected", nodeIDs.Len())
	nodeTargets := nodeIDs.Finalize()

	p.logger.Info("Reading nodes (3rd pass through input file)...", "targets", len(nodeTargets))

	if err := p.scanNodes(ctx, &stats, nodeTargets); err != nil {
		return stats, err
	}

	if err := p.sink.Close(); err != nil {
		return stats, fmt.Errorf("finalizing output: %w", err)
	}

	p.logger.Info("All done.",
		"relations", stats.RelationsKept,
		"ways", stats.WaysKept,
		"nodes", stats.NodesKept)

	return stats, nil
}

// scanRelations selects root relations.  A denied relation is skipped
// before any other predicate, so its members never reach the way ID list.
func (p *Pipeline) scanRelations(ctx context.Context, stats *Stats, wayIDs *IDList) error {
	stream, err := p.source.Open(ctx, model.RELATION)
	if err != nil {
		return fmt.Errorf("opening relation scan: %w", err)
	}
	defer stream.Close()

	for {
		entity, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("reading relations: %w", err)
		}

		relation, ok := entity.(model.Relation)
		if !ok {
			return fmt.Errorf("unexpected %T in relation scan", entity)
		}

		if p.changes.Deny.Contains(relation.ID) {
			stats.RelationsDenied++
			p.logger.Debug("Rejected relation", "id", relation.ID)

			continue
		}

		forced := p.changes.Allow.Contains(relation.ID)
		boundary := relation.Tags["boundary"] == "administrative"

		if !forced && !boundary {
			continue
		}

		if forced && !boundary {
			stats.RelationsForced++
			p.logger.Debug("Added relation", "id", relation.ID, "forced", true)
		}

		if err := p.sink.Write(relation); err != nil {
			return fmt.Errorf("writing relation %d: %w", relation.ID, err)
		}

		CollectWayRefs(relation, wayIDs)
		stats.RelationsKept++
	}
}

// scanWays merge-joins the way stream against the finalized way ID list,
// rewriting tags on ways with override entries.
func (p *Pipeline) scanWays(ctx context.Context, stats *Stats, targets []model.ID, nodeIDs *IDList) error {
	stream, err := p.source.Open(ctx, model.WAY)
	if err != nil {
		return fmt.Errorf("opening way scan: %w", err)
	}
	defer stream.Close()

	matcher := NewMatcher(targets)

	for !matcher.Exhausted() {
		entity, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("reading ways: %w", err)
		}

		way, ok := entity.(model.Way)
		if !ok {
			return fmt.Errorf("unexpected %T in way scan", entity)
		}

		if !matcher.Match(way.ID) {
			continue
		}

		if overrides, ok := p.changes.Ways[way.ID]; ok {
			stats.WaysRewritten++
			p.logger.Debug("Rewrote way tags", "id", way.ID, "overrides", overrides.Len())

			if err := p.sink.Write(RewriteWay(way, overrides)); err != nil {
				return fmt.Errorf("writing way %d: %w", way.ID, err)
			}
		} else if err := p.sink.Write(way); err != nil {
			return fmt.Errorf("writing way %d: %w", way.ID, err)
		}

		CollectNodeRefs(way, nodeIDs)
		stats.WaysKept++
	}

	return nil
}

// scanNodes merge-joins the node stream against the finalized node ID
// list; matches pass through unchanged.
func (p *Pipeline) scanNodes(ctx context.Context, stats *Stats, targets []model.ID) error {
	stream, err := p.source.Open(ctx, model.NODE)
	if err != nil {
		return fmt.Errorf("opening node scan: %w", err)
	}
	defer stream.Close()

	matcher := NewMatcher(targets)

	for !matcher.Exhausted() {
		entity, err := stream.Next()
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return fmt.Errorf("reading nodes: %w", err)
		}

		node, ok := entity.(model.Node)
		if !ok {
			return fmt.Errorf("unexpected %T in node scan", entity)
		}

		if !matcher.Match(node.ID) {
			continue
		}

		if err := p.sink.Write(node); err != nil {
			return fmt.Errorf("writing node %d: %w", node.ID, err)
		}

		stats.NodesKept++
	}

	return nil
}
