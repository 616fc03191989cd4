/*
 * Copyright 2025 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package aggregator drives the statistic generators over a partitioned
dataset and assembles the finalized statistics.

Partitions execute embarrassingly parallel: every partition owns its own
accumulators, so no locking happens inside the generator layer. The only
synchronization point is the merge of partial accumulators, which relies
on every generator's merge being associative and commutative — partials
can be combined in any order and any fan-out. Records are routed into
named slices before accumulation; statistics come out per slice with the
synthetic all-records slice first.

# Failure Policy

A batch one generator cannot process is skipped for that generator only
and recorded as a soft warning: on the offending feature's statistics
when the generator can name it, on the affected slice otherwise.
Configuration
errors (unknown generator, malformed slice predicate, invalid threshold)
abort before any batch is touched.
*/
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rulego/datacheck/generators"
	"github.com/rulego/datacheck/logger"
	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/slicer"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// Aggregator executes statistics runs for one configuration. It is
// immutable after construction and safe for concurrent runs.
type Aggregator struct {
	cfg      *types.Config
	registry *generators.Registry
	slicers  []*slicer.Slicer
	log      logger.Logger
}

// New validates the configuration, resolves the generator registry and
// compiles the slice predicates. Any failure here is fatal: no statistics
// run starts on a broken setup.
func New(cfg *types.Config, log logger.Logger) (*Aggregator, error) {
	if cfg == nil {
		cfg = types.NewConfig()
	}
	if log == nil {
		log = logger.GetDefault()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	registry, err := generators.NewRegistry(cfg)
	if err != nil {
		return nil, err
	}
	slicers, err := slicer.NewSet(cfg.Slices)
	if err != nil {
		return nil, err
	}
	return &Aggregator{cfg: cfg, registry: registry, slicers: slicers, log: log}, nil
}

// sliceState carries one partition's partial accumulators for one slice.
type sliceState struct {
	numRecords    int64
	combinerAccs  []generators.Accumulator
	transformAccs []generators.Accumulator
	warnings      []string
	// featureWarnings holds soft failures attributable to a single
	// feature, keyed by feature path.
	featureWarnings map[string][]string
}

// warn records one soft failure, attributing it to a feature when the
// generator identified the offender.
func (st *sliceState) warn(generator string, batch *model.Batch, err error) {
	msg := fmt.Sprintf("generator %q skipped a batch of %d records: %v", generator, batch.NumRows(), err)
	var fe *generators.FeatureError
	if errors.As(err, &fe) {
		key := fe.Path.String()
		st.featureWarnings[key] = append(st.featureWarnings[key], msg)
		return
	}
	st.warnings = append(st.warnings, msg)
}

// partitionState is one partition's partial result across all slices.
type partitionState struct {
	slices map[string]*sliceState
}

func (a *Aggregator) newSliceState() *sliceState {
	st := &sliceState{featureWarnings: make(map[string][]string)}
	for _, g := range a.registry.Combiners {
		st.combinerAccs = append(st.combinerAccs, g.CreateAccumulator())
	}
	for _, g := range a.registry.Transforms {
		st.transformAccs = append(st.transformAccs, g.Combiner().CreateAccumulator())
	}
	return st
}

// sliceNames returns the deterministic slice report order: the synthetic
// all-records slice first, then the configured slices in declaration
// order. Slices that matched no record are omitted from the output.
func (a *Aggregator) sliceNames() []string {
	names := []string{statistics.AllRecordsSlice}
	for _, s := range a.slicers {
		names = append(names, s.Name())
	}
	return names
}

// Run computes statistics over pre-partitioned batches. Partitions are
// processed concurrently up to the configured parallelism and their
// partial accumulators tree-merged afterwards; the result does not depend
// on partition completion order.
func (a *Aggregator) Run(ctx context.Context, partitions [][]*model.Batch) (*statistics.DatasetFeatureStatisticsList, error) {
	runID := uuid.NewString()[:8]
	log := logger.WithPrefix("[run="+runID+"]", a.log)
	log.Info("statistics run started: %d partitions, %d combiners, %d transforms, %d slices",
		len(partitions), len(a.registry.Combiners), len(a.registry.Transforms), len(a.slicers))

	workers := a.cfg.Parallelism
	if workers < 1 {
		workers = 1
	}

	results := make([]*partitionState, len(partitions))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, partition := range partitions {
		i, partition := i, partition
		g.Go(func() error {
			state, err := a.runPartition(ctx, partition)
			if err != nil {
				return fmt.Errorf("partition %d: %w", i, err)
			}
			results[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list, err := a.assemble(results)
	if err != nil {
		return nil, err
	}
	log.Info("statistics run finished: %d records, %d slices",
		list.Default().NumRecords, len(list.Datasets))
	return list, nil
}

// runPartition feeds every batch of one partition through the slicers
// and into this partition's accumulators.
func (a *Aggregator) runPartition(ctx context.Context, batches []*model.Batch) (*partitionState, error) {
	state := &partitionState{slices: make(map[string]*sliceState)}
	for _, batch := range batches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a.addBatch(state, statistics.AllRecordsSlice, batch)
		for _, s := range a.slicers {
			sub := s.Apply(batch)
			if sub.NumRows() == 0 {
				continue
			}
			a.addBatch(state, s.Name(), sub)
		}
	}
	return state, nil
}

// addBatch absorbs one (possibly sliced) batch into one slice's
// accumulators, applying the soft failure policy per generator.
func (a *Aggregator) addBatch(state *partitionState, sliceName string, batch *model.Batch) {
	st, ok := state.slices[sliceName]
	if !ok {
		st = a.newSliceState()
		state.slices[sliceName] = st
	}
	st.numRecords += int64(batch.NumRows())

	for gi, gen := range a.registry.Combiners {
		acc, err := gen.AddInput(st.combinerAccs[gi], batch)
		if err != nil {
			st.warn(gen.Name(), batch, err)
			continue
		}
		st.combinerAccs[gi] = acc
	}

	for ti, gen := range a.registry.Transforms {
		derived, err := gen.Transform(batch)
		if err != nil {
			st.warn(gen.Name(), batch, err)
			continue
		}
		acc, err := gen.Combiner().AddInput(st.transformAccs[ti], derived)
		if err != nil {
			st.warn(gen.Name(), batch, err)
			continue
		}
		st.transformAccs[ti] = acc
	}
}

// assemble merges the per-partition partial states and finalizes one
// statistics record per populated slice.
func (a *Aggregator) assemble(results []*partitionState) (*statistics.DatasetFeatureStatisticsList, error) {
	list := &statistics.DatasetFeatureStatisticsList{}

	for _, name := range a.sliceNames() {
		var (
			numRecords int64
			warnings   []string
			populated  bool
		)
		featureWarnings := make(map[string][]string)
		combinerParts := make([][]generators.Accumulator, len(a.registry.Combiners))
		transformParts := make([][]generators.Accumulator, len(a.registry.Transforms))

		// 按分区索引顺序收集，保证确定性
		for _, part := range results {
			st, ok := part.slices[name]
			if !ok {
				continue
			}
			populated = true
			numRecords += st.numRecords
			warnings = append(warnings, st.warnings...)
			for path, ws := range st.featureWarnings {
				featureWarnings[path] = append(featureWarnings[path], ws...)
			}
			for gi := range a.registry.Combiners {
				combinerParts[gi] = append(combinerParts[gi], st.combinerAccs[gi])
			}
			for ti := range a.registry.Transforms {
				transformParts[ti] = append(transformParts[ti], st.transformAccs[ti])
			}
		}
		if !populated && name != statistics.AllRecordsSlice {
			continue
		}

		out := statistics.NewDatasetFeatureStatistics(name)
		for gi, gen := range a.registry.Combiners {
			if len(combinerParts[gi]) == 0 {
				continue
			}
			merged, err := gen.MergeAccumulators(combinerParts[gi])
			if err != nil {
				return nil, err
			}
			partial, err := gen.ExtractOutput(merged)
			if err != nil {
				return nil, err
			}
			if err := out.Absorb(partial); err != nil {
				return nil, err
			}
		}
		for ti, gen := range a.registry.Transforms {
			if len(transformParts[ti]) == 0 {
				continue
			}
			merged, err := gen.Combiner().MergeAccumulators(transformParts[ti])
			if err != nil {
				return nil, err
			}
			partial, err := gen.Combiner().ExtractOutput(merged)
			if err != nil {
				return nil, err
			}
			if err := out.Absorb(partial); err != nil {
				return nil, err
			}
		}

		// the driver's own record count wins even when the count
		// generator is disabled
		out.NumRecords = numRecords
		out.Warnings = append(out.Warnings, warnings...)

		// 可归因的警告挂到对应特征的统计上，特征不存在时退回切片级
		paths := make([]string, 0, len(featureWarnings))
		for path := range featureWarnings {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			if fs := out.Feature(model.NewPath(path)); fs != nil {
				fs.Warnings = append(fs.Warnings, featureWarnings[path]...)
			} else {
				out.Warnings = append(out.Warnings, featureWarnings[path]...)
			}
		}
		list.Datasets = append(list.Datasets, out)
	}
	return list, nil
}

// RunBatches is a convenience wrapper treating every batch as its own
// partition.
func (a *Aggregator) RunBatches(ctx context.Context, batches []*model.Batch) (*statistics.DatasetFeatureStatisticsList, error) {
	partitions := make([][]*model.Batch, 0, len(batches))
	for _, b := range batches {
		partitions = append(partitions, []*model.Batch{b})
	}
	return a.Run(ctx, partitions)
}
