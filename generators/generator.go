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
Package generators implements the statistic generator catalog of the
DataCheck engine.

Every statistic kind is one generator behind a common combiner contract:
create an empty accumulator, feed it record batches, merge accumulators
pairwise in any order, and extract the finalized statistics. Merge is
total, associative and commutative for every generator, which is what
makes arbitrary-fanout parallel execution over dataset partitions safe.

# Generator Catalog

• count - presence, missing counts, per-record value counts, dominant type
• numeric - mean, standard deviation, min/max, zeros, quantiles
• string - value lengths and distinct-value estimate
• topk - categorical value frequencies (top-k)
• correlation - cross-feature Pearson correlation (transform shaped)

Accumulators of different generators refuse to merge: a kind-mismatched
merge is a programming contract violation and always surfaces as an error.
*/
package generators

import (
	"fmt"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// Accumulator is the opaque partial state of one generator over one
// dataset partition. States are owned by a single partition until merged.
type Accumulator interface {
	// GeneratorName identifies the generator that created the state.
	// Merging states of different generators is refused.
	GeneratorName() string
}

// CombinerStatsGenerator is a reduction-shaped statistic generator.
// Any grouping or ordering of AddInput and MergeAccumulators calls over
// the same multiset of batches yields the same ExtractOutput result, up
// to floating point reassociation.
type CombinerStatsGenerator interface {
	// Name returns the stable registry name of the generator.
	Name() string
	// CreateAccumulator returns the identity element for merges.
	CreateAccumulator() Accumulator
	// AddInput absorbs one record batch into the accumulator.
	AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error)
	// MergeAccumulators combines partial states into one.
	MergeAccumulators(accs []Accumulator) (Accumulator, error)
	// ExtractOutput finalizes the accumulator into partial statistics.
	// It is pure: calling it repeatedly on the same state yields the
	// same result and never mutates the state.
	ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error)
}

// TransformStatsGenerator is a statistic generator that needs a full
// batch transformation pass before reduction: each input batch is mapped
// to a derived batch, which the embedded combiner then reduces.
type TransformStatsGenerator interface {
	// Name returns the stable registry name of the generator.
	Name() string
	// Transform maps one input batch to a derived batch.
	Transform(batch *model.Batch) (*model.Batch, error)
	// Combiner returns the reduction half of the generator.
	Combiner() CombinerStatsGenerator
}

// Registry is the active generator set of one statistics run, resolved
// from the configuration. It is immutable after construction and is the
// single source of truth for which statistics get computed.
type Registry struct {
	Combiners  []CombinerStatsGenerator
	Transforms []TransformStatsGenerator
}

// NewRegistry resolves the configured generator names into generator
// instances. Unknown names are configuration errors, fatal at job setup.
func NewRegistry(cfg *types.Config) (*Registry, error) {
	reg := &Registry{}
	for _, name := range cfg.ActiveGenerators() {
		switch name {
		case types.GeneratorCount:
			reg.Combiners = append(reg.Combiners, NewCountGenerator(cfg))
		case types.GeneratorNumeric:
			reg.Combiners = append(reg.Combiners, NewNumericGenerator(cfg))
		case types.GeneratorString:
			reg.Combiners = append(reg.Combiners, NewStringGenerator(cfg))
		case types.GeneratorTopK:
			reg.Combiners = append(reg.Combiners, NewTopKGenerator(cfg))
		case types.GeneratorCorrelation:
			reg.Transforms = append(reg.Transforms, NewCorrelationGenerator(cfg))
		default:
			return nil, fmt.Errorf("generators: unknown generator %q", name)
		}
	}
	return reg, nil
}

// mergeError builds the uniform contract-violation error for an
// accumulator that does not belong to the merging generator.
func mergeError(want string, got Accumulator) error {
	return fmt.Errorf("generators: %q cannot merge accumulator of %q", want, got.GeneratorName())
}

// FeatureError attributes a generator failure to a single feature. The
// driver attaches the resulting warning to that feature's statistics
// instead of the whole slice.
type FeatureError struct {
	Path model.Path
	Err  error
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("feature %q: %v", e.Path, e.Err)
}

func (e *FeatureError) Unwrap() error { return e.Err }

// rowWeight resolves the weight of record row when a weight feature is
// configured. Records without a usable numeric weight count as weight 1.
func rowWeight(weightFeature string, batch *model.Batch, row int) float64 {
	if weightFeature == "" {
		return 1
	}
	col := batch.Column(model.NewPath(weightFeature))
	if col == nil || col.Rows[row] == nil || len(col.Rows[row]) == 0 {
		return 1
	}
	if w, ok := col.Rows[row][0].AsFloat(); ok {
		return w
	}
	return 1
}
