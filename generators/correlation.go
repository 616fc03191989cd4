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

package generators

import (
	"fmt"
	"math"
	"strings"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// pairSep joins the two feature names of a derived pair column. Pair
// columns only live inside the transform/combiner handshake and never
// surface in finalized statistics.
const pairSep = "\x1f"

// CorrelationGenerator computes pairwise Pearson correlation between
// numeric features. Correlation is not a single-pass reduction over raw
// columns, so it runs transform shaped: each input batch is mapped to a
// derived batch holding one column per numeric feature pair with the
// aligned (x, y) value tuples, and the embedded combiner reduces those
// into per-pair moment sums.
type CorrelationGenerator struct {
	combiner *correlationCombiner
}

// NewCorrelationGenerator creates the cross-feature correlation generator.
func NewCorrelationGenerator(cfg *types.Config) *CorrelationGenerator {
	return &CorrelationGenerator{combiner: &correlationCombiner{}}
}

// Name implements TransformStatsGenerator.
func (g *CorrelationGenerator) Name() string { return types.GeneratorCorrelation }

// Combiner implements TransformStatsGenerator.
func (g *CorrelationGenerator) Combiner() CombinerStatsGenerator { return g.combiner }

// Transform implements TransformStatsGenerator. Records missing either
// feature of a pair, or carrying non-scalar values for it, contribute a
// missing slot for that pair.
func (g *CorrelationGenerator) Transform(batch *model.Batch) (*model.Batch, error) {
	if batch == nil {
		return nil, fmt.Errorf("correlation: nil batch")
	}

	// 找出数值型列
	var numeric []*model.Column
	for _, col := range batch.Columns() {
		if strings.Contains(col.Path.String(), pairSep) {
			return nil, &FeatureError{
				Path: col.Path,
				Err:  fmt.Errorf("correlation: feature name contains reserved separator"),
			}
		}
		for _, values := range col.Rows {
			if len(values) == 1 && values[0].IsNumeric() {
				numeric = append(numeric, col)
				break
			}
		}
	}

	derived := model.NewBatch(batch.NumRows())
	for i := 0; i < len(numeric); i++ {
		for j := i + 1; j < len(numeric); j++ {
			x, y := numeric[i], numeric[j]
			rows := make([][]model.Value, batch.NumRows())
			for row := 0; row < batch.NumRows(); row++ {
				xv, okX := scalarNumeric(x.Rows[row])
				yv, okY := scalarNumeric(y.Rows[row])
				if okX && okY {
					rows[row] = []model.Value{model.Float(xv), model.Float(yv)}
				}
			}
			path := model.NewPath(x.Path.String() + pairSep + y.Path.String())
			if err := derived.AddColumn(path, rows); err != nil {
				return nil, err
			}
		}
	}
	return derived, nil
}

func scalarNumeric(values []model.Value) (float64, bool) {
	if len(values) != 1 {
		return 0, false
	}
	return values[0].AsFloat()
}

type corrState struct {
	pathX model.Path
	pathY model.Path
	n     int64
	sumX  float64
	sumY  float64
	sumXY float64
	sumX2 float64
	sumY2 float64
}

type corrAccumulator struct {
	order []string
	pairs map[string]*corrState
}

func (a *corrAccumulator) GeneratorName() string { return types.GeneratorCorrelation }

func (a *corrAccumulator) pair(key string) (*corrState, error) {
	st, ok := a.pairs[key]
	if !ok {
		parts := strings.SplitN(key, pairSep, 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("correlation: malformed pair column %q", key)
		}
		st = &corrState{pathX: model.NewPath(parts[0]), pathY: model.NewPath(parts[1])}
		a.pairs[key] = st
		a.order = append(a.order, key)
	}
	return st, nil
}

type correlationCombiner struct{}

// Name implements CombinerStatsGenerator.
func (c *correlationCombiner) Name() string { return types.GeneratorCorrelation }

// CreateAccumulator implements CombinerStatsGenerator.
func (c *correlationCombiner) CreateAccumulator() Accumulator {
	return &corrAccumulator{pairs: make(map[string]*corrState)}
}

// AddInput implements CombinerStatsGenerator, consuming derived batches
// produced by Transform.
func (c *correlationCombiner) AddInput(acc Accumulator, batch *model.Batch) (Accumulator, error) {
	a, ok := acc.(*corrAccumulator)
	if !ok {
		return nil, mergeError(c.Name(), acc)
	}

	for _, col := range batch.Columns() {
		st, err := a.pair(col.Path.String())
		if err != nil {
			return nil, err
		}
		for _, values := range col.Rows {
			if len(values) != 2 {
				continue
			}
			x, y := values[0].F, values[1].F
			st.n++
			st.sumX += x
			st.sumY += y
			st.sumXY += x * y
			st.sumX2 += x * x
			st.sumY2 += y * y
		}
	}
	return a, nil
}

// MergeAccumulators implements CombinerStatsGenerator.
func (c *correlationCombiner) MergeAccumulators(accs []Accumulator) (Accumulator, error) {
	out := c.CreateAccumulator().(*corrAccumulator)
	for _, acc := range accs {
		a, ok := acc.(*corrAccumulator)
		if !ok {
			return nil, mergeError(c.Name(), acc)
		}
		for _, key := range a.order {
			src := a.pairs[key]
			dst, err := out.pair(key)
			if err != nil {
				return nil, err
			}
			dst.n += src.n
			dst.sumX += src.sumX
			dst.sumY += src.sumY
			dst.sumXY += src.sumXY
			dst.sumX2 += src.sumX2
			dst.sumY2 += src.sumY2
		}
	}
	return out, nil
}

// ExtractOutput implements CombinerStatsGenerator. Pairs with a degenerate
// variance (all x or all y equal) have no defined correlation and are
// omitted rather than reported as zero.
func (c *correlationCombiner) ExtractOutput(acc Accumulator) (*statistics.DatasetFeatureStatistics, error) {
	a, ok := acc.(*corrAccumulator)
	if !ok {
		return nil, mergeError(c.Name(), acc)
	}

	out := statistics.NewDatasetFeatureStatistics("")
	for _, key := range a.order {
		st := a.pairs[key]
		if st.n < 2 {
			continue
		}
		n := float64(st.n)
		cov := n*st.sumXY - st.sumX*st.sumY
		varX := n*st.sumX2 - st.sumX*st.sumX
		varY := n*st.sumY2 - st.sumY*st.sumY
		if varX <= 0 || varY <= 0 {
			continue
		}
		out.CrossFeatures = append(out.CrossFeatures, &statistics.CrossFeatureStats{
			PathX:   st.pathX,
			PathY:   st.pathY,
			Count:   st.n,
			Pearson: cov / math.Sqrt(varX*varY),
		})
	}
	return out, nil
}
