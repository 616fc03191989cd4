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
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/types"
)

// mergeTolerance is the documented floating point reassociation tolerance:
// merging partial moment sets in different groupings may reassociate sums,
// so derived moments are compared relatively at 1e-9.
const mergeTolerance = 1e-9

// closeWithScale compares two derived moments under the documented
// tolerance relative to the magnitude of the underlying data, not of the
// moment itself: a tiny standard deviation over huge values legitimately
// carries absolute rounding dust proportional to the values.
func closeWithScale(a, b, scale float64) bool {
	if a == b {
		return true
	}
	return math.Abs(a-b) <= mergeTolerance*math.Max(scale, 1)
}

func numericBatches(values []float64) []*model.Batch {
	var records []map[string]interface{}
	for _, v := range values {
		records = append(records, map[string]interface{}{"x": v})
	}
	return []*model.Batch{model.BatchFromRecords(records)}
}

// splitAt partitions values at cut into two single-batch partitions.
func extractMean(t *testing.T, g *NumericGenerator, accs []Accumulator) (mean, stdDev float64, count int64, ok bool) {
	merged, err := g.MergeAccumulators(accs)
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	out, err := g.ExtractOutput(merged)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	fs := out.Feature(model.NewPath("x"))
	if fs == nil || fs.Num == nil {
		return 0, 0, 0, false
	}
	return fs.Num.Mean, fs.Num.StdDev, fs.Num.Count, true
}

// TestProperty_NumericMergeGroupingInvariant validates that any grouping
// of a fixed multiset of observations into partitions yields the same
// mean and standard deviation within the documented tolerance.
func TestProperty_NumericMergeGroupingInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("mean and stddev are grouping invariant", prop.ForAll(
		func(values []float64, cut int) bool {
			if len(values) == 0 {
				return true
			}
			cut = cut % len(values)
			g := NewNumericGenerator(types.NewConfig())

			feed := func(parts ...[]float64) []Accumulator {
				var accs []Accumulator
				for _, part := range parts {
					acc := g.CreateAccumulator()
					for _, b := range numericBatches(part) {
						var err error
						acc, err = g.AddInput(acc, b)
						if err != nil {
							t.Fatalf("add failed: %v", err)
						}
					}
					accs = append(accs, acc)
				}
				return accs
			}

			m1, s1, c1, ok1 := extractMean(t, g, feed(values))
			m2, s2, c2, ok2 := extractMean(t, g, feed(values[:cut], values[cut:]))
			// commutated grouping
			m3, s3, c3, ok3 := extractMean(t, g, feed(values[cut:], values[:cut]))

			if ok1 != ok2 || ok1 != ok3 {
				return false
			}
			if !ok1 {
				return true
			}
			scale := math.Abs(m1) + s1
			return c1 == c2 && c1 == c3 &&
				closeWithScale(m1, m2, scale) && closeWithScale(m1, m3, scale) &&
				closeWithScale(s1, s2, scale) && closeWithScale(s1, s3, scale)
		},
		gen.SliceOf(gen.Float64Range(-1e6, 1e6)),
		gen.IntRange(0, 1<<20),
	))

	properties.TestingRun(t)
}

// TestProperty_TopKMergeGroupingInvariant validates that categorical
// value counts are exactly grouping invariant, including tie ordering.
func TestProperty_TopKMergeGroupingInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	tokens := []string{"red", "blue", "green", "yellow", "violet"}

	properties.Property("top-k output is grouping invariant", prop.ForAll(
		func(picks []int, cut int) bool {
			if len(picks) == 0 {
				return true
			}
			cut = cut % len(picks)
			g := NewTopKGenerator(types.NewConfig())

			records := func(idx []int) []map[string]interface{} {
				var recs []map[string]interface{}
				for _, p := range idx {
					recs = append(recs, map[string]interface{}{
						"color": tokens[((p%len(tokens))+len(tokens))%len(tokens)],
					})
				}
				return recs
			}

			run := func(parts ...[]int) []Accumulator {
				var accs []Accumulator
				for _, part := range parts {
					acc := g.CreateAccumulator()
					if len(part) > 0 {
						var err error
						acc, err = g.AddInput(acc, model.BatchFromRecords(records(part)))
						if err != nil {
							t.Fatalf("add failed: %v", err)
						}
					}
					accs = append(accs, acc)
				}
				return accs
			}

			extract := func(accs []Accumulator) []string {
				merged, err := g.MergeAccumulators(accs)
				if err != nil {
					t.Fatalf("merge failed: %v", err)
				}
				out, err := g.ExtractOutput(merged)
				if err != nil {
					t.Fatalf("extract failed: %v", err)
				}
				fs := out.Feature(model.NewPath("color"))
				if fs == nil {
					return nil
				}
				var flat []string
				for _, vc := range fs.Cat.TopValues {
					flat = append(flat, vc.Value)
				}
				return flat
			}

			whole := extract(run(picks))
			split := extract(run(picks[:cut], picks[cut:]))
			reversed := extract(run(picks[cut:], picks[:cut]))

			if len(whole) != len(split) || len(whole) != len(reversed) {
				return false
			}
			for i := range whole {
				if whole[i] != split[i] || whole[i] != reversed[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 1000)),
		gen.IntRange(0, 1<<20),
	))

	properties.TestingRun(t)
}
