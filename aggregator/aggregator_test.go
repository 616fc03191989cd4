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

package aggregator

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rulego/datacheck/logger"
	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

func testRecords(n int) []map[string]interface{} {
	var recs []map[string]interface{}
	for i := 0; i < n; i++ {
		rec := map[string]interface{}{"age": float64(i)}
		if i%2 == 0 {
			rec["color"] = "red"
		} else {
			rec["color"] = "blue"
		}
		recs = append(recs, rec)
	}
	return recs
}

func newTestAggregator(t *testing.T, cfg *types.Config) *Aggregator {
	t.Helper()
	agg, err := New(cfg, logger.NewDiscardLogger())
	require.NoError(t, err)
	return agg
}

func TestNew_ConfigErrorsAreFatal(t *testing.T) {
	cfg := types.NewConfig()
	cfg.Generators = []string{"histogram3d"}
	_, err := New(cfg, logger.NewDiscardLogger())
	require.Error(t, err)

	cfg = types.NewConfig()
	cfg.Slices = []types.SliceConfig{{Name: "broken", Expression: "(("}}
	_, err = New(cfg, logger.NewDiscardLogger())
	require.Error(t, err)

	cfg = types.NewConfig()
	cfg.NumQuantiles = 0
	_, err = New(cfg, logger.NewDiscardLogger())
	require.Error(t, err)
}

func TestRun_SinglePartition(t *testing.T) {
	agg := newTestAggregator(t, types.NewConfig())

	batch := model.BatchFromRecords(testRecords(10))
	list, err := agg.Run(context.Background(), [][]*model.Batch{{batch}})
	require.NoError(t, err)

	require.Len(t, list.Datasets, 1)
	all := list.Default()
	require.NotNil(t, all)
	assert.Equal(t, statistics.AllRecordsSlice, all.Name)
	assert.Equal(t, int64(10), all.NumRecords)

	age := all.Feature(model.NewPath("age"))
	require.NotNil(t, age)
	assert.Equal(t, int64(10), age.Count)
	require.NotNil(t, age.Num, "count and numeric blocks must both land on the feature")
	assert.InDelta(t, 4.5, age.Num.Mean, 1e-9)

	color := all.Feature(model.NewPath("color"))
	require.NotNil(t, color)
	require.NotNil(t, color.Cat)
	require.NotNil(t, color.Str)
}

func TestRun_PartitioningInvariant(t *testing.T) {
	records := testRecords(100)

	runWith := func(parts int) *statistics.DatasetFeatureStatisticsList {
		cfg := types.NewConfig()
		cfg.Parallelism = 4
		agg := newTestAggregator(t, cfg)

		var partitions [][]*model.Batch
		chunk := (len(records) + parts - 1) / parts
		for i := 0; i < len(records); i += chunk {
			end := i + chunk
			if end > len(records) {
				end = len(records)
			}
			partitions = append(partitions, []*model.Batch{model.BatchFromRecords(records[i:end])})
		}
		list, err := agg.Run(context.Background(), partitions)
		require.NoError(t, err)
		return list
	}

	baseline := runWith(1).Default()
	for _, parts := range []int{2, 5, 10} {
		t.Run(fmt.Sprintf("parts=%d", parts), func(t *testing.T) {
			got := runWith(parts).Default()
			assert.Equal(t, baseline.NumRecords, got.NumRecords)
			require.Len(t, got.Features, len(baseline.Features))

			wantAge := baseline.Feature(model.NewPath("age"))
			gotAge := got.Feature(model.NewPath("age"))
			assert.Equal(t, wantAge.Count, gotAge.Count)
			assert.InDelta(t, wantAge.Num.Mean, gotAge.Num.Mean, 1e-9)
			assert.InDelta(t, wantAge.Num.StdDev, gotAge.Num.StdDev, 1e-9)
			assert.Equal(t, wantAge.Num.Min, gotAge.Num.Min)
			assert.Equal(t, wantAge.Num.Max, gotAge.Num.Max)

			wantColor := baseline.Feature(model.NewPath("color"))
			gotColor := got.Feature(model.NewPath("color"))
			assert.Equal(t, wantColor.Cat.TopValues, gotColor.Cat.TopValues)
		})
	}
}

func TestRun_Slices(t *testing.T) {
	cfg := types.NewConfig()
	cfg.Slices = []types.SliceConfig{
		{Name: "reds", Expression: "color == 'red'"},
		{Name: "elderly", Expression: "age >= 90"},
		{Name: "nobody", Expression: "age > 10000"},
	}
	agg := newTestAggregator(t, cfg)

	list, err := agg.RunBatches(context.Background(), []*model.Batch{
		model.BatchFromRecords(testRecords(100)),
	})
	require.NoError(t, err)

	// all_records first, then populated slices in declaration order;
	// the empty slice is omitted
	require.Len(t, list.Datasets, 3)
	assert.Equal(t, statistics.AllRecordsSlice, list.Datasets[0].Name)
	assert.Equal(t, "reds", list.Datasets[1].Name)
	assert.Equal(t, "elderly", list.Datasets[2].Name)
	assert.Nil(t, list.Slice("nobody"))

	assert.Equal(t, int64(50), list.Slice("reds").NumRecords)
	assert.Equal(t, int64(10), list.Slice("elderly").NumRecords)

	elderlyAge := list.Slice("elderly").Feature(model.NewPath("age"))
	require.NotNil(t, elderlyAge)
	assert.Equal(t, 90.0, elderlyAge.Num.Min)
}

func TestRun_SoftFailureProducesWarningsAndPartialResults(t *testing.T) {
	cfg := types.NewConfig()
	cfg.Generators = append(types.NewConfig().ActiveGenerators(), types.GeneratorCorrelation)
	agg := newTestAggregator(t, cfg)

	// 特征名包含保留分隔符，关联生成器会拒绝整个批次
	bad := model.NewBatch(2)
	require.NoError(t, bad.AddColumn(model.NewPath("x\x1fy"), [][]model.Value{
		{model.Float(1)}, {model.Float(2)},
	}))
	require.NoError(t, bad.AddColumn(model.NewPath("age"), [][]model.Value{
		{model.Float(10)}, {model.Float(20)},
	}))

	list, err := agg.RunBatches(context.Background(), []*model.Batch{bad})
	require.NoError(t, err, "soft failure must not abort the run")

	all := list.Default()

	// 警告归因到包含保留分隔符的特征，而不是整个切片
	offender := all.Feature(model.NewPath("x\x1fy"))
	require.NotNil(t, offender)
	require.NotEmpty(t, offender.Warnings)
	assert.Contains(t, offender.Warnings[0], "correlation")
	assert.Empty(t, all.Warnings)

	age := all.Feature(model.NewPath("age"))
	require.NotNil(t, age, "unaffected generators still produce statistics")
	assert.Equal(t, int64(2), age.Count)
	assert.Empty(t, age.Warnings)
	assert.Empty(t, all.CrossFeatures)
}

func TestRun_FeatureWarningFallsBackToSlice(t *testing.T) {
	// 只启用关联生成器时产出里没有该特征的统计记录，
	// 归因警告退回到切片级
	cfg := types.NewConfig()
	cfg.Generators = []string{types.GeneratorCorrelation}
	agg := newTestAggregator(t, cfg)

	bad := model.NewBatch(1)
	require.NoError(t, bad.AddColumn(model.NewPath("x\x1fy"), [][]model.Value{
		{model.Float(1)},
	}))

	list, err := agg.RunBatches(context.Background(), []*model.Batch{bad})
	require.NoError(t, err)

	all := list.Default()
	assert.Empty(t, all.Features)
	require.NotEmpty(t, all.Warnings)
	assert.Contains(t, all.Warnings[0], "correlation")
}

func TestRun_EmptyInput(t *testing.T) {
	agg := newTestAggregator(t, types.NewConfig())
	list, err := agg.Run(context.Background(), nil)
	require.NoError(t, err)

	all := list.Default()
	require.NotNil(t, all)
	assert.Equal(t, int64(0), all.NumRecords)
	assert.Empty(t, all.Features)
}

func TestRun_Cancellation(t *testing.T) {
	agg := newTestAggregator(t, types.NewConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var partitions [][]*model.Batch
	for i := 0; i < 50; i++ {
		partitions = append(partitions, []*model.Batch{model.BatchFromRecords(testRecords(10))})
	}
	_, err := agg.Run(ctx, partitions)
	assert.Error(t, err)
}

func TestRun_WeightedEndToEnd(t *testing.T) {
	cfg := types.NewConfig()
	cfg.WeightFeature = "w"
	agg := newTestAggregator(t, cfg)

	list, err := agg.RunBatches(context.Background(), []*model.Batch{
		model.BatchFromRecords([]map[string]interface{}{
			{"x": 10.0, "w": 1.0},
			{"x": 20.0, "w": 3.0},
		}),
	})
	require.NoError(t, err)

	all := list.Default()
	assert.Equal(t, 4.0, all.WeightedNumRecords)
	x := all.Feature(model.NewPath("x"))
	require.NotNil(t, x.WeightedNum)
	assert.InDelta(t, 17.5, x.WeightedNum.Mean, 1e-9)
}
