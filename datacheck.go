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

package datacheck

import (
	"context"

	"github.com/rulego/datacheck/aggregator"
	"github.com/rulego/datacheck/logger"
	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/schema"
	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
	"github.com/rulego/datacheck/validator"
)

// DataCheck 是数据统计与校验引擎的主要接口。
// 它封装了统计生成、模式推断和模式校验三个核心操作。
//
// 使用示例:
//
//	dc := datacheck.New()
//	stats, err := dc.GenerateStatistics(ctx, batches)
//	sch, err := dc.InferSchema(stats.Default())
//	report, err := dc.ValidateStatistics(stats.Default(), sch)
type DataCheck struct {
	cfg *types.Config
	log logger.Logger
}

// New 创建一个新的DataCheck实例。
// 支持通过可选的Option参数进行配置。
//
// 参数:
//   - options: 可变长度的配置选项，用于自定义统计运行行为
//
// 返回值:
//   - *DataCheck: 新创建的实例
//
// 配置错误（非法的切片表达式、未知的生成器名等）在首次运行统计时
// 作为致命错误返回。
//
// 示例:
//
//	// 创建默认实例
//	dc := datacheck.New()
//
//	// 创建带切片和并行度的实例
//	dc := datacheck.New(
//		datacheck.WithSlice("adults", `age >= 18`),
//		datacheck.WithParallelism(4),
//	)
func New(options ...Option) *DataCheck {
	d := &DataCheck{
		cfg: types.NewConfig(),
		log: logger.GetDefault(),
	}

	// 应用所有配置选项
	for _, option := range options {
		option(d)
	}

	return d
}

// Config returns the run configuration the instance was built with.
func (d *DataCheck) Config() *types.Config {
	return d.cfg
}

// GenerateStatistics 对一组批次做单遍统计，返回每个切片一份的统计列表。
// 所有批次在一个分区内顺序处理；需要并行时使用
// GenerateStatisticsPartitioned 并配合 WithParallelism。
//
// 参数:
//   - ctx: 取消上下文，取消后统计运行尽快终止
//   - batches: 输入批次，按序处理
//
// 返回值:
//   - *statistics.DatasetFeatureStatisticsList: 全量切片在前的统计列表
//   - error: 配置错误或上下文取消
func (d *DataCheck) GenerateStatistics(ctx context.Context, batches []*model.Batch) (*statistics.DatasetFeatureStatisticsList, error) {
	agg, err := aggregator.New(d.cfg, d.log)
	if err != nil {
		return nil, err
	}
	return agg.Run(ctx, [][]*model.Batch{batches})
}

// GenerateStatisticsPartitioned 将分区并行统计后合并。
// 合并结果与把全部批次交给单个分区的结果一致（浮点舍入误差内）。
//
// 参数:
//   - ctx: 取消上下文
//   - partitions: 每个元素是一个独立处理的批次序列
func (d *DataCheck) GenerateStatisticsPartitioned(ctx context.Context, partitions [][]*model.Batch) (*statistics.DatasetFeatureStatisticsList, error) {
	agg, err := aggregator.New(d.cfg, d.log)
	if err != nil {
		return nil, err
	}
	return agg.Run(ctx, partitions)
}

// GenerateStatisticsFromRecords 是GenerateStatistics的便捷形式，
// 直接接受记录切片并在内部构建批次。
func (d *DataCheck) GenerateStatisticsFromRecords(ctx context.Context, records []map[string]interface{}) (*statistics.DatasetFeatureStatisticsList, error) {
	batch := model.BatchFromRecords(records)
	return d.GenerateStatistics(ctx, []*model.Batch{batch})
}

// InferSchema 从一个切片的统计结果推断数据模式。
// 推断是确定性的无状态操作：相同统计和相同配置永远得到相同模式。
//
// 参数:
//   - stats: 一个切片的最终统计，通常取 list.Default()
func (d *DataCheck) InferSchema(stats *statistics.DatasetFeatureStatistics) (*schema.Schema, error) {
	return schema.Infer(stats, d.cfg)
}

// ValidateStatistics 将一个切片的统计结果与模式比对，返回异常报告。
// 模式自检失败是结构性错误并直接返回；其余分歧全部收集进报告。
func (d *DataCheck) ValidateStatistics(stats *statistics.DatasetFeatureStatistics, sch *schema.Schema) (*validator.Report, error) {
	return validator.Validate(stats, sch, d.cfg)
}
