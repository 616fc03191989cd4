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
Package datacheck 是一个数据统计与校验引擎，面向表格数据集的质量保障。
它对批式输入的记录集做单遍增量统计，从统计结果推断数据模式（schema），
并将后续数据的统计结果与模式比对，产出确定性的异常报告。

# Core Features

  - 单遍增量统计：每个特征的计数、矩统计、分位数草图、高频值与去重估计
    都在一遍扫描中累积，累加器可结合可交换，分片并行后合并结果与单遍
    一致
  - 数据切片：通过表达式把记录划分到命名切片，每个切片独立产出一份
    完整统计，全量切片 all_records 恒定存在
  - 模式推断：从统计结果确定性地推断每个特征的类型、出现率要求、值域
    与形状，相同输入永远得到相同模式
  - 模式校验：统计与模式的每一处分歧都归入封闭的异常类别，并附带能让
    数据通过的显式模式修正建议
  - 软失败：单个生成器在单个批次上的失败只记为警告并跳过该批次，
    不影响其余生成器和后续批次

# 使用示例

生成统计、推断模式、校验新数据：

	dc := datacheck.New()

	// 从记录构建批次并生成统计
	batch := model.BatchFromRecords(records)
	stats, err := dc.GenerateStatistics(ctx, []*model.Batch{batch})
	if err != nil {
		return err
	}

	// 从全量切片的统计推断模式
	sch, err := dc.InferSchema(stats.Default())
	if err != nil {
		return err
	}

	// 用推断出的模式校验下一天的数据
	nextStats, err := dc.GenerateStatistics(ctx, nextBatches)
	if err != nil {
		return err
	}
	report, err := dc.ValidateStatistics(nextStats.Default(), sch)
	if err != nil {
		return err
	}
	for _, a := range report.Anomalies {
		log.Printf("[%s] %s: %s", a.Severity, a.Kind, a.Description)
	}

配置切片与并行度：

	dc := datacheck.New(
		datacheck.WithSlice("adults", `age >= 18`),
		datacheck.WithWeightFeature("sample_weight"),
		datacheck.WithParallelism(4),
	)

# 包结构

  - model: 值、特征路径与批次的数据模型
  - types: 统计运行的配置
  - sketch: 分位数、高频值与去重的流式草图
  - generators: 逐特征统计生成器及其累加器
  - slicer: 基于表达式的记录切片
  - aggregator: 跨批次、跨分片的统计汇总驱动
  - statistics: 最终统计结果的数据结构
  - schema: 数据模式及其推断
  - validator: 统计与模式的比对和异常报告
  - persist: 模式与统计的存取
*/
package datacheck
