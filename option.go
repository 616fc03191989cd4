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
	"os"

	"github.com/rulego/datacheck/logger"
	"github.com/rulego/datacheck/types"
)

// Option 表示对DataCheck默认行为的修改配置。
// 通过函数式选项模式，用户可以灵活地配置统计运行的各种行为。
type Option func(*DataCheck)

// WithLogger 设置自定义日志记录器。
// 允许用户提供自己的日志实现，支持不同的日志后端和格式。
//
// 示例:
//
//	customLogger := logger.NewLogger(logger.DEBUG, os.Stderr)
//	dc := datacheck.New(datacheck.WithLogger(customLogger))
func WithLogger(log logger.Logger) Option {
	return func(d *DataCheck) {
		d.log = log
	}
}

// WithLogLevel 设置日志级别。
// 为该实例创建一个独立的日志记录器，不会修改全局默认记录器，
// 其他共享默认记录器的实例不受影响。
//
// 示例:
//
//	// 设置为调试级别
//	dc := datacheck.New(datacheck.WithLogLevel(logger.DEBUG))
//
//	// 关闭日志
//	dc := datacheck.New(datacheck.WithLogLevel(logger.OFF))
func WithLogLevel(level logger.Level) Option {
	return func(d *DataCheck) {
		d.log = logger.NewLogger(level, os.Stderr)
	}
}

// WithConfig 整体替换运行配置。
// 与其他配置选项组合时应放在最前，后续选项在其基础上修改。
func WithConfig(cfg *types.Config) Option {
	return func(d *DataCheck) {
		if cfg != nil {
			d.cfg = cfg
		}
	}
}

// WithGenerators 指定要运行的统计生成器集合，覆盖默认集合。
//
// 示例:
//
//	// 只统计存在性和数值矩
//	dc := datacheck.New(datacheck.WithGenerators(
//		types.GeneratorCount, types.GeneratorNumeric,
//	))
func WithGenerators(names ...string) Option {
	return func(d *DataCheck) {
		d.cfg.Generators = names
	}
}

// WithSlice 追加一个命名数据切片。
// 表达式对每条记录求值，结果为真的记录进入该切片；
// 求值失败按不属于该切片处理。
//
// 示例:
//
//	dc := datacheck.New(
//		datacheck.WithSlice("adults", `age >= 18`),
//		datacheck.WithSlice("red_items", `color == "red"`),
//	)
func WithSlice(name, expression string) Option {
	return func(d *DataCheck) {
		d.cfg.Slices = append(d.cfg.Slices, types.SliceConfig{
			Name:       name,
			Expression: expression,
		})
	}
}

// WithWeightFeature 指定记录权重特征，启用加权统计。
func WithWeightFeature(name string) Option {
	return func(d *DataCheck) {
		d.cfg.WeightFeature = name
	}
}

// WithParallelism 设置分区统计的最大并行度。
func WithParallelism(n int) Option {
	return func(d *DataCheck) {
		d.cfg.Parallelism = n
	}
}

// WithNumTopValues 设置每个分类特征报告的高频值个数。
func WithNumTopValues(n int) Option {
	return func(d *DataCheck) {
		d.cfg.NumTopValues = n
	}
}

// WithNumQuantiles 设置数值特征报告的分位数区间个数。
func WithNumQuantiles(n int) Option {
	return func(d *DataCheck) {
		d.cfg.NumQuantiles = n
	}
}

// WithEnumThreshold 设置模式推断把字符串特征归为枚举类型的
// 去重数上限。
func WithEnumThreshold(n int64) Option {
	return func(d *DataCheck) {
		d.cfg.EnumThreshold = n
	}
}

// WithUnexpectedFeatureAsError 将校验中发现的未声明特征从警告
// 升级为错误。
func WithUnexpectedFeatureAsError() Option {
	return func(d *DataCheck) {
		d.cfg.UnexpectedFeatureIsError = true
	}
}
