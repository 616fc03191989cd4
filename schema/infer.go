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

package schema

import (
	"fmt"

	"github.com/rulego/datacheck/statistics"
	"github.com/rulego/datacheck/types"
)

// Infer derives a schema from one slice's finalized statistics.
//
// Per feature: the declared kind follows the dominant statistic block
// (numeric types stay numeric; string features become categorical when
// their observed cardinality is at or below the enum threshold, free
// strings otherwise). Presence is required when the feature was never
// missing, optional with a minimum fraction otherwise. Numeric features
// get a [min, max] range domain, categorical features the observed value
// set — unless the set exceeded the domain cap, in which case the
// feature degrades to an enumeration-free categorical. A feature whose
// per-record value count never varied gets a fixed shape. A feature that
// never carried a single value is declared optional with no type or
// domain constraint at all.
//
// Inference is deterministic and stateless: identical statistics and
// thresholds yield an identical schema, and no previously inferred
// schema is consulted.
func Infer(stats *statistics.DatasetFeatureStatistics, cfg *types.Config) (*Schema, error) {
	if stats == nil {
		return nil, fmt.Errorf("schema: cannot infer from nil statistics")
	}
	if cfg == nil {
		cfg = types.NewConfig()
	}

	out := New()
	for _, fs := range stats.Features {
		// 全部缺失的特征推不出类型和值域，但仍要声明为无约束的
		// 可选特征，否则它在校验中会被当成未声明特征
		if fs.Count == 0 {
			if err := out.AddFeature(&Feature{
				Path:     fs.Path,
				Kind:     KindAny,
				Presence: Presence{Required: false, MinFraction: 0},
			}); err != nil {
				return nil, err
			}
			continue
		}

		f := &Feature{
			Path: fs.Path,
			Kind: inferKind(fs, cfg),
		}

		if fs.Missing == 0 {
			f.Presence = Presence{Required: true, MinFraction: 1}
		} else {
			minFraction := fs.PresentFraction()
			if cfg.MinPresenceFraction < minFraction {
				minFraction = cfg.MinPresenceFraction
			}
			f.Presence = Presence{Required: false, MinFraction: minFraction}
		}

		switch f.Kind {
		case KindNumeric:
			if fs.Num != nil {
				min, max := fs.Num.Min, fs.Num.Max
				f.Domain = &Domain{Min: &min, Max: &max}
			}
		case KindCategorical:
			if fs.Cat != nil && len(fs.Cat.DomainValues) > 0 {
				values := make([]string, len(fs.Cat.DomainValues))
				copy(values, fs.Cat.DomainValues)
				f.Domain = &Domain{Values: values}
			}
		}

		if fs.MinValueCount == fs.MaxValueCount && fs.MinValueCount > 0 {
			f.Shape = Shape{Fixed: true, ValueCount: fs.MinValueCount}
		}

		if err := out.AddFeature(f); err != nil {
			return nil, err
		}
	}

	if err := out.Check(); err != nil {
		return nil, fmt.Errorf("schema: inferred schema failed self-check: %w", err)
	}
	return out, nil
}

// inferKind classifies the declared kind from the dominant statistic
// block of the feature.
func inferKind(fs *statistics.FeatureStats, cfg *types.Config) FeatureKind {
	switch fs.Type {
	case statistics.TypeInt, statistics.TypeFloat:
		return KindNumeric
	case statistics.TypeStruct:
		return KindStruct
	default:
		if fs.Cat != nil && !fs.Cat.Truncated && fs.Cat.Distinct <= cfg.EnumThreshold {
			return KindCategorical
		}
		return KindString
	}
}
