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

// Package slicer routes records into named dataset slices. Each slice is
// defined by a boolean predicate expression over the record's features;
// a record lands in every slice whose predicate evaluates true, so slices
// may overlap and may leave records unassigned.
package slicer

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rulego/datacheck/model"
	"github.com/rulego/datacheck/types"
)

// Slicer evaluates one named slice predicate against records.
type Slicer struct {
	name    string
	program *vm.Program
}

// New compiles a slice predicate. Undefined feature references evaluate
// as nil so predicates can test optional features; the expression must
// produce a boolean. A malformed expression is a configuration error,
// fatal at job setup.
func New(cfg types.SliceConfig) (*Slicer, error) {
	options := []expr.Option{
		expr.AllowUndefinedVariables(),
		expr.AsBool(),
	}

	program, err := expr.Compile(cfg.Expression, options...)
	if err != nil {
		return nil, fmt.Errorf("slicer: slice %q: %w", cfg.Name, err)
	}
	return &Slicer{name: cfg.Name, program: program}, nil
}

// NewSet compiles every configured slice predicate.
func NewSet(configs []types.SliceConfig) ([]*Slicer, error) {
	slicers := make([]*Slicer, 0, len(configs))
	for _, cfg := range configs {
		s, err := New(cfg)
		if err != nil {
			return nil, err
		}
		slicers = append(slicers, s)
	}
	return slicers, nil
}

// Name returns the slice name.
func (s *Slicer) Name() string { return s.name }

// Match reports whether record row of the batch belongs to the slice.
// Evaluation failures count as non-membership: a predicate that cannot
// be evaluated for a record simply leaves the record out of the slice.
func (s *Slicer) Match(batch *model.Batch, row int) bool {
	result, err := expr.Run(s.program, batch.Row(row))
	if err != nil {
		return false
	}
	b, ok := result.(bool)
	return ok && b
}

// Apply returns the sub-batch of records belonging to the slice.
func (s *Slicer) Apply(batch *model.Batch) *model.Batch {
	return batch.FilterRows(func(row int) bool {
		return s.Match(batch, row)
	})
}
