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

package model

import "fmt"

// Column is one feature's values for every record of a batch.
// Rows[i] holds the (possibly repeated) values of record i; a nil row is
// the explicit missing marker for that record.
type Column struct {
	Path Path
	Rows [][]Value
}

// Batch is a columnar chunk of records. All columns span the same record
// range; records where a feature was absent have a nil row in that column.
//
// Batches are produced by external decoders and consumed read-only by the
// statistics generators.
type Batch struct {
	numRows int
	columns []*Column
	byPath  map[string]*Column
}

// NewBatch creates an empty batch covering numRows records.
func NewBatch(numRows int) *Batch {
	return &Batch{
		numRows: numRows,
		byPath:  make(map[string]*Column),
	}
}

// NumRows returns the number of records the batch spans.
func (b *Batch) NumRows() int { return b.numRows }

// Columns returns the columns in first-added order.
func (b *Batch) Columns() []*Column { return b.columns }

// Column returns the column for path, or nil when the feature does not
// appear in this batch.
func (b *Batch) Column(path Path) *Column {
	return b.byPath[path.String()]
}

// AddColumn attaches a column of rows for path. The rows slice must have
// exactly NumRows entries; shorter slices are padded with missing rows so
// a sloppy decoder cannot skew presence counts.
func (b *Batch) AddColumn(path Path, rows [][]Value) error {
	if _, dup := b.byPath[path.String()]; dup {
		return fmt.Errorf("batch: duplicate column %q", path)
	}
	if len(rows) > b.numRows {
		return fmt.Errorf("batch: column %q has %d rows, batch spans %d", path, len(rows), b.numRows)
	}
	for len(rows) < b.numRows {
		rows = append(rows, nil)
	}
	col := &Column{Path: path, Rows: rows}
	b.columns = append(b.columns, col)
	b.byPath[path.String()] = col
	return nil
}

// BatchFromRecords converts row-oriented records (as produced by most
// decoders) into a columnar batch. Feature order follows first observation
// across the record sequence. A key absent from a record, or mapped to nil,
// becomes a missing slot; scalar values become single-element rows; []interface{}
// values become repeated-value rows.
func BatchFromRecords(records []map[string]interface{}) *Batch {
	b := NewBatch(len(records))
	// 保持首次观察到的字段顺序；map迭代顺序不稳定，按排序后的键扫描
	var order []string
	seen := make(map[string]bool)
	for _, rec := range records {
		keys := sortedKeys(rec)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				order = append(order, k)
			}
		}
	}

	for _, name := range order {
		rows := make([][]Value, len(records))
		for i, rec := range records {
			raw, ok := rec[name]
			if !ok || raw == nil {
				rows[i] = nil
				continue
			}
			if list, isList := raw.([]interface{}); isList {
				vals := make([]Value, 0, len(list))
				for _, item := range list {
					vals = append(vals, FromAny(item))
				}
				rows[i] = vals
				continue
			}
			rows[i] = []Value{FromAny(raw)}
		}
		// AddColumn only fails on duplicates, impossible here
		_ = b.AddColumn(NewPath(name), rows)
	}
	return b
}

func sortedKeys(rec map[string]interface{}) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	// insertion sort, record widths are small
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j] < keys[j-1]; j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// FilterRows returns a new batch containing only the records whose index
// passes keep. Used by the slicer to route records into named slices.
func (b *Batch) FilterRows(keep func(row int) bool) *Batch {
	var idx []int
	for i := 0; i < b.numRows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	out := NewBatch(len(idx))
	for _, col := range b.columns {
		rows := make([][]Value, len(idx))
		for j, i := range idx {
			rows[j] = col.Rows[i]
		}
		_ = out.AddColumn(col.Path, rows)
	}
	return out
}

// Row assembles record i as a map for predicate evaluation. Scalar columns
// contribute their single value, repeated columns contribute a slice, and
// missing slots are left out so expressions can test for absence.
func (b *Batch) Row(i int) map[string]interface{} {
	env := make(map[string]interface{}, len(b.columns))
	for _, col := range b.columns {
		row := col.Rows[i]
		if row == nil {
			continue
		}
		if len(row) == 1 {
			env[col.Path.String()] = anyFromValue(row[0])
			continue
		}
		list := make([]interface{}, 0, len(row))
		for _, v := range row {
			list = append(list, anyFromValue(v))
		}
		env[col.Path.String()] = list
	}
	return env
}

func anyFromValue(v Value) interface{} {
	switch v.Kind {
	case KindInt:
		return v.I
	case KindFloat:
		return v.F
	case KindString:
		return v.S
	default:
		return nil
	}
}
