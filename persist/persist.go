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

// Package persist reads and writes schemas and statistics. Schemas are
// stored as indented JSON so they survive hand edits and code review;
// statistics, which grow with feature count and slice count, are stored
// as snappy-compressed JSON blobs.
package persist

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/snappy"

	"github.com/rulego/datacheck/schema"
	"github.com/rulego/datacheck/statistics"
)

// EncodeSchema renders a schema as indented JSON text.
func EncodeSchema(s *schema.Schema) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("persist: cannot encode nil schema")
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("persist: refusing to encode inconsistent schema: %w", err)
	}
	return json.MarshalIndent(s, "", "  ")
}

// DecodeSchema parses schema JSON text and verifies its consistency.
func DecodeSchema(data []byte) (*schema.Schema, error) {
	s := schema.New()
	dec := json.NewDecoder(bytes.NewReader(data))
	// 拒绝未知字段，手工编辑的笔误在加载时立即暴露
	dec.DisallowUnknownFields()
	if err := dec.Decode(s); err != nil {
		return nil, fmt.Errorf("persist: schema decode failed: %w", err)
	}
	if err := s.Check(); err != nil {
		return nil, fmt.Errorf("persist: loaded schema is inconsistent: %w", err)
	}
	return s, nil
}

// SaveSchema writes a schema to path as JSON text.
func SaveSchema(path string, s *schema.Schema) error {
	data, err := EncodeSchema(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// LoadSchema reads a schema from a JSON text file.
func LoadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: read schema: %w", err)
	}
	return DecodeSchema(data)
}

// EncodeStatistics renders a statistics list as a snappy-compressed
// JSON blob.
func EncodeStatistics(list *statistics.DatasetFeatureStatisticsList) ([]byte, error) {
	if list == nil {
		return nil, fmt.Errorf("persist: cannot encode nil statistics list")
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, fmt.Errorf("persist: statistics encode failed: %w", err)
	}
	return snappy.Encode(nil, data), nil
}

// DecodeStatistics parses a snappy-compressed statistics blob.
func DecodeStatistics(blob []byte) (*statistics.DatasetFeatureStatisticsList, error) {
	data, err := snappy.Decode(nil, blob)
	if err != nil {
		return nil, fmt.Errorf("persist: statistics decompress failed: %w", err)
	}
	list := &statistics.DatasetFeatureStatisticsList{}
	if err := json.Unmarshal(data, list); err != nil {
		return nil, fmt.Errorf("persist: statistics decode failed: %w", err)
	}
	return list, nil
}

// SaveStatistics writes a statistics list to path as a compressed blob.
func SaveStatistics(path string, list *statistics.DatasetFeatureStatisticsList) error {
	blob, err := EncodeStatistics(list)
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// LoadStatistics reads a statistics list from a compressed blob file.
func LoadStatistics(path string) (*statistics.DatasetFeatureStatisticsList, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: read statistics: %w", err)
	}
	return DecodeStatistics(blob)
}
