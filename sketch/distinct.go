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

package sketch

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/spaolacci/murmur3"
)

// DistinctCounter estimates the number of distinct tokens using
// register-based cardinality estimation (HyperLogLog). Tokens are hashed
// with murmur3; each 64-bit hash selects a register by its top bits and
// updates it with the rank of the remaining bits. Register-wise max is an
// idempotent, associative and commutative merge, so partial counters can
// be combined in any order and even over duplicated batches without
// inflating the estimate.
type DistinctCounter struct {
	precision uint8
	registers []uint8
}

// NewDistinctCounter creates a counter with 2^precision registers.
// Precision must be in [4, 16]; the relative error is about
// 1.04/sqrt(2^precision).
func NewDistinctCounter(precision uint8) *DistinctCounter {
	if precision < 4 {
		precision = 4
	}
	if precision > 16 {
		precision = 16
	}
	return &DistinctCounter{
		precision: precision,
		registers: make([]uint8, 1<<precision),
	}
}

// Add absorbs one token.
func (d *DistinctCounter) Add(token string) {
	h := murmur3.Sum64([]byte(token))
	idx := h >> (64 - d.precision)
	rank := uint8(bits.LeadingZeros64(h<<d.precision|1)) + 1
	if rank > d.registers[idx] {
		d.registers[idx] = rank
	}
}

// Merge folds other into d by register-wise maximum.
func (d *DistinctCounter) Merge(other *DistinctCounter) error {
	if other == nil {
		return nil
	}
	if other.precision != d.precision {
		return fmt.Errorf("distinct counter: cannot merge precision %d into %d", other.precision, d.precision)
	}
	for i, r := range other.registers {
		if r > d.registers[i] {
			d.registers[i] = r
		}
	}
	return nil
}

// Estimate returns the approximate distinct-token count.
func (d *DistinctCounter) Estimate() int64 {
	m := float64(len(d.registers))

	var sum float64
	var zeros int
	for _, r := range d.registers {
		sum += math.Pow(2, -float64(r))
		if r == 0 {
			zeros++
		}
	}

	estimate := alpha(len(d.registers)) * m * m / sum
	// 小基数修正：用线性计数
	if estimate <= 2.5*m && zeros > 0 {
		estimate = m * math.Log(m/float64(zeros))
	}
	return int64(estimate + 0.5)
}

func alpha(m int) float64 {
	switch m {
	case 16:
		return 0.673
	case 32:
		return 0.697
	case 64:
		return 0.709
	default:
		return 0.7213 / (1 + 1.079/float64(m))
	}
}
