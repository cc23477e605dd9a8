// Package random 提供骰子引擎使用的均匀随机整数源。
//
// 默认实现为每个 Rand 单独使用 crypto/rand 生成种子，避免多个请求共享同一个
// 递增计数器而产生可观察的相关性。
package random

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
)

// Source 在 [low, high] 闭区间内抽取均匀随机整数，实现必须可被并发调用。
type Source interface {
	Uniform(low, high int) int
}

// NewSeed 使用 crypto/rand 生成一个随机种子。
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Rand 是带互斥锁的伪随机数生成器。
type Rand struct {
	mu   sync.Mutex
	rng  *rand.Rand
	seed int64
}

// New 返回一个由 crypto/rand 播种的 Rand。
func New() (*Rand, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewSeeded(seed), nil
}

// NewSeeded 返回确定性的 Rand，相同种子产生相同序列。
func NewSeeded(seed int64) *Rand {
	return &Rand{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed 返回初始化时使用的种子，便于复现某次掷骰。
func (r *Rand) Seed() int64 { return r.seed }

// Uniform 返回 low <= n <= high 的整数；low > high 时交换边界。
func (r *Rand) Uniform(low, high int) int {
	if low > high {
		low, high = high, low
	}
	r.mu.Lock()
	n := r.rng.Intn(high - low + 1)
	r.mu.Unlock()
	return low + n
}

// Sequence 按顺序重放固定的值，循环使用，主要用于测试。
type Sequence struct {
	mu     sync.Mutex
	values []int
	next   int
}

func NewSequence(values ...int) *Sequence {
	return &Sequence{values: values}
}

// Uniform 返回下一个预置值；值越界时 panic，因为这意味着测试数据写错了。
func (s *Sequence) Uniform(low, high int) int {
	if low > high {
		low, high = high, low
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.values) == 0 {
		return low
	}
	v := s.values[s.next%len(s.values)]
	s.next++
	if v < low || v > high {
		panic(fmt.Sprintf("random: sequence value %d outside [%d, %d]", v, low, high))
	}
	return v
}
