// Package dice 实现 Fate 骰与多面骰的掷骰逻辑。
package dice

import (
	"errors"
	"fmt"
	"strings"

	"tablechat/internal/random"
)

// Kind 表示骰子种类。
type Kind int

const (
	// KindFate 是 4 颗取值 -1/0/+1 的 Fate 骰。
	KindFate Kind = iota
	// KindFaced 是常规多面骰（D20、D12 ...）。
	KindFaced
)

const (
	FateDice     = 4
	DefaultRange = 20
	DefaultTimes = 1
)

// ErrInvalidRange 表示多面骰的面数不是正整数。
var ErrInvalidRange = errors.New("dice range must be a positive integer")

// ErrRangeTooLarge 表示面数超过了允许的上限。
var ErrRangeTooLarge = errors.New("dice range exceeds limit")

// ErrTooManyRolls 表示重复次数超过了允许的上限。
var ErrTooManyRolls = errors.New("dice times exceeds limit")

func (k Kind) String() string {
	switch k {
	case KindFate:
		return "fate"
	case KindFaced:
		return "faced"
	default:
		return "unknown"
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText 与 ParseKind 使用相同的规范化，但拒绝无法识别的种类。
func (k *Kind) UnmarshalText(b []byte) error {
	kind, ok := lookupKind(string(b))
	if !ok {
		return fmt.Errorf("unknown dice kind %q", b)
	}
	*k = kind
	return nil
}

func lookupKind(s string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fate":
		return KindFate, true
	case "faced":
		return KindFaced, true
	default:
		return KindFate, false
	}
}

// ParseKind 将请求中的文本提示解析为骰子种类，大小写不敏感。
// 无法识别或为空的提示一律按 Fate 处理，不视为错误。
func ParseKind(hint string) Kind {
	kind, _ := lookupKind(hint)
	return kind
}

// Result 是一次掷骰的结果。Range 仅对多面骰有意义。
type Result struct {
	Kind   Kind  `json:"kind"`
	Range  int   `json:"range,omitempty"`
	Values []int `json:"values"`
	Total  int   `json:"total"`
}

// String 渲染为 "2d6 [3, 5] (total 8)" 或 "4dF [1, 0, -1, 0] (total 0)"。
func (r Result) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	var label string
	if r.Kind == KindFaced {
		label = fmt.Sprintf("%dd%d", len(r.Values), r.Range)
	} else {
		label = fmt.Sprintf("%ddF", len(r.Values))
	}
	return fmt.Sprintf("%s [%s] (total %d)", label, strings.Join(parts, ", "), r.Total)
}

// Engine 使用给定的随机源掷骰，自身不持有可变状态。
type Engine struct {
	src random.Source
}

func NewEngine(src random.Source) *Engine {
	return &Engine{src: src}
}

// Roll 按种类掷骰。
//
// Fate 骰总是返回 4 个 {-1, 0, 1} 中的值，忽略 rng 与 times。
//
// 多面骰返回 times 个 [1, rng] 中的值。rng 为 nil 时取 20；非正数返回
// ErrInvalidRange 且不会抽取任何随机数。times 为 nil、0 或负数时按 1 处理，
// 这是有意为之的宽松默认值，而不是错误。
func (e *Engine) Roll(kind Kind, rng, times *int) (Result, error) {
	if kind == KindFate {
		return e.Fate(), nil
	}

	sides := DefaultRange
	if rng != nil {
		sides = *rng
	}
	if sides <= 0 {
		return Result{}, ErrInvalidRange
	}
	count := DefaultTimes
	if times != nil && *times > 0 {
		count = *times
	}
	return e.faced(sides, count), nil
}

// Fate 掷一次 Fate 骰，不会失败。
func (e *Engine) Fate() Result {
	values := make([]int, FateDice)
	total := 0
	for i := range values {
		values[i] = e.src.Uniform(-1, 1)
		total += values[i]
	}
	return Result{Kind: KindFate, Values: values, Total: total}
}

func (e *Engine) faced(sides, count int) Result {
	values := make([]int, count)
	total := 0
	for i := range values {
		values[i] = e.src.Uniform(1, sides)
		total += values[i]
	}
	return Result{Kind: KindFaced, Range: sides, Values: values, Total: total}
}

// Limits 是 HTTP 层对多面骰参数施加的上限，0 表示不限制；服务配置要求两者为正。
type Limits struct {
	MaxRange int
	MaxTimes int
}

// Check 校验可选参数是否超过上限；缺省值不做检查。
func (l Limits) Check(rng, times *int) error {
	if rng != nil && l.MaxRange > 0 && *rng > l.MaxRange {
		return fmt.Errorf("%w: range %d > %d", ErrRangeTooLarge, *rng, l.MaxRange)
	}
	if times != nil && l.MaxTimes > 0 && *times > l.MaxTimes {
		return fmt.Errorf("%w: times %d > %d", ErrTooManyRolls, *times, l.MaxTimes)
	}
	return nil
}
