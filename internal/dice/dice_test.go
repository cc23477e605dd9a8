package dice

import (
	"testing"

	"tablechat/internal/random"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestRoll_FateShape(t *testing.T) {
	engine := NewEngine(random.NewSeeded(1))
	for i := 0; i < 1000; i++ {
		res, err := engine.Roll(KindFate, intPtr(100), intPtr(9))
		require.NoError(t, err)
		require.Equal(t, KindFate, res.Kind)
		require.Len(t, res.Values, FateDice)
		sum := 0
		for _, v := range res.Values {
			require.Contains(t, []int{-1, 0, 1}, v)
			sum += v
		}
		require.Equal(t, sum, res.Total)
	}
}

func TestRoll_FacedShape(t *testing.T) {
	tests := []struct {
		name      string
		rng       *int
		times     *int
		wantLen   int
		wantRange int
	}{
		{"d20 five times", intPtr(20), intPtr(5), 5, 20},
		{"negative times normalizes to one", intPtr(20), intPtr(-3), 1, 20},
		{"zero times normalizes to one", intPtr(6), intPtr(0), 1, 6},
		{"defaults", nil, nil, 1, DefaultRange},
		{"single sided", intPtr(1), intPtr(3), 3, 1},
	}

	engine := NewEngine(random.NewSeeded(99))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 200; i++ {
				res, err := engine.Roll(KindFaced, tt.rng, tt.times)
				require.NoError(t, err)
				require.Equal(t, KindFaced, res.Kind)
				require.Equal(t, tt.wantRange, res.Range)
				require.Len(t, res.Values, tt.wantLen)
				for _, v := range res.Values {
					require.GreaterOrEqual(t, v, 1)
					require.LessOrEqual(t, v, tt.wantRange)
				}
			}
		})
	}
}

func TestRoll_InvalidRange(t *testing.T) {
	seq := random.NewSequence()
	engine := NewEngine(seq)
	for _, r := range []int{0, -1, -20} {
		_, err := engine.Roll(KindFaced, intPtr(r), intPtr(2))
		require.ErrorIs(t, err, ErrInvalidRange)
	}
}

func TestRoll_FateIgnoresInvalidRange(t *testing.T) {
	engine := NewEngine(random.NewSeeded(3))
	res, err := engine.Roll(KindFate, intPtr(-5), nil)
	require.NoError(t, err)
	require.Len(t, res.Values, FateDice)
}

func TestRoll_DeterministicSource(t *testing.T) {
	engine := NewEngine(random.NewSequence(4, 2, 6))
	res, err := engine.Roll(KindFaced, intPtr(6), intPtr(3))
	require.NoError(t, err)
	require.Equal(t, []int{4, 2, 6}, res.Values)
	require.Equal(t, 12, res.Total)

	a := NewEngine(random.NewSeeded(77))
	b := NewEngine(random.NewSeeded(77))
	ra, _ := a.Roll(KindFaced, intPtr(100), intPtr(10))
	rb, _ := b.Roll(KindFaced, intPtr(100), intPtr(10))
	require.Equal(t, ra, rb)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		hint string
		want Kind
	}{
		{"fate", KindFate},
		{"FATE", KindFate},
		{"faced", KindFaced},
		{"  Faced ", KindFaced},
		{"", KindFate},
		{"d20", KindFate},
	}
	for _, tt := range tests {
		if got := ParseKind(tt.hint); got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.hint, got, tt.want)
		}
	}
}

func TestResult_String(t *testing.T) {
	faced := Result{Kind: KindFaced, Range: 6, Values: []int{3, 5}, Total: 8}
	require.Equal(t, "2d6 [3, 5] (total 8)", faced.String())

	fate := Result{Kind: KindFate, Values: []int{1, 0, -1, 0}, Total: 0}
	require.Equal(t, "4dF [1, 0, -1, 0] (total 0)", fate.String())
}

func TestLimits_Check(t *testing.T) {
	limits := Limits{MaxRange: 200, MaxTimes: 50}
	require.NoError(t, limits.Check(nil, nil))
	require.NoError(t, limits.Check(intPtr(200), intPtr(50)))
	require.ErrorIs(t, limits.Check(intPtr(201), nil), ErrRangeTooLarge)
	require.ErrorIs(t, limits.Check(nil, intPtr(51)), ErrTooManyRolls)
	require.NoError(t, Limits{}.Check(intPtr(100000), intPtr(100000)))
}

func TestKind_TextRoundTrip(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("faced")))
	require.Equal(t, KindFaced, k)
	b, err := KindFate.MarshalText()
	require.NoError(t, err)
	require.Equal(t, "fate", string(b))
	require.Error(t, k.UnmarshalText([]byte("d20")))
	require.Equal(t, KindFaced, k)

	// 与 ParseKind 一样忽略大小写与首尾空白
	require.NoError(t, k.UnmarshalText([]byte(" FATE ")))
	require.Equal(t, KindFate, k)
	require.NoError(t, k.UnmarshalText([]byte("Faced")))
	require.Equal(t, KindFaced, k)
}

func TestEngine_Fate(t *testing.T) {
	e := NewEngine(random.NewSequence(1, -1, 0, 1))
	res := e.Fate()
	require.Equal(t, KindFate, res.Kind)
	require.Equal(t, []int{1, -1, 0, 1}, res.Values)
	require.Equal(t, 1, res.Total)
}
