package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"tablechat/internal/chat"
	"tablechat/internal/dice"
	"tablechat/internal/random"

	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func newRollService(src random.Source) (*RollService, *chat.Session) {
	session := chat.NewSession()
	return NewRollService(session, dice.NewEngine(src), dice.Limits{MaxRange: 200, MaxTimes: 50}), session
}

func TestResolve_FacedRollThenLog(t *testing.T) {
	svc, session := newRollService(random.NewSequence(2, 5))
	require.NoError(t, session.Join("Ana"))

	out, err := svc.Resolve(context.Background(), RollRequest{Dice: "faced", Range: intPtr(6), Times: intPtr(2), Username: "Ana"})
	require.NoError(t, err)
	require.Equal(t, []int{2, 5}, out.Result.Values)

	history := session.History()
	require.Len(t, history, 1)
	require.Equal(t, out.Message, history[0])
	require.Equal(t, "Ana", history[0].Author.Name)
	require.Contains(t, history[0].Text, "Ana")
	require.Contains(t, history[0].Text, "[2, 5]")
	require.Equal(t, "Roll: Ana rolled 2d6 [2, 5] (total 7)", history[0].Text)
}

func TestResolve_SummaryMatchesResult(t *testing.T) {
	src, err := random.New()
	require.NoError(t, err)
	svc, session := newRollService(src)

	for i := 0; i < 20; i++ {
		out, err := svc.Resolve(context.Background(), RollRequest{Dice: "FACED", Range: intPtr(6), Times: intPtr(2), Username: "Ana"})
		require.NoError(t, err)
		require.Len(t, out.Result.Values, 2)
		want := fmt.Sprintf("[%d, %d]", out.Result.Values[0], out.Result.Values[1])
		require.True(t, strings.Contains(out.Message.Text, want), "message %q missing %s", out.Message.Text, want)
	}
	require.Len(t, session.History(), 20)
}

func TestResolve_UnknownHintDefaultsToFate(t *testing.T) {
	svc, session := newRollService(random.NewSeeded(5))
	for _, hint := range []string{"", "d20", "percentile"} {
		out, err := svc.Resolve(context.Background(), RollRequest{Dice: hint, Range: intPtr(-1), Username: "Bob"})
		require.NoError(t, err)
		require.Equal(t, dice.KindFate, out.Result.Kind)
		require.Len(t, out.Result.Values, dice.FateDice)
	}
	require.Len(t, session.History(), 3)
}

func TestResolve_Defaults(t *testing.T) {
	svc, session := newRollService(random.NewSeeded(8))
	out, err := svc.Resolve(context.Background(), RollRequest{Dice: "faced"})
	require.NoError(t, err)
	require.Equal(t, dice.DefaultRange, out.Result.Range)
	require.Len(t, out.Result.Values, 1)
	require.Equal(t, "Anonymous", out.Message.Author.Name)
	require.True(t, strings.HasPrefix(out.Message.Text, "Roll: Anonymous rolled 1d20"))
	require.True(t, session.IsMember("Anonymous"))
}

func TestResolve_InvalidRangeAppendsNothing(t *testing.T) {
	svc, session := newRollService(random.NewSeeded(8))
	_, err := svc.Resolve(context.Background(), RollRequest{Dice: "faced", Range: intPtr(0), Username: "Ana"})
	require.ErrorIs(t, err, dice.ErrInvalidRange)

	_, err = svc.Resolve(context.Background(), RollRequest{Dice: "faced", Range: intPtr(500), Username: "Ana"})
	require.ErrorIs(t, err, dice.ErrRangeTooLarge)

	_, err = svc.Resolve(context.Background(), RollRequest{Dice: "faced", Times: intPtr(51), Username: "Ana"})
	require.ErrorIs(t, err, dice.ErrTooManyRolls)

	require.Empty(t, session.History())
	require.False(t, session.IsMember("Ana"))
}

func TestResolve_CancelledContext(t *testing.T) {
	svc, session := newRollService(random.NewSeeded(8))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Resolve(ctx, RollRequest{Dice: "fate", Username: "Ana"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, session.History())
}

func TestSummary(t *testing.T) {
	res := dice.Result{Kind: dice.KindFaced, Range: 20, Values: []int{17}, Total: 17}
	require.Equal(t, "Attack: Ana rolled 1d20 [17] (total 17) - sword", Summary(" Attack ", "Ana", "sword", res))
	require.Equal(t, "Roll: Ana rolled 1d20 [17] (total 17)", Summary("", "Ana", "  ", res))
}
