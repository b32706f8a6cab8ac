package careerflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_LinearFlow(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc1", increment).
		AddNode("inc2", increment).
		AddNode("inc3", increment).
		AddEdge("inc1", "inc2").
		AddEdge("inc2", "inc3").
		AddEdge("inc3", END).
		SetEntry("inc1").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{})

	require.NoError(t, err)
	assert.Equal(t, 3, result.Value)
}

func TestRun_ConditionalEdge(t *testing.T) {
	for _, goLeft := range []bool{true, false} {
		var executed []string
		compiled, err := NewGraph[State]().
			AddNode("start", makeTrackingNode("start", &executed)).
			AddNode("left", makeTrackingNode("left", &executed)).
			AddNode("right", makeTrackingNode("right", &executed)).
			AddConditionalEdge("start", func(ctx Context, s State) string {
				if s.GoLeft {
					return "left"
				}
				return "right"
			}, "left", "right").
			AddEdge("left", END).
			AddEdge("right", END).
			SetEntry("start").
			Compile()
		require.NoError(t, err)

		_, err = compiled.Run(testCtx(), State{GoLeft: goLeft})
		require.NoError(t, err)

		want := "right"
		if goLeft {
			want = "left"
		}
		assert.Equal(t, []string{"start", want}, executed)
	}
}

func TestRun_LoopUntilRouterEnds(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddConditionalEdge("inc", func(ctx Context, s Counter) string {
			if s.Value >= 5 {
				return END
			}
			return "inc"
		}).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{})
	require.NoError(t, err)
	assert.Equal(t, 5, result.Value)
}

func TestRun_MaxIterations(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddConditionalEdge("inc", func(Context, Counter) string { return "inc" }).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), Counter{}, WithMaxIterations(4))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMaxIterations)
	var maxErr *MaxIterationsError
	require.True(t, errors.As(err, &maxErr))
	assert.Equal(t, 4, maxErr.Max)
	assert.Equal(t, "inc", maxErr.LastNodeID)
	assert.Equal(t, 4, result.Value, "state at the point of failure is returned")
}

func TestRun_NodeError(t *testing.T) {
	boom := errors.New("boom")
	var tracker []string
	compiled, err := NewGraph[State]().
		AddNode("ok", makeTrackingNode("ok", &tracker)).
		AddNode("fail", makeFailingNode(boom)).
		AddEdge("ok", "fail").
		AddEdge("fail", END).
		SetEntry("ok").
		Compile()
	require.NoError(t, err)

	result, err := compiled.Run(testCtx(), State{})

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var nodeErr *NodeError
	require.True(t, errors.As(err, &nodeErr))
	assert.Equal(t, "fail", nodeErr.NodeID)
	assert.Equal(t, "fail", LastNode(err))
	assert.Equal(t, []string{"ok"}, result.Progress)
}

func TestRun_PanicRecovered(t *testing.T) {
	compiled, err := NewGraph[State]().
		AddNode("panic", makePanicNode("kaboom")).
		AddEdge("panic", END).
		SetEntry("panic").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(testCtx(), State{})

	var panicErr *PanicError
	require.True(t, errors.As(err, &panicErr))
	assert.Equal(t, "panic", panicErr.NodeID)
	assert.Equal(t, "kaboom", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
}

func TestRun_RouterErrors(t *testing.T) {
	tests := []struct {
		name     string
		returned string
	}{
		{"empty", ""},
		{"unknown", "ghost"},
		{"undeclared", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tracker []string
			compiled, err := NewGraph[State]().
				AddNode("start", makeTrackingNode("start", &tracker)).
				AddNode("ok", makeTrackingNode("ok", &tracker)).
				AddNode("other", makeTrackingNode("other", &tracker)).
				AddConditionalEdge("start", func(Context, State) string { return tt.returned }, "ok", END).
				AddEdge("ok", END).
				AddEdge("other", END).
				SetEntry("start").
				Compile()
			require.NoError(t, err)

			_, err = compiled.Run(testCtx(), State{})

			var routerErr *RouterError
			require.True(t, errors.As(err, &routerErr))
			assert.Equal(t, "start", routerErr.FromNode)
			assert.Equal(t, tt.returned, routerErr.Returned)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddEdge("inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := compiled.Run(NewContext(ctx), Counter{})

	assert.ErrorIs(t, err, context.Canceled)
	var cancelErr *CancellationError
	require.True(t, errors.As(err, &cancelErr))
	assert.Equal(t, "inc", cancelErr.NodeID)
	assert.Equal(t, 0, result.Value)
}

func TestRun_NilContext(t *testing.T) {
	compiled, err := NewGraph[Counter]().
		AddNode("inc", increment).
		AddEdge("inc", END).
		SetEntry("inc").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(nil, Counter{})
	assert.ErrorIs(t, err, ErrNilContext)
}

func TestRun_NodeContextCarriesIDs(t *testing.T) {
	var seenRun, seenNode string
	compiled, err := NewGraph[Counter]().
		AddNode("inspect", func(ctx Context, s Counter) (Counter, error) {
			seenRun = ctx.RunID()
			seenNode = ctx.NodeID()
			return s, nil
		}).
		AddEdge("inspect", END).
		SetEntry("inspect").
		Compile()
	require.NoError(t, err)

	_, err = compiled.Run(NewContext(context.Background(), WithContextRunID("conv-1/1")), Counter{})

	require.NoError(t, err)
	assert.Equal(t, "conv-1/1", seenRun)
	assert.Equal(t, "inspect", seenNode)
}
