package careerflow

import (
	"context"
)

// Counter is a simple state for loop tests.
type Counter struct {
	Value int
}

// State records which nodes ran.
type State struct {
	Progress []string
	GoLeft   bool
	Done     bool
}

func increment(ctx Context, s Counter) (Counter, error) {
	s.Value++
	return s, nil
}

func makeTrackingNode(name string, tracker *[]string) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		*tracker = append(*tracker, name)
		s.Progress = append(s.Progress, name)
		return s, nil
	}
}

func makeFailingNode(err error) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		return s, err
	}
}

func makePanicNode(value any) NodeFunc[State] {
	return func(ctx Context, s State) (State, error) {
		panic(value)
	}
}

func testCtx() Context {
	return NewContext(context.Background())
}
