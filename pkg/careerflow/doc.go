/*
Package careerflow runs supervisor-routed, multi-agent career guidance
conversations.

# Overview

A conversation turn is a walk over a small directed graph. The Supervisor
node decides which worker acts next (ProfileAnalyzer, JobFitAnalyzer,
CareerAdvisor), workers hand control back to the Supervisor, and the
Counsellor closes the turn with one reply for the user. The graph engine
in this package is generic over the state type; the career guidance nodes
live in the agent subpackage.

# Graphs

	g := careerflow.NewGraph[State]().
	    AddNode("route", route).
	    AddNode("work", work).
	    AddConditionalEdge("route", func(ctx careerflow.Context, s State) string {
	        if s.Done {
	            return careerflow.END
	        }
	        return "work"
	    }, "work", careerflow.END).
	    AddEdge("work", "route").
	    SetEntry("route")

	compiled, err := g.Compile()
	if err != nil {
	    log.Fatal(err)
	}
	result, err := compiled.Run(careerflow.NewContext(ctx), State{})

Routers may declare their possible targets; Compile checks them and the
executor rejects anything undeclared. Loops are bounded by
WithMaxIterations (default 25 node executions per run).

# Errors

Node errors are wrapped in *NodeError, panics are recovered into
*PanicError with a stack trace, and an exhausted iteration budget yields
*MaxIterationsError. On error Run returns the state at the point of
failure.

# Observability

	result, err := compiled.Run(ctx, state,
	    careerflow.WithObservabilityLogger(logger),
	    careerflow.WithMetrics(true),
	    careerflow.WithTracing(true),
	    careerflow.WithRunID("conv-42/3"))

# Subpackages

  - agent: supervisor, workers, counsellor and the conversation orchestrator
  - conversation: transcript, completion flags and persisted state
  - llm: LLM client interface and implementations
  - tools: web search and profile scraping adapters
  - store: conversation persistence (memory, SQLite)
  - config: configuration loading
  - errors: error categorization and retry
  - observability: logging, metrics and tracing helpers
  - registry: concurrent keyed registry
*/
package careerflow
