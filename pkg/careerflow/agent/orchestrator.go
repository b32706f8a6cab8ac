package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/conversation"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/observability"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/registry"
	"github.com/gamedevCloudy/career-guide-agent/pkg/careerflow/store"
)

// FallbackReply is returned when a turn produced no assistant message.
const FallbackReply = "I'm ready to help you with your career goals. Could you provide more details?"

const turnFailedReply = "I'm sorry, something went wrong while working on your request. " +
	"Your progress so far has been kept, so please try again."

// Input errors.
var (
	ErrEmptyInput          = errors.New("agent: empty user input")
	ErrEmptyConversationID = errors.New("agent: empty conversation id")
)

// Orchestrator runs one graph turn per user message and persists the
// conversation afterwards. It is safe for concurrent use; turns for the
// same conversation are serialized.
type Orchestrator struct {
	store store.Store
	graph *careerflow.CompiledGraph[conversation.State]
	deps  Deps
	opts  options
	locks *registry.Registry[string, *turnLock]
}

// turnLock serializes turns for one conversation. refs counts holders and
// waiters and is only touched inside Registry.Update.
type turnLock struct {
	mu   sync.Mutex
	refs int
}

// NewOrchestrator compiles the turn graph over deps.
func NewOrchestrator(st store.Store, deps Deps, opts ...Option) (*Orchestrator, error) {
	if st == nil {
		return nil, errors.New("agent: store is required")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	g, err := BuildGraph(deps, opts...)
	if err != nil {
		return nil, fmt.Errorf("build graph: %w", err)
	}
	return &Orchestrator{
		store: st,
		graph: g,
		deps:  deps,
		opts:  o,
		locks: registry.New[string, *turnLock](),
	}, nil
}

// NewConversationID returns a fresh conversation identifier.
func NewConversationID() string {
	return uuid.New().String()
}

// Step handles one user message for conversationID and returns the reply.
//
// Collaborator failures never surface as errors: they become transcript
// messages. Step fails only for empty arguments, store errors, or
// cancellation of ctx, in which case nothing is persisted.
func (o *Orchestrator) Step(ctx context.Context, userInput, conversationID string) (string, error) {
	userInput = strings.TrimSpace(userInput)
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return "", ErrEmptyConversationID
	}
	if userInput == "" {
		return "", ErrEmptyInput
	}

	unlock := o.lock(conversationID)
	defer unlock()

	state, err := o.store.Get(ctx, conversationID)
	if errors.Is(err, store.ErrNotFound) {
		state = conversation.New(conversationID)
	} else if err != nil {
		return "", fmt.Errorf("load conversation %s: %w", conversationID, err)
	}

	state.BeginTurn(userInput)
	runID := fmt.Sprintf("%s/%d", conversationID, state.Turn)
	logger := observability.EnrichLogger(o.opts.logger, conversationID, state.Turn)

	runOpts := []careerflow.RunOption{
		careerflow.WithRunID(runID),
		careerflow.WithGraphName(GraphName),
		careerflow.WithObservabilityLogger(logger),
		careerflow.WithMetricsRecorder(o.deps.Metrics),
		careerflow.WithTracing(o.opts.tracing),
	}
	if o.opts.maxIterations > 0 {
		runOpts = append(runOpts, careerflow.WithMaxIterations(o.opts.maxIterations))
	}

	fctx := careerflow.NewContext(ctx, careerflow.WithLogger(logger), careerflow.WithContextRunID(runID))
	result, err := o.graph.Run(fctx, *state, runOpts...)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		logger.Error("turn aborted", "error", err, "last_node", careerflow.LastNode(err))
		result.Append(conversation.AssistantMessage(string(conversation.NodeCounsellor), conversation.KindFailure, turnFailedReply))
	}

	if err := o.store.Put(ctx, conversationID, &result); err != nil {
		return "", fmt.Errorf("save conversation %s: %w", conversationID, err)
	}

	if m, ok := result.LatestAssistant(); ok && result.RepliedThisTurn() {
		return m.Content, nil
	}
	return FallbackReply, nil
}

// AnalyzeRequest composes the canonical analysis request for a profile
// URL and target role.
func AnalyzeRequest(profileURL, targetRole string) string {
	return fmt.Sprintf("Please analyze my LinkedIn profile: %s and assess my fit for the target role: '%s'. "+
		"Provide career guidance based on this.", strings.TrimSpace(profileURL), strings.TrimSpace(targetRole))
}

// Analyze runs a full analysis turn for profileURL and targetRole.
func (o *Orchestrator) Analyze(ctx context.Context, conversationID, profileURL, targetRole string) (string, error) {
	return o.Step(ctx, AnalyzeRequest(profileURL, targetRole), conversationID)
}

// Transcript returns the stored state of a conversation.
func (o *Orchestrator) Transcript(ctx context.Context, conversationID string) (*conversation.State, error) {
	return o.store.Get(ctx, conversationID)
}

// Conversations lists stored conversations.
func (o *Orchestrator) Conversations(ctx context.Context) ([]store.Summary, error) {
	return o.store.List(ctx)
}

// Forget deletes a stored conversation.
func (o *Orchestrator) Forget(ctx context.Context, conversationID string) error {
	unlock := o.lock(conversationID)
	defer unlock()
	return o.store.Delete(ctx, conversationID)
}

// lock acquires the turn lock for id. The entry is dropped once nobody
// holds or waits for it, so the table only holds active conversations.
func (o *Orchestrator) lock(id string) func() {
	l := o.locks.Update(id, func(l *turnLock, ok bool) (*turnLock, bool) {
		if !ok {
			l = &turnLock{}
		}
		l.refs++
		return l, true
	})
	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		o.locks.Update(id, func(l *turnLock, _ bool) (*turnLock, bool) {
			l.refs--
			return l, l.refs > 0
		})
	}
}
