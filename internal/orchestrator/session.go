// Package orchestrator sequences agent turns for a session and turns their
// progress into an ordered event stream.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"engram/internal/agent"
	"engram/internal/stream"
	"engram/internal/trace"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// ErrNoAgents rejects a collaboration request without participants.
var ErrNoAgents = errors.New("agent_types must be a non-empty list")

var errAlreadyRun = errors.New("orchestrator: session already run")

// AgentProvider resolves an agent type to a runnable agent.
type AgentProvider interface {
	Build(agentType string) (agent.Agent, error)
}

// ContextProvider supplies the shared company context block. An empty string
// is valid.
type ContextProvider interface {
	LoadContext(ctx context.Context) (string, error)
}

type Mode string

const (
	ModeSingle        Mode = "single"
	ModeCollaboration Mode = "collaboration"
)

type Orchestrator struct {
	agents  AgentProvider
	catalog *agent.Catalog
	context ContextProvider
}

// New returns an orchestrator. contextProvider may be nil.
func New(agents AgentProvider, catalog *agent.Catalog, contextProvider ContextProvider) *Orchestrator {
	return &Orchestrator{agents: agents, catalog: catalog, context: contextProvider}
}

// NormalizeAgentType trims and lower-cases a requested agent type.
func NormalizeAgentType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// NewSingle validates agentType and returns a one-turn session. Nothing is
// started until Run.
func (o *Orchestrator) NewSingle(agentType, message string) (*Session, error) {
	agentType = NormalizeAgentType(agentType)
	if err := o.catalog.Validate(agentType); err != nil {
		return nil, err
	}
	return o.newSession(ModeSingle, message, []string{agentType}), nil
}

// NewCollaboration validates every agent type and returns a session with one
// turn per type, in order. Nothing is started until Run.
func (o *Orchestrator) NewCollaboration(goal string, agentTypes []string) (*Session, error) {
	if len(agentTypes) == 0 {
		return nil, ErrNoAgents
	}
	types := make([]string, len(agentTypes))
	for i, t := range agentTypes {
		types[i] = NormalizeAgentType(t)
	}
	if err := o.catalog.Validate(types...); err != nil {
		return nil, err
	}
	return o.newSession(ModeCollaboration, goal, types), nil
}

func (o *Orchestrator) newSession(mode Mode, goal string, types []string) *Session {
	s := &Session{
		ID:   uuid.NewString(),
		Mode: mode,
		Goal: goal,
		o:    o,
	}
	for i, t := range types {
		meta, _ := o.catalog.Meta(t)
		s.Turns = append(s.Turns, &Turn{
			AgentType: t,
			Meta:      meta,
			Position:  i,
			Total:     len(types),
		})
	}
	return s
}

// Session is one request's ordered sequence of turns sharing a goal. Its
// turn list is fixed at construction.
type Session struct {
	ID    string
	Mode  Mode
	Goal  string
	Turns []*Turn

	o   *Orchestrator
	ran atomic.Bool
}

// Participants returns the display metadata of every turn, in order.
func (s *Session) Participants() []agent.Meta {
	out := make([]agent.Meta, len(s.Turns))
	for i, t := range s.Turns {
		out[i] = t.Meta
	}
	return out
}

// Opening returns the first lifecycle event of the session. Publishers send
// it before Run starts.
func (s *Session) Opening() agent.Event {
	if s.Mode == ModeSingle {
		return agent.AgentStarted(s.Turns[0].Meta)
	}
	return agent.SessionStart(s.ID, s.Participants())
}

// Result returns the last completed turn's result.
func (s *Session) Result() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].State == TurnComplete {
			return s.Turns[i].Result
		}
	}
	return ""
}

// Run executes the turns sequentially, pushing events to ch. It stops at the
// first failed turn and returns its error. ch is always closed on return, so
// the consumer sees exactly one sentinel. Run may be called once.
func (s *Session) Run(ctx context.Context, ch *stream.Channel) error {
	defer ch.Close()
	if !s.ran.CompareAndSwap(false, true) {
		return errAlreadyRun
	}

	ctx = agent.ContextWithSessionID(ctx, s.ID)
	ctx, span := trace.Tracer().Start(ctx, "orchestrator.session",
		oteltrace.WithAttributes(
			attribute.String("engram.session.id", s.ID),
			attribute.String("engram.session.mode", string(s.Mode)),
			attribute.Int("engram.session.agents", len(s.Turns)),
		),
	)
	defer span.End()

	slog.Info("orchestrator: session started", "session_id", s.ID, "mode", s.Mode, "agents", len(s.Turns))

	companyContext := s.loadContext(ctx)
	if s.Mode == ModeSingle {
		return s.runSingle(ctx, ch, companyContext)
	}
	return s.runCollaboration(ctx, ch, companyContext)
}

// Collect runs the session without a live consumer and returns the final
// text. Events are discarded as they are produced.
func (s *Session) Collect(ctx context.Context) (string, error) {
	if err := s.Run(ctx, stream.Discard()); err != nil {
		return "", err
	}
	return s.Result(), nil
}

func (s *Session) runSingle(ctx context.Context, ch *stream.Channel, companyContext string) error {
	turn := s.Turns[0]
	task, err := BuildTask(turn.AgentType, s.Goal, companyContext)
	if err != nil {
		return s.fail(turn, ch, err)
	}
	turn.Task = task

	result, err := s.runTurn(ctx, turn, ch)
	if err != nil {
		return err
	}
	ch.Push(agent.FinalAnswer(turn.AgentType, result))
	return nil
}

func (s *Session) runCollaboration(ctx context.Context, ch *stream.Channel, companyContext string) error {
	var prior []PriorOutput
	for _, turn := range s.Turns {
		ch.Push(agent.AgentStart(turn.Meta, turn.Position, turn.Total))

		turn.Task = BuildCollaborationTask(CollabTaskInput{
			AgentType:      turn.AgentType,
			Goal:           s.Goal,
			Position:       turn.Position,
			Total:          turn.Total,
			CompanyContext: companyContext,
			Prior:          prior,
		})

		result, err := s.runTurn(ctx, turn, ch)
		if err != nil {
			return err
		}

		prior = append(prior, PriorOutput{AgentType: turn.AgentType, Name: turn.Meta.Name, Text: result})
		ch.Push(agent.AgentComplete(turn.Meta, turn.Position, turn.Total))
	}

	ch.Push(agent.SessionComplete(len(s.Turns)))
	slog.Info("orchestrator: session complete", "session_id", s.ID, "agents", len(s.Turns))
	return nil
}

func (s *Session) runTurn(ctx context.Context, turn *Turn, ch *stream.Channel) (string, error) {
	ag, err := s.o.agents.Build(turn.AgentType)
	if err != nil {
		return "", s.fail(turn, ch, fmt.Errorf("build agent %s: %w", turn.AgentType, err))
	}
	return RunTurn(ctx, turn, ag, ch)
}

// fail marks a turn failed before it could run and reports it like any
// execution error.
func (s *Session) fail(turn *Turn, ch *stream.Channel, err error) error {
	turn.State, turn.Err = TurnFailed, err
	ch.Push(agent.ErrorEvent(err.Error()).WithAgent(turn.AgentType))
	slog.Warn("orchestrator: turn failed", "session_id", s.ID, "agent", turn.AgentType, "error", err)
	return err
}

func (s *Session) loadContext(ctx context.Context) string {
	if s.o.context == nil {
		return ""
	}
	text, err := s.o.context.LoadContext(ctx)
	if err != nil {
		slog.Warn("orchestrator: company context unavailable", "session_id", s.ID, "error", err)
		return ""
	}
	return text
}
