package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukex/leadflow/pkg/delivery/dryrun"
	"github.com/dukex/leadflow/pkg/eventbus"
	"github.com/dukex/leadflow/pkg/events"
	"github.com/dukex/leadflow/pkg/log"
	"github.com/dukex/leadflow/pkg/persistence"
	"github.com/dukex/leadflow/pkg/persistence/file"
	"github.com/dukex/leadflow/pkg/protocol"
	"github.com/dukex/leadflow/pkg/registry"
	"github.com/dukex/leadflow/pkg/scheduler"
	"github.com/dukex/leadflow/pkg/workflow"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 11, 14, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)

	return nil
}

func (p *recordingPublisher) Types() []events.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()

	types := make([]events.EventType, len(p.events))
	for i, event := range p.events {
		types[i] = event.GetType()
	}

	return types
}

var noDeps = protocol.Dependencies{}

type testEnv struct {
	persistence persistence.Persistence
	clock       *testClock
	sender      *dryrun.Sender
	publisher   *recordingPublisher
	workflows   *Workflow
	enrollments *Enrollment
}

func newTestEnv(t *testing.T, deps protocol.Dependencies, opts ...EnrollmentOption) *testEnv {
	t.Helper()

	env := &testEnv{
		persistence: file.NewPersistence(t.TempDir()),
		clock:       newTestClock(),
		publisher:   &recordingPublisher{},
	}

	if deps.Email == nil {
		env.sender = dryrun.New(log.Discard())
		deps = protocol.Dependencies{Logger: log.Discard(), Email: env.sender, SMS: env.sender, Agent: env.sender}
	}

	reg := registry.NewRegistry(log.Discard())
	reg.RegisterDefaultNodes(deps)

	executor := workflow.NewExecutor(reg, log.Discard(), workflow.WithClock(env.clock.Now))
	chains := NewChainCache(time.Minute)
	sched := scheduler.New(env.persistence.ScheduleRepository(), log.Discard(), scheduler.WithClock(env.clock.Now))

	env.workflows = NewWorkflow(env.persistence, log.Discard(),
		WithWorkflowChainCache(chains),
		WithWorkflowPublisher(env.publisher),
		WithWorkflowClock(env.clock.Now),
	)

	base := []EnrollmentOption{
		WithChainCache(chains),
		WithPublisher(env.publisher),
		WithClock(env.clock.Now),
	}

	env.enrollments = NewEnrollment(env.persistence, executor, sched, log.Discard(), append(base, opts...)...)

	return env
}
