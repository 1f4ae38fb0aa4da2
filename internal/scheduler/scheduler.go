package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrClosed          = errors.New("scheduler: group closed")
	ErrInvalidInterval = errors.New("scheduler: interval must be positive")
)

// Group owns a set of periodic tasks so a component can tear all of them
// down at once.
type Group struct {
	mu     sync.Mutex
	tasks  map[*Task]struct{}
	closed bool
	logger zerolog.Logger
}

func NewGroup(logger zerolog.Logger) *Group {
	return &Group{
		tasks:  make(map[*Task]struct{}),
		logger: logger,
	}
}

// Task is one periodic job started by Group.Every.
type Task struct {
	group  *Group
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Every runs fn every interval until the task or its group is stopped.
// The first run happens one interval after the call.
func (g *Group) Every(interval time.Duration, fn func(now time.Time)) (*Task, error) {
	if interval <= 0 {
		return nil, ErrInvalidInterval
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return nil, ErrClosed
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{
		group:  g,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	g.tasks[t] = struct{}{}

	go t.loop(ctx, interval, fn)
	return t, nil
}

func (t *Task) loop(ctx context.Context, interval time.Duration, fn func(time.Time)) {
	defer close(t.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// A tick and a stop can be ready together; stop wins.
			if ctx.Err() != nil {
				return
			}
			t.run(now, fn)
		}
	}
}

func (t *Task) run(now time.Time, fn func(time.Time)) {
	defer func() {
		if r := recover(); r != nil {
			t.group.logger.Error().Interface("panic", r).Msg("Scheduled task panicked")
		}
	}()
	fn(now)
}

// Stop cancels the task and waits for an in-flight run to return. No run
// starts after Stop returns. It must not be called from the task's own fn.
func (t *Task) Stop() {
	t.once.Do(func() {
		t.cancel()
		t.group.mu.Lock()
		delete(t.group.tasks, t)
		t.group.mu.Unlock()
	})
	<-t.done
}

// Close stops every task in the group. Every fails with ErrClosed afterwards.
func (g *Group) Close() {
	g.mu.Lock()
	g.closed = true
	tasks := make([]*Task, 0, len(g.tasks))
	for t := range g.tasks {
		tasks = append(tasks, t)
	}
	g.mu.Unlock()

	for _, t := range tasks {
		t.Stop()
	}
}

// Len reports how many tasks are still registered.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.tasks)
}
