package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tracked task.
type Status string

const (
	// StatusPending means the task is accepted but not yet running.
	StatusPending Status = "pending"
	// StatusRunning means the session is crawling.
	StatusRunning Status = "running"
	// StatusDone means the session finished and wrote its manifest.
	StatusDone Status = "done"
	// StatusFailed means the session returned an error, including
	// cancellation.
	StatusFailed Status = "failed"
)

// Task is a point-in-time view of one background session.
type Task struct {
	ID         string    `json:"id"`
	StartURL   string    `json:"startUrl"` //nolint:tagliatelle // matches the manifest schema
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`            //nolint:tagliatelle // matches the manifest schema
	StartedAt  time.Time `json:"startedAt,omitzero"`   //nolint:tagliatelle // matches the manifest schema
	FinishedAt time.Time `json:"finishedAt,omitzero"`  //nolint:tagliatelle // matches the manifest schema
	Summary    *Summary  `json:"summary,omitempty"`
}

type trackedTask struct {
	task   Task
	cancel context.CancelFunc
}

// Tracker runs sessions in the background and remembers their outcomes.
// Finished tasks stay queryable for the tracker's lifetime; it holds
// task metadata, not page content, so that is cheap.
type Tracker struct {
	mu     sync.Mutex
	tasks  map[string]*trackedTask
	order  []string
	wg     sync.WaitGroup
	logger *slog.Logger
}

// NewTracker returns an empty tracker.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}

	return &Tracker{
		tasks:  make(map[string]*trackedTask),
		logger: logger,
	}
}

// Launch starts the session in the background and returns the accepted
// task immediately. The session stops when it finishes, when Cancel is
// called with the task id, or when ctx is done.
func (t *Tracker) Launch(ctx context.Context, sess *Session) Task {
	taskCtx, cancel := context.WithCancel(ctx)

	tracked := &trackedTask{
		task: Task{
			ID:        uuid.NewString(),
			StartURL:  sess.startURL.String(),
			Status:    StatusPending,
			CreatedAt: time.Now().UTC(),
		},
		cancel: cancel,
	}

	t.mu.Lock()
	t.tasks[tracked.task.ID] = tracked
	t.order = append(t.order, tracked.task.ID)
	accepted := tracked.task
	t.mu.Unlock()

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer cancel()

		t.start(accepted.ID)
		summary, err := sess.Run(taskCtx)
		t.finish(accepted.ID, summary, err)
	}()

	return accepted
}

// Get returns the task with the given id.
func (t *Tracker) Get(id string) (Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.tasks[id]
	if !ok {
		return Task{}, false
	}

	return tracked.task, true
}

// Tasks returns every known task, newest first.
func (t *Tracker) Tasks() []Task {
	t.mu.Lock()
	defer t.mu.Unlock()

	tasks := make([]Task, 0, len(t.order))
	for i := len(t.order) - 1; i >= 0; i-- {
		tasks = append(tasks, t.tasks[t.order[i]].task)
	}

	return tasks
}

// Cancel stops the task with the given id. It reports whether the task
// exists and was still pending or running.
func (t *Tracker) Cancel(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked, ok := t.tasks[id]
	if !ok {
		return false
	}
	if tracked.task.Status != StatusPending && tracked.task.Status != StatusRunning {
		return false
	}
	tracked.cancel()

	return true
}

// Wait blocks until every launched task has finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) start(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := t.tasks[id]
	tracked.task.Status = StatusRunning
	tracked.task.StartedAt = time.Now().UTC()
}

func (t *Tracker) finish(id string, summary *Summary, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tracked := t.tasks[id]
	tracked.task.FinishedAt = time.Now().UTC()
	if err != nil {
		tracked.task.Status = StatusFailed
		tracked.task.Error = err.Error()
		t.logger.Warn("archive task failed", "task", id, "url", tracked.task.StartURL, "error", err)

		return
	}
	tracked.task.Status = StatusDone
	tracked.task.Summary = summary
}
