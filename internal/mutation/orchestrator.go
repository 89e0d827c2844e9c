// Package mutation applies user edits to the task cache optimistically,
// confirms them against the backend and rolls them back when the backend
// rejects them.
package mutation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/tgienger/taskdeck/internal/api"
	"github.com/tgienger/taskdeck/internal/cache"
	"github.com/tgienger/taskdeck/internal/logging"
	"github.com/tgienger/taskdeck/internal/models"
	"github.com/tgienger/taskdeck/internal/wire"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultNoticeTTL = 3 * time.Second

	// fallbackAuthor is shown on a pending comment when no user is known
	fallbackAuthor = "You"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommentNotFound = errors.New("comment not found")
	// ErrCommentPending means the comment has no server id yet and cannot be deleted
	ErrCommentPending = errors.New("comment not saved yet")
)

// Backend is the subset of the task service the orchestrator writes through
type Backend interface {
	Create(ctx context.Context, body wire.TaskPatch) (models.Task, error)
	Update(ctx context.Context, id string, body wire.TaskPatch) (models.Task, error)
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, id, text string) (models.Task, error)
	DeleteComment(ctx context.Context, id, commentID string) (models.Task, error)
}

// Identity reports the signed-in user
type Identity interface {
	CurrentUser() (models.User, bool)
}

// Orchestrator runs mutations against a Store and a Backend
type Orchestrator struct {
	store    *cache.Store
	backend  Backend
	identity Identity
	notices  *Bus
	locks    *taskLocks
	deleting *inFlight

	timeout   time.Duration
	noticeTTL time.Duration
	now       func() time.Time

	log       *slog.Logger
	mutations metric.Int64Counter
	rollbacks metric.Int64Counter
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithIdentity sets the source of the current user
func WithIdentity(id Identity) Option {
	return func(o *Orchestrator) { o.identity = id }
}

// WithTimeout bounds each backend call
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithNoticeTTL sets how long notices stay visible
func WithNoticeTTL(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.noticeTTL = d
		}
	}
}

// WithBus publishes notices on an existing bus
func WithBus(b *Bus) Option {
	return func(o *Orchestrator) { o.notices = b }
}

// WithClock overrides the clock used for optimistic timestamps
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator writing to store and backend
func New(store *cache.Store, backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:     store,
		backend:   backend,
		notices:   NewBus(),
		locks:     newTaskLocks(),
		deleting:  newInFlight(),
		timeout:   DefaultTimeout,
		noticeTTL: DefaultNoticeTTL,
		now:       time.Now,
		log:       logging.Logger("mutation"),
		mutations: logging.Counter("taskdeck.mutations", "Mutations by operation and outcome", "{mutation}"),
		rollbacks: logging.Counter("taskdeck.rollbacks", "Optimistic changes reverted", "{rollback}"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Notices returns the bus notices are published on
func (o *Orchestrator) Notices() *Bus {
	return o.notices
}

// Create sends a new task to the backend and caches the saved record. Nothing
// is cached before the server assigns an id, and failures are not retried.
func (o *Orchestrator) Create(ctx context.Context, draft models.Task) (models.Task, error) {
	opID := o.start(OpCreate, "")

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	saved, err := o.backend.Create(callCtx, wire.DraftPatch(draft))
	cancel()
	if err != nil {
		return models.Task{}, o.failed(ctx, opID, OpCreate, "", err, "Failed to create task")
	}

	if !o.store.Insert(saved) {
		// a refresh landed first
		o.store.Patch(saved.ID, models.PatchFrom(saved))
	}
	o.succeeded(ctx, opID, OpCreate, saved.ID, "Task created")
	return saved, nil
}

// Update applies changes locally, then confirms them with the backend
func (o *Orchestrator) Update(ctx context.Context, id string, changes models.TaskPatch) error {
	return o.update(ctx, OpUpdate, id, changes, "Task updated", "Failed to update task")
}

// MarkDone sets the task's status to completed
func (o *Orchestrator) MarkDone(ctx context.Context, id string) error {
	done := models.StatusCompleted
	return o.update(ctx, OpMarkDone, id, models.TaskPatch{Status: &done},
		"Task was successfully marked as done", "Failed to mark task as done")
}

func (o *Orchestrator) update(ctx context.Context, op Op, id string, changes models.TaskPatch, okMsg, failMsg string) error {
	opID := o.start(op, id)

	release, err := o.locks.acquire(ctx, id)
	if err != nil {
		return o.failed(ctx, opID, op, id, err, failMsg)
	}
	defer release()

	snapshot, ok := o.store.Get(id)
	if !ok {
		return o.failed(ctx, opID, op, id, ErrTaskNotFound, failMsg)
	}
	gen := o.store.Generation()

	optimistic := changes
	now := o.now()
	optimistic.UpdatedAt = &now
	o.store.Patch(id, optimistic)

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	saved, err := o.backend.Update(callCtx, id, wire.ToWire(changes))
	cancel()
	if err != nil {
		o.rollback(ctx, op, gen, func() { o.store.Patch(id, models.PatchFrom(snapshot)) })
		return o.failed(ctx, opID, op, id, err, failMsg)
	}

	o.store.Patch(id, models.PatchFrom(saved))
	o.succeeded(ctx, opID, op, id, okMsg)
	return nil
}

// Delete removes the task locally, then on the backend. On failure the task
// is put back where it was and the error is returned.
func (o *Orchestrator) Delete(ctx context.Context, id string) error {
	const failMsg = "Failed to delete task"
	opID := o.start(OpDelete, id)

	release, err := o.locks.acquire(ctx, id)
	if err != nil {
		return o.failed(ctx, opID, OpDelete, id, err, failMsg)
	}
	defer release()

	gen := o.store.Generation()
	snapshot, index, ok := o.store.Remove(id)
	if !ok {
		return o.failed(ctx, opID, OpDelete, id, ErrTaskNotFound, failMsg)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	err = o.backend.Delete(callCtx, id)
	cancel()
	if err != nil {
		o.rollback(ctx, OpDelete, gen, func() { o.store.InsertAt(index, snapshot) })
		return o.failed(ctx, opID, OpDelete, id, err, failMsg)
	}
	if o.store.Generation() != gen {
		// a reload fetched before the delete landed may have brought it back
		o.store.Remove(id)
	}

	o.succeeded(ctx, opID, OpDelete, id, "Task was successfully deleted")
	return nil
}

// AddComment shows a pending comment right away and replaces the comment
// list with the server's once confirmed. Blank text is ignored.
func (o *Orchestrator) AddComment(ctx context.Context, taskID, text string) error {
	const failMsg = "Failed to add comment"
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	opID := o.start(OpAddComment, taskID)

	release, err := o.locks.acquire(ctx, taskID)
	if err != nil {
		return o.failed(ctx, opID, OpAddComment, taskID, err, failMsg)
	}
	defer release()

	task, ok := o.store.Get(taskID)
	if !ok {
		return o.failed(ctx, opID, OpAddComment, taskID, ErrTaskNotFound, failMsg)
	}
	gen := o.store.Generation()
	snapshot := task.Comments

	now := o.now()
	pending := append(models.CloneComments(snapshot), models.Comment{
		Author:    o.author(),
		Text:      text,
		CreatedAt: &now,
	})
	o.store.Patch(taskID, models.TaskPatch{Comments: &pending})

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	saved, err := o.backend.AddComment(callCtx, taskID, text)
	cancel()
	if err != nil {
		o.rollback(ctx, OpAddComment, gen, func() { o.store.Patch(taskID, models.TaskPatch{Comments: &snapshot}) })
		return o.failed(ctx, opID, OpAddComment, taskID, err, failMsg)
	}

	o.store.Patch(taskID, confirmedComments(saved))
	o.succeeded(ctx, opID, OpAddComment, taskID, "Comment added")
	return nil
}

// DeleteComment removes the comment at index. The comment is resolved to its
// id when the call is made.
func (o *Orchestrator) DeleteComment(ctx context.Context, taskID string, index int) error {
	task, ok := o.store.Get(taskID)
	if !ok {
		return ErrTaskNotFound
	}
	if index < 0 || index >= len(task.Comments) {
		return ErrCommentNotFound
	}
	comment := task.Comments[index]
	if comment.Pending() {
		return ErrCommentPending
	}
	return o.DeleteCommentByID(ctx, taskID, comment.ID)
}

// DeleteCommentByID removes a confirmed comment. A second delete of the same
// comment while the first is still running returns nil without reaching the
// backend.
func (o *Orchestrator) DeleteCommentByID(ctx context.Context, taskID, commentID string) error {
	const failMsg = "Failed to delete comment"
	if commentID == "" {
		return ErrCommentPending
	}

	key := taskID + "/" + commentID
	if !o.deleting.begin(key) {
		o.log.Debug("comment delete already running", "task", taskID, "comment", commentID)
		return nil
	}
	defer o.deleting.end(key)

	opID := o.start(OpDeleteComment, taskID)

	release, err := o.locks.acquire(ctx, taskID)
	if err != nil {
		return o.failed(ctx, opID, OpDeleteComment, taskID, err, failMsg)
	}
	defer release()

	task, ok := o.store.Get(taskID)
	if !ok {
		return o.failed(ctx, opID, OpDeleteComment, taskID, ErrTaskNotFound, failMsg)
	}
	gen := o.store.Generation()
	snapshot := task.Comments

	remaining := make([]models.Comment, 0, len(snapshot))
	found := false
	for _, c := range snapshot {
		if c.ID == commentID {
			found = true
			continue
		}
		remaining = append(remaining, c)
	}
	if !found {
		return o.failed(ctx, opID, OpDeleteComment, taskID, ErrCommentNotFound, failMsg)
	}
	o.store.Patch(taskID, models.TaskPatch{Comments: &remaining})

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	saved, err := o.backend.DeleteComment(callCtx, taskID, commentID)
	cancel()
	if err != nil {
		o.rollback(ctx, OpDeleteComment, gen, func() { o.store.Patch(taskID, models.TaskPatch{Comments: &snapshot}) })
		return o.failed(ctx, opID, OpDeleteComment, taskID, err, failMsg)
	}

	o.store.Patch(taskID, confirmedComments(saved))
	o.succeeded(ctx, opID, OpDeleteComment, taskID, "Comment deleted")
	return nil
}

func confirmedComments(saved models.Task) models.TaskPatch {
	comments := models.CloneComments(saved.Comments)
	if comments == nil {
		comments = []models.Comment{}
	}
	updated := saved.UpdatedAt
	return models.TaskPatch{Comments: &comments, UpdatedAt: &updated}
}

func (o *Orchestrator) author() string {
	if o.identity != nil {
		if u, ok := o.identity.CurrentUser(); ok && u.DisplayName() != "" {
			return u.DisplayName()
		}
	}
	return fallbackAuthor
}

// rollback restores a snapshot unless the store was replaced since it was taken
func (o *Orchestrator) rollback(ctx context.Context, op Op, gen uint64, restore func()) {
	if o.store.Generation() != gen {
		o.log.Info("rollback skipped, cache was reloaded", "op", op)
		return
	}
	restore()
	o.rollbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("op", string(op))))
}

func (o *Orchestrator) start(op Op, taskID string) string {
	opID := uuid.NewString()
	o.notices.Publish(Notice{OpID: opID, Op: op, TaskID: taskID, Phase: PhaseInFlight})
	return opID
}

func (o *Orchestrator) succeeded(ctx context.Context, opID string, op Op, taskID, msg string) {
	o.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("outcome", "ok")))
	o.notices.Publish(Notice{OpID: opID, Op: op, TaskID: taskID, Phase: PhaseSucceeded, Message: msg, TTL: o.noticeTTL})
}

// failed reports a failure and returns the error for the caller
func (o *Orchestrator) failed(ctx context.Context, opID string, op Op, taskID string, err error, fallback string) error {
	o.log.Warn("mutation failed", "op", op, "task", taskID, "error", err)
	o.mutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("outcome", "error")))
	o.notices.Publish(Notice{
		OpID:    opID,
		Op:      op,
		TaskID:  taskID,
		Phase:   PhaseFailed,
		Message: api.Message(err, fallback),
		TTL:     o.noticeTTL,
	})
	if taskID == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s %s: %w", op, taskID, err)
}
