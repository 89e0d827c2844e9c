// Package cache holds the in-memory task collection for the current session.
// It is the single source of truth every view reads from.
package cache

import (
	"sync"

	"github.com/tgienger/taskdeck/internal/models"
)

// ChangeKind names the mutation that produced a Change
type ChangeKind string

const (
	ChangeInsert  ChangeKind = "insert"
	ChangePatch   ChangeKind = "patch"
	ChangeRemove  ChangeKind = "remove"
	ChangeReplace ChangeKind = "replace"
	ChangeClear   ChangeKind = "clear"
)

// Change is published to subscribers after every mutation
type Change struct {
	Kind       ChangeKind
	TaskID     string // empty for replace and clear
	Generation uint64
}

// Store is the session's task collection. Every call is atomic and the
// result of a mutation is visible to the next List or Get.
type Store struct {
	mu         sync.RWMutex
	tasks      []models.Task
	generation uint64

	subMu sync.RWMutex
	subs  map[chan Change]struct{}
}

// New creates an empty store
func New() *Store {
	return &Store{subs: make(map[chan Change]struct{})}
}

// List returns a copy of every task in insertion order
func (s *Store) List() []models.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

// Len returns the number of cached tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Get returns a copy of the task with the given id
func (s *Store) Get(id string) (models.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.tasks[i].Clone(), true
	}
	return models.Task{}, false
}

// Generation increases every time the whole collection is replaced or cleared
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Insert appends a task. It returns false and changes nothing when a task
// with the same id is already cached; use Patch for existing records.
func (s *Store) Insert(t models.Task) bool {
	return s.InsertAt(-1, t)
}

// InsertAt places a task at index, clamped to the collection bounds. A
// negative index appends.
func (s *Store) InsertAt(index int, t models.Task) bool {
	s.mu.Lock()
	if s.indexOf(t.ID) >= 0 {
		s.mu.Unlock()
		return false
	}
	if index < 0 || index > len(s.tasks) {
		index = len(s.tasks)
	}
	s.tasks = append(s.tasks, models.Task{})
	copy(s.tasks[index+1:], s.tasks[index:])
	s.tasks[index] = t.Clone()
	gen := s.generation
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeInsert, TaskID: t.ID, Generation: gen})
	return true
}

// Patch merges the given fields into the task with the given id. It is a
// no-op returning false when no such task exists.
func (s *Store) Patch(id string, p models.TaskPatch) bool {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.tasks[i] = p.Apply(s.tasks[i])
	gen := s.generation
	s.mu.Unlock()

	s.publish(Change{Kind: ChangePatch, TaskID: id, Generation: gen})
	return true
}

// Remove deletes the task with the given id and returns it with the index
// it occupied. It is a no-op when no such task exists.
func (s *Store) Remove(id string) (models.Task, int, bool) {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return models.Task{}, -1, false
	}
	removed := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	gen := s.generation
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeRemove, TaskID: id, Generation: gen})
	return removed, i, true
}

// ReplaceAll swaps the whole collection, used after a full refresh.
// Duplicate ids keep their first occurrence.
func (s *Store) ReplaceAll(tasks []models.Task) {
	next := make([]models.Task, 0, len(tasks))
	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		next = append(next, t.Clone())
	}

	s.mu.Lock()
	s.tasks = next
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeReplace, Generation: gen})
}

// Clear empties the store, used on sign-out
func (s *Store) Clear() {
	s.mu.Lock()
	s.tasks = nil
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.publish(Change{Kind: ChangeClear, Generation: gen})
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
