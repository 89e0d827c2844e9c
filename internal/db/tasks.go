package db

import (
	"database/sql"
	"time"

	"github.com/tgienger/taskdeck/internal/models"
)

// SaveTasks replaces the offline snapshot with tasks, keeping their order.
// Duplicate ids keep their first occurrence.
func (db *DB) SaveTasks(tasks []models.Task) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM tasks"); err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		pos := len(seen)
		seen[t.ID] = struct{}{}

		var due any
		if t.DueDate != nil {
			due = t.DueDate.UTC()
		}
		_, err := tx.Exec(`
			INSERT INTO tasks (id, position, title, description, priority, status, due_date, assignee, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, t.ID, pos, t.Title, t.Description, string(t.Priority), string(t.Status), due,
			t.Assignee, t.CreatedBy, t.CreatedAt.UTC(), t.UpdatedAt.UTC())
		if err != nil {
			return err
		}
		if err := saveTaskCategories(tx, t.ID, t.Categories); err != nil {
			return err
		}
		if err := saveTaskComments(tx, t.ID, t.Comments); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListTasks returns the offline snapshot in its saved order
func (db *DB) ListTasks() ([]models.Task, error) {
	rows, err := db.Query(`
		SELECT id, title, description, priority, status, due_date, assignee, created_by, created_at, updated_at
		FROM tasks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var priority, status string
		var due sql.NullTime
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &priority, &status, &due,
			&t.Assignee, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		t.Priority = models.Priority(priority)
		t.Status = models.Status(status)
		if due.Valid {
			d := due.Time
			t.DueDate = &d
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load categories and comments for each task
	for i := range tasks {
		cats, err := db.GetTaskCategories(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Categories = cats

		comments, err := db.GetTaskComments(tasks[i].ID)
		if err != nil {
			return nil, err
		}
		tasks[i].Comments = comments
	}

	return tasks, nil
}

// ClearTasks drops the offline snapshot
func (db *DB) ClearTasks() error {
	_, err := db.Exec("DELETE FROM tasks")
	return err
}

// SnapshotTime returns when the snapshot was last saved, zero if never
func (db *DB) SnapshotTime() (time.Time, error) {
	v, err := db.GetSetting(keySnapshotAt)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, v)
}

const keySnapshotAt = "snapshot_at"

// MarkSnapshot records the time of the last successful save
func (db *DB) MarkSnapshot(at time.Time) error {
	return db.SetSetting(keySnapshotAt, at.UTC().Format(time.RFC3339Nano))
}
