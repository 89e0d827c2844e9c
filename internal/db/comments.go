package db

import (
	"database/sql"

	"github.com/tgienger/taskdeck/internal/models"
)

// saveTaskComments stores confirmed comments. Pending ones have no server id
// and are skipped.
func saveTaskComments(tx *sql.Tx, taskID string, comments []models.Comment) error {
	pos := 0
	for _, c := range comments {
		if c.Pending() {
			continue
		}
		var created any
		if c.CreatedAt != nil {
			created = c.CreatedAt.UTC()
		}
		if _, err := tx.Exec(`
			INSERT INTO comments (task_id, position, id, author, content, created_at) VALUES (?, ?, ?, ?, ?, ?)
		`, taskID, pos, c.ID, c.Author, c.Text, created); err != nil {
			return err
		}
		pos++
	}
	return nil
}

// GetTaskComments retrieves the comments of a snapshot task in order
func (db *DB) GetTaskComments(taskID string) ([]models.Comment, error) {
	rows, err := db.Query(`
		SELECT id, author, content, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		var created sql.NullTime
		if err := rows.Scan(&c.ID, &c.Author, &c.Text, &created); err != nil {
			return nil, err
		}
		if created.Valid {
			ts := created.Time
			c.CreatedAt = &ts
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
