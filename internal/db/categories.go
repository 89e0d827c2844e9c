package db

import (
	"database/sql"
)

func saveTaskCategories(tx *sql.Tx, taskID string, names []string) error {
	for i, name := range names {
		if _, err := tx.Exec(`
			INSERT INTO task_categories (task_id, position, name) VALUES (?, ?, ?)
		`, taskID, i, name); err != nil {
			return err
		}
	}
	return nil
}

// GetTaskCategories returns the category labels of a snapshot task in order
func (db *DB) GetTaskCategories(taskID string) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM task_categories WHERE task_id = ? ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
