package database

import (
	"context"
	"fmt"
	"time"

	"lawnly/internal/models"
)

func (db *DB) CreateSyncTask(ctx context.Context, task *models.SyncTask) error {
	now := time.Now().UTC()
	query := `INSERT INTO sync_queue (task_type, booking_id, payload, status, attempts, created_at)
            VALUES (?, ?, ?, 'pending', 0, ?)`
	result, err := db.ExecContext(ctx, query, task.TaskType, task.BookingID, task.Payload, now)
	if err != nil {
		return fmt.Errorf("failed to create sync task: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.Status = "pending"
	task.CreatedAt = now
	return nil
}

func (db *DB) GetPendingSyncTasks(ctx context.Context, limit int) ([]*models.SyncTask, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, task_type, booking_id, payload, status, attempts, last_error, created_at
            FROM sync_queue WHERE status = 'pending' ORDER BY id ASC LIMIT ?`

	rows, err := db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending sync tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*models.SyncTask
	for rows.Next() {
		var t models.SyncTask
		err := rows.Scan(&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.Attempts, &t.LastError, &t.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync task: %w", err)
		}
		tasks = append(tasks, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync tasks: %w", err)
	}
	return tasks, nil
}

func (db *DB) MarkSyncTaskDone(ctx context.Context, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'done', finished_at = ? WHERE id = ?`,
		time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark sync task done: %w", err)
	}
	return nil
}

func (db *DB) MarkSyncTaskFailed(ctx context.Context, id int64, attempts int, lastError string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE sync_queue SET status = 'failed', attempts = ?, last_error = ?, finished_at = ? WHERE id = ?`,
		attempts, lastError, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to mark sync task failed: %w", err)
	}
	return nil
}
