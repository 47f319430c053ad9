package models

import "time"

// SyncTask is a persisted unit of work for the ledger sync worker.
type SyncTask struct {
	ID         int64     `json:"id"`
	TaskType   string    `json:"task_type"`
	BookingID  string    `json:"booking_id"`
	Payload    string    `json:"payload"`
	Status     string    `json:"status"` // pending, done, failed
	Attempts   int       `json:"attempts"`
	LastError  string    `json:"last_error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}
