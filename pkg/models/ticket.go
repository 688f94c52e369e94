package models

import "time"

// Ticket is the slice of a support ticket the automation engine reads and writes.
type Ticket struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	History   []HistoryEntry `json:"history,omitempty"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// HistoryEntry is one ticket-history record written by an automated action.
type HistoryEntry struct {
	Action    string         `json:"action"`
	Details   map[string]any `json:"details,omitempty"`
	UserID    string         `json:"userId"`
	CreatedAt time.Time      `json:"createdAt"`
}
