package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
)

// TicketRepository stores tickets in a JSONB fields column with a separate history table.
type TicketRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewTicketRepository(db *sql.DB, logger *slog.Logger) *TicketRepository {
	return &TicketRepository{db: db, logger: logger}
}

func (r *TicketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var (
		ticket     models.Ticket
		fieldsJSON []byte
	)

	err := r.db.QueryRowContext(ctx, `SELECT id, fields, updated_at FROM tickets WHERE id = $1`, id).
		Scan(&ticket.ID, &fieldsJSON, &ticket.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewTicketError("GetByID", id, persistence.ErrTicketNotFound)
		}

		return nil, persistence.NewTicketError("GetByID", id, err)
	}

	if err := json.Unmarshal(fieldsJSON, &ticket.Fields); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ticket fields: %w", err)
	}

	history, err := r.history(ctx, id)
	if err != nil {
		return nil, err
	}

	ticket.History = history

	return &ticket, nil
}

// Save upserts the ticket fields. History is append-only and not touched.
func (r *TicketRepository) Save(ctx context.Context, ticket *models.Ticket) error {
	if ticket.Fields == nil {
		ticket.Fields = make(map[string]any)
	}

	ticket.UpdatedAt = time.Now().UTC()

	fieldsJSON, err := json.Marshal(ticket.Fields)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket fields: %w", err)
	}

	query := `
		INSERT INTO tickets (id, fields, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, ticket.ID, string(fieldsJSON), ticket.UpdatedAt); err != nil {
		return persistence.NewTicketError("Save", ticket.ID, err)
	}

	return nil
}

func (r *TicketRepository) UpdateField(ctx context.Context, ticketID, field string, value any) error {
	return r.UpdateFields(ctx, ticketID, map[string]any{field: value})
}

// UpdateFields merges patch into the stored fields in a single statement.
func (r *TicketRepository) UpdateFields(ctx context.Context, ticketID string, patch map[string]any) error {
	patchJSON, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("failed to marshal ticket patch: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET fields = fields || $2::jsonb, updated_at = NOW() WHERE id = $1`,
		ticketID, string(patchJSON))
	if err != nil {
		return persistence.NewTicketError("UpdateFields", ticketID, err)
	}

	return requireRow(result, "UpdateFields", ticketID)
}

func (r *TicketRepository) CreateHistoryEntry(ctx context.Context, ticketID string, entry models.HistoryEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal history details: %w", err)
	}

	query := `
		INSERT INTO ticket_history (ticket_id, action, details, user_id, created_at)
		SELECT $1::varchar, $2::varchar, $3::jsonb, $4::varchar, $5::timestamptz
		WHERE EXISTS (SELECT 1 FROM tickets WHERE id = $1::varchar)
	`

	result, err := r.db.ExecContext(ctx, query, ticketID, entry.Action, string(detailsJSON), entry.UserID, entry.CreatedAt)
	if err != nil {
		return persistence.NewTicketError("CreateHistoryEntry", ticketID, err)
	}

	return requireRow(result, "CreateHistoryEntry", ticketID)
}

func (r *TicketRepository) history(ctx context.Context, ticketID string) ([]models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT action, details, user_id, created_at FROM ticket_history WHERE ticket_id = $1 ORDER BY created_at, id`,
		ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query ticket history: %w", err)
	}

	defer closeRows(ctx, r.logger, rows)

	history := make([]models.HistoryEntry, 0)

	for rows.Next() {
		var (
			entry       models.HistoryEntry
			detailsJSON []byte
			userID      sql.NullString
		)

		if err := rows.Scan(&entry.Action, &detailsJSON, &userID, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history details: %w", err)
		}

		entry.UserID = userID.String
		history = append(history, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket history: %w", err)
	}

	return history, nil
}

func requireRow(result sql.Result, op, ticketID string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewTicketError(op, ticketID, persistence.ErrTicketNotFound)
	}

	return nil
}
