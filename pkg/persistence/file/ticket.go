package file

import (
	"context"
	"sync"
	"time"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/persistence"
)

// TicketRepository stores tickets as files. Mutations are read-modify-write
// under a single lock.
type TicketRepository struct {
	root string
	mu   sync.Mutex
}

func NewTicketRepository(root string) *TicketRepository {
	return &TicketRepository{root: root}
}

func (tr *TicketRepository) GetByID(_ context.Context, id string) (*models.Ticket, error) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	return tr.load("GetByID", id)
}

func (tr *TicketRepository) Save(_ context.Context, ticket *models.Ticket) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	if ticket.Fields == nil {
		ticket.Fields = make(map[string]any)
	}

	ticket.UpdatedAt = time.Now().UTC()

	return tr.store("Save", ticket)
}

func (tr *TicketRepository) UpdateField(ctx context.Context, ticketID, field string, value any) error {
	return tr.UpdateFields(ctx, ticketID, map[string]any{field: value})
}

func (tr *TicketRepository) UpdateFields(_ context.Context, ticketID string, patch map[string]any) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ticket, err := tr.load("UpdateFields", ticketID)
	if err != nil {
		return err
	}

	if ticket.Fields == nil {
		ticket.Fields = make(map[string]any, len(patch))
	}

	for field, value := range patch {
		ticket.Fields[field] = value
	}

	ticket.UpdatedAt = time.Now().UTC()

	return tr.store("UpdateFields", ticket)
}

func (tr *TicketRepository) CreateHistoryEntry(_ context.Context, ticketID string, entry models.HistoryEntry) error {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	ticket, err := tr.load("CreateHistoryEntry", ticketID)
	if err != nil {
		return err
	}

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	ticket.History = append(ticket.History, entry)

	return tr.store("CreateHistoryEntry", ticket)
}

func (tr *TicketRepository) load(op, id string) (*models.Ticket, error) {
	var ticket models.Ticket

	found, err := readRecord(recordPath(tr.root, "tickets", id), &ticket)
	if err != nil {
		return nil, persistence.NewTicketError(op, id, err)
	}

	if !found {
		return nil, persistence.NewTicketError(op, id, persistence.ErrTicketNotFound)
	}

	return &ticket, nil
}

func (tr *TicketRepository) store(op string, ticket *models.Ticket) error {
	if err := writeRecord(recordPath(tr.root, "tickets", ticket.ID), ticket); err != nil {
		return persistence.NewTicketError(op, ticket.ID, err)
	}

	return nil
}
