package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Requester   string     `json:"requester"`
	Computer    string     `json:"computer"`
	Location    string     `json:"location"`
	Category    string     `json:"category"`
	DueDate     *time.Time `json:"due_date"`
}

// UpdateTicketRequest carries the mutable field set; absent fields stay
// untouched and unrecognized fields are dropped by the JSON decoder.
type UpdateTicketRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Requester   *string    `json:"requester"`
	Status      *string    `json:"status"`
	Category    *string    `json:"category"`
	HoldReason  *string    `json:"hold_reason"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	AssignedAt  *time.Time `json:"assigned_at"`
}

// TicketResponse is the wire shape of a ticket, shared by HTTP responses and
// realtime notifications.
type TicketResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Requester   string     `json:"requester"`
	Computer    string     `json:"computer"`
	Location    string     `json:"location"`
	Category    string     `json:"category"`
	HoldReason  string     `json:"hold_reason"`
	DueDate     *time.Time `json:"due_date"`
	AssignedTo  *string    `json:"assigned_to"`
	AssignedAt  *time.Time `json:"assigned_at"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
}

// TicketEventResponse is the wire shape of an audit entry.
type TicketEventResponse struct {
	ID        int64     `json:"id"`
	TicketID  int64     `json:"ticket_id"`
	Type      string    `json:"type"`
	Actor     *string   `json:"actor"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateTicketEventRequest payload for appending a note.
type CreateTicketEventRequest struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// TicketFromDomain maps a ticket to its wire shape.
func TicketFromDomain(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Requester:   ticket.Requester,
		Computer:    ticket.Computer,
		Location:    ticket.Location,
		Category:    ticket.Category,
		HoldReason:  ticket.HoldReason,
		DueDate:     ticket.DueDate,
		AssignedTo:  ticket.AssignedTo,
		AssignedAt:  ticket.AssignedAt,
		Status:      string(ticket.Status),
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// TicketEventFromDomain maps an audit entry to its wire shape.
func TicketEventFromDomain(event *domain.TicketEvent) TicketEventResponse {
	return TicketEventResponse{
		ID:        event.ID,
		TicketID:  event.TicketID,
		Type:      string(event.Type),
		Actor:     event.Actor,
		Message:   event.Message,
		CreatedAt: event.CreatedAt,
	}
}
