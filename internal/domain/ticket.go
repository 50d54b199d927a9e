package domain

import "time"

// TicketStatus is an open-ended lifecycle label. "open", "closed" and
// "on-hold" are the well-known values but any string is accepted.
type TicketStatus string

const (
	TicketStatusOpen   TicketStatus = "open"
	TicketStatusClosed TicketStatus = "closed"
	TicketStatusOnHold TicketStatus = "on-hold"
)

// Ticket is a trackable work item. Requester is free text and may differ
// from any User; AssignedTo is a soft reference to a user id and dangling
// values must be tolerated by readers.
type Ticket struct {
	ID          int64
	Title       string
	Description string
	Requester   string
	Computer    string
	Location    string
	Category    string
	HoldReason  string
	DueDate     *time.Time
	AssignedTo  *string
	AssignedAt  *time.Time
	Status      TicketStatus
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// TicketEventType labels audit-log entries.
type TicketEventType string

const (
	TicketEventCreated TicketEventType = "created"
	TicketEventUpdated TicketEventType = "updated"
	TicketEventNote    TicketEventType = "note"
)

// TicketEvent is an immutable audit entry attached to a ticket. Events are
// never mutated or deleted after insertion.
type TicketEvent struct {
	ID        int64
	TicketID  int64
	Type      TicketEventType
	Actor     *string
	Message   string
	CreatedAt time.Time
}
