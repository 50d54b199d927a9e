package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/events"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-portal/pkg/util"
)

// AnonymousRequester is recorded when neither an identity nor a client-supplied
// requester is available.
const AnonymousRequester = "Anonymous"

// TicketService enforces who may create and update tickets, writes the audit
// trail and triggers notification fan-out.
type TicketService struct {
	tickets    repository.TicketRepository
	auditLog   repository.TicketEventRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles the service requirements.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	EventRepo  repository.TicketEventRepository
	Dispatcher events.Dispatcher
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Requester   string
	Computer    string
	Location    string
	Category    string
	DueDate     *time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		auditLog:   deps.EventRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create opens a new ticket. Anonymous callers are allowed; a resolved
// identity's account name overrides any client-supplied requester string.
func (s *TicketService) Create(ctx context.Context, identity *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	requester := strings.TrimSpace(input.Requester)
	if identity != nil {
		requester = identity.AccountName
	}
	if requester == "" {
		requester = AnonymousRequester
	}

	ticket := &domain.Ticket{
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Requester:   requester,
		Computer:    strings.TrimSpace(input.Computer),
		Location:    strings.TrimSpace(input.Location),
		Category:    strings.TrimSpace(input.Category),
		DueDate:     input.DueDate,
		Status:      domain.TicketStatusOpen,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.auditLog.Append(ctx, &domain.TicketEvent{
		TicketID: ticket.ID,
		Type:     domain.TicketEventCreated,
		Actor:    &requester,
		Message:  "Ticket created",
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketCreated, &requester, ticket)
	return ticket, nil
}

// Update applies the whitelisted fields of the patch. An authenticated
// identity is required. An empty patch is a no-op that does not error.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id int64, patch repository.TicketPatch) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	before, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return before, nil
	}

	ticket, err := s.tickets.Patch(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if err := s.auditLog.Append(ctx, &domain.TicketEvent{
		TicketID: ticket.ID,
		Type:     domain.TicketEventUpdated,
		Actor:    &actor.AccountName,
		Message:  describeChanges(before, patch),
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketUpdated, &actor.AccountName, ticket)
	return ticket, nil
}

// Get fetches a single ticket; open to anonymous callers.
func (s *TicketService) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	return s.tickets.GetByID(ctx, id)
}

// List returns tickets newest-created-first; open to anonymous callers.
func (s *TicketService) List(ctx context.Context, limit, offset int) ([]domain.Ticket, error) {
	return s.tickets.ListAll(ctx, limit, offset)
}

// ListEvents returns the ticket's audit log newest-first.
func (s *TicketService) ListEvents(ctx context.Context, actor *domain.User, id int64) ([]domain.TicketEvent, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditLog.ListByTicket(ctx, id)
}

// AddEvent appends a caller-authored event (a note by default).
func (s *TicketService) AddEvent(ctx context.Context, actor *domain.User, id int64, eventType, message string) (*domain.TicketEvent, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message required", nil)
	}
	if _, err := s.tickets.GetByID(ctx, id); err != nil {
		return nil, err
	}

	kind := domain.TicketEventType(strings.TrimSpace(eventType))
	if kind == "" {
		kind = domain.TicketEventNote
	}
	event := &domain.TicketEvent{
		TicketID: id,
		Type:     kind,
		Actor:    &actor.AccountName,
		Message:  strings.TrimSpace(message),
	}
	if err := s.auditLog.Append(ctx, event); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, actor *string, ticket *domain.Ticket) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Actor:     actor,
		Timestamp: time.Now(),
		Payload:   ticket,
	})
}

// describeChanges renders the changed-field set for the audit message, old
// value first.
func describeChanges(before *domain.Ticket, patch repository.TicketPatch) string {
	parts := []string{}
	add := func(field, oldVal, newVal string) {
		parts = append(parts, fmt.Sprintf("%s: %q to %q", field, oldVal, newVal))
	}

	if patch.Title != nil {
		add("title", before.Title, *patch.Title)
	}
	if patch.Description != nil {
		add("description", before.Description, *patch.Description)
	}
	if patch.Requester != nil {
		add("requester", before.Requester, *patch.Requester)
	}
	if patch.Status != nil {
		add("status", string(before.Status), string(*patch.Status))
	}
	if patch.Category != nil {
		add("category", before.Category, *patch.Category)
	}
	if patch.HoldReason != nil {
		add("hold_reason", before.HoldReason, *patch.HoldReason)
	}
	if patch.DueDate != nil {
		add("due_date", formatTime(before.DueDate), patch.DueDate.Format(time.RFC3339))
	}
	if patch.AssignedTo != nil {
		oldVal := ""
		if before.AssignedTo != nil {
			oldVal = *before.AssignedTo
		}
		add("assigned_to", oldVal, *patch.AssignedTo)
	}
	if patch.AssignedAt != nil {
		add("assigned_at", formatTime(before.AssignedAt), patch.AssignedAt.Format(time.RFC3339))
	}
	return "Changed " + strings.Join(parts, ", ")
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
