package handlers

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
	"github.com/spec-kit/helpdesk-portal/internal/repository"
	"github.com/spec-kit/helpdesk-portal/internal/service"
)

type ctxCapturingTicketRepo struct {
	listCtx context.Context
}

func (r *ctxCapturingTicketRepo) Create(context.Context, *domain.Ticket) error { return nil }

func (r *ctxCapturingTicketRepo) Patch(context.Context, int64, repository.TicketPatch) (*domain.Ticket, error) {
	return nil, nil
}

func (r *ctxCapturingTicketRepo) GetByID(context.Context, int64) (*domain.Ticket, error) {
	return nil, nil
}

func (r *ctxCapturingTicketRepo) ListAll(ctx context.Context, _, _ int) ([]domain.Ticket, error) {
	r.listCtx = ctx
	return nil, nil
}

func TestListPropagatesRequestDeadline(t *testing.T) {
	repo := &ctxCapturingTicketRepo{}
	handler := NewTicketsHandler(service.NewTicketService(service.TicketDependencies{TicketRepo: repo}))

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), time.Second)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})
	app.Get("/tickets", handler.List)

	resp, err := app.Test(httptest.NewRequest("GET", "/tickets", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	require.NotNil(t, repo.listCtx)
	_, hasDeadline := repo.listCtx.Deadline()
	assert.True(t, hasDeadline)
}
