package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/helpdesk-portal/internal/domain"
)

func TestTicketPatchEmpty(t *testing.T) {
	assert.True(t, TicketPatch{}.Empty())

	title := "new title"
	assert.False(t, TicketPatch{Title: &title}.Empty())

	status := domain.TicketStatusClosed
	assert.False(t, TicketPatch{Status: &status}.Empty())

	when := time.Now()
	assert.False(t, TicketPatch{AssignedAt: &when}.Empty())
}
