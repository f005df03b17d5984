package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roadwatch/damage-service/internal/domain"
)

func seedTicket(t *testing.T, repo *fakeTicketRepo, userID string, status domain.TicketStatus) {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &domain.Ticket{
		UserID:      userID,
		Title:       "t",
		Description: "d",
		Location:    "l",
		Status:      status,
		Priority:    domain.PriorityLow,
	}))
}

func TestStatsForUser(t *testing.T) {
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	svc := NewDashboardService(tickets, users)
	ctx := context.Background()

	seedTicket(t, tickets, "user-1", domain.TicketStatusPending)
	seedTicket(t, tickets, "user-1", domain.TicketStatusPending)
	seedTicket(t, tickets, "user-1", domain.TicketStatusResolved)
	seedTicket(t, tickets, "user-2", domain.TicketStatusInProgress)

	stats, err := svc.StatsForUser(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(3), stats.TotalTickets)
	require.Equal(t, int64(2), stats.Pending)
	require.Equal(t, int64(0), stats.InProgress)
	require.Equal(t, int64(1), stats.Resolved)
	require.Nil(t, stats.TotalUsers)
}

func TestStatsGlobalCountsReportersOnly(t *testing.T) {
	tickets := newFakeTicketRepo()
	users := newFakeUserRepo()
	svc := NewDashboardService(tickets, users)
	ctx := context.Background()

	require.NoError(t, users.Create(ctx, &domain.User{Username: "alice", Email: "a@x", Role: domain.RoleUser}))
	require.NoError(t, users.Create(ctx, &domain.User{Username: "bob", Email: "b@x", Role: domain.RoleUser}))
	require.NoError(t, users.Create(ctx, &domain.User{Username: "admin", Email: "c@x", Role: domain.RoleAdmin}))

	seedTicket(t, tickets, "user-1", domain.TicketStatusPending)
	seedTicket(t, tickets, "user-2", domain.TicketStatusInProgress)

	stats, err := svc.StatsGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2), stats.TotalTickets)
	require.Equal(t, int64(1), stats.Pending)
	require.Equal(t, int64(1), stats.InProgress)
	require.Equal(t, int64(0), stats.Resolved)
	require.NotNil(t, stats.TotalUsers)
	// Admin accounts never count toward the user total.
	require.Equal(t, int64(2), *stats.TotalUsers)
}

func TestStatsEmpty(t *testing.T) {
	svc := NewDashboardService(newFakeTicketRepo(), newFakeUserRepo())

	stats, err := svc.StatsGlobal(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(0), stats.TotalTickets)
	require.NotNil(t, stats.TotalUsers)
	require.Equal(t, int64(0), *stats.TotalUsers)
}
