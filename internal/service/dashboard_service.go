package service

import (
	"context"

	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/repository"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// DashboardStats is the aggregate reported to dashboards. TotalUsers is
// only present for the global scope and counts reporter accounts, not
// admins.
type DashboardStats struct {
	TotalTickets int64  `json:"total_tickets"`
	Pending      int64  `json:"pending"`
	InProgress   int64  `json:"in_progress"`
	Resolved     int64  `json:"resolved"`
	TotalUsers   *int64 `json:"total_users,omitempty"`
}

// DashboardService computes ticket counts scoped to a user or globally.
// Each count is an independent point-in-time query; there is no snapshot
// isolation across them, so concurrent writes can skew individual counts
// slightly. That drift is accepted for dashboard reporting.
type DashboardService struct {
	tickets repository.TicketRepository
	users   repository.UserRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(tickets repository.TicketRepository, users repository.UserRepository) *DashboardService {
	return &DashboardService{tickets: tickets, users: users}
}

// StatsForUser aggregates one reporter's tickets.
func (s *DashboardService) StatsForUser(ctx context.Context, userID string) (*DashboardStats, error) {
	return s.collect(ctx, &userID, false)
}

// StatsGlobal aggregates everything, plus the reporter-account count.
func (s *DashboardService) StatsGlobal(ctx context.Context) (*DashboardStats, error) {
	return s.collect(ctx, nil, true)
}

func (s *DashboardService) collect(ctx context.Context, userID *string, includeUsers bool) (*DashboardStats, error) {
	stats := &DashboardStats{}

	total, err := s.tickets.CountByStatus(ctx, userID, nil)
	if err != nil {
		return nil, apperrors.NewPersistenceError("ticket count", err)
	}
	stats.TotalTickets = total

	for _, pair := range []struct {
		status domain.TicketStatus
		target *int64
	}{
		{domain.TicketStatusPending, &stats.Pending},
		{domain.TicketStatusInProgress, &stats.InProgress},
		{domain.TicketStatusResolved, &stats.Resolved},
	} {
		status := pair.status
		count, err := s.tickets.CountByStatus(ctx, userID, &status)
		if err != nil {
			return nil, apperrors.NewPersistenceError("ticket count", err)
		}
		*pair.target = count
	}

	if includeUsers {
		users, err := s.users.CountByRole(ctx, domain.RoleUser)
		if err != nil {
			return nil, apperrors.NewPersistenceError("user count", err)
		}
		stats.TotalUsers = &users
	}
	return stats, nil
}
