package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/events"
	"github.com/roadwatch/damage-service/internal/repository"
	apperrors "github.com/roadwatch/damage-service/pkg/util"
)

// TicketService coordinates the damage-ticket lifecycle.
type TicketService struct {
	tickets    repository.TicketRepository
	inspection *InspectionService
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Inspection *InspectionService
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// TicketCreateInput describes ticket creation payload. Image is optional;
// when present the inspection pipeline runs before persistence.
type TicketCreateInput struct {
	Title       string
	Description string
	Location    string
	Latitude    *float64
	Longitude   *float64
	Image       []byte
	ImageName   string
	Confidence  *float64
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		inspection: deps.Inspection,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Create validates input, optionally runs image analysis and persists the
// ticket. Analysis failure is non-fatal: the ticket is still created,
// just without damage data. Priority derives from the damage percentage
// exactly once, here; it is never recomputed afterwards.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	location := strings.TrimSpace(input.Location)
	if title == "" || description == "" || location == "" {
		return nil, apperrors.NewValidationError("title, description and location required", nil)
	}

	ticket := &domain.Ticket{
		UserID:      actor.ID,
		Title:       title,
		Description: description,
		Location:    location,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Status:      domain.TicketStatusPending,
		Damage:      domain.DamageAssessment{IndividualAreasPx: []int64{}},
	}

	if len(input.Image) > 0 && s.inspection != nil {
		result, err := s.inspection.Analyze(ctx, input.Image, input.ImageName, input.Confidence)
		if err != nil {
			// Tickets remain filable when analysis is down.
			s.logger.Warn("image analysis failed; creating ticket without damage data", zap.Error(err))
		} else {
			ticket.Damage = result.Damage
			ticket.ImagePath = &result.ImagePath
			ticket.AnnotatedImagePath = &result.AnnotatedImageName
		}
	}

	ticket.Priority = domain.ClassifyPriority(ticket.Damage.PercentageDamage)

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewPersistenceError("ticket create", err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketCreatedPayload{
			Title:            ticket.Title,
			Location:         ticket.Location,
			Priority:         ticket.Priority,
			PercentageDamage: ticket.Damage.PercentageDamage,
			HasImage:         ticket.ImagePath != nil,
		},
	})
	return ticket, nil
}

// Get returns one ticket enriched with the owner snapshot.
func (s *TicketService) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	// A malformed id can match no row; refuse it here instead of letting
	// the store reject the uuid cast with a persistence failure.
	if uuid.Validate(id) != nil {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, apperrors.NewPersistenceError("ticket lookup", err)
	}
	return ticket, nil
}

// ListMine returns the actor's tickets, newest first.
func (s *TicketService) ListMine(ctx context.Context, actor *domain.User) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, apperrors.NewPersistenceError("ticket list", err)
	}
	return tickets, nil
}

// ListAll returns every ticket enriched with owner snapshots, newest
// first. Role enforcement happens at the transport boundary.
func (s *TicketService) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewPersistenceError("ticket list", err)
	}
	return tickets, nil
}

// UpdateStatus performs an admin status transition. Transitions are
// unordered; any status may move to any other. adminNotes is only
// touched when explicitly supplied.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, id string, status domain.TicketStatus, adminNotes *string) error {
	if !actor.IsAdmin() {
		return apperrors.NewForbidden("admin access required")
	}
	if !domain.ValidTicketStatus(status) {
		return apperrors.NewValidationError("unknown ticket status", map[string]any{"status": string(status)})
	}
	if uuid.Validate(id) != nil {
		return apperrors.NewNotFound("ticket", map[string]any{"id": id})
	}

	current, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return apperrors.NewPersistenceError("ticket lookup", err)
	}

	if err := s.tickets.UpdateStatus(ctx, id, status, adminNotes); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return apperrors.NewPersistenceError("ticket update", err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: id,
		Actor:    events.Actor{UserID: actor.ID, Role: actor.Role},
		Payload: events.TicketStatusChangedPayload{
			OldStatus: current.Status,
			NewStatus: status,
			HasNotes:  adminNotes != nil,
		},
	})
	return nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
