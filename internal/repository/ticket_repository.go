package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roadwatch/damage-service/internal/domain"
)

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, adminNotes *string) error
	CountByStatus(ctx context.Context, userID *string, status *domain.TicketStatus) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (user_id, title, description, location, latitude, longitude,
            image_path, annotated_image_path, status, priority,
            total_detections, total_damaged_area_px, percentage_damage, individual_areas_px)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	areas := ticket.Damage.IndividualAreasPx
	if areas == nil {
		areas = []int64{}
	}
	return r.pool.QueryRow(ctx, query,
		ticket.UserID,
		ticket.Title,
		ticket.Description,
		ticket.Location,
		ticket.Latitude,
		ticket.Longitude,
		ticket.ImagePath,
		ticket.AnnotatedImagePath,
		ticket.Status,
		ticket.Priority,
		ticket.Damage.TotalDetections,
		ticket.Damage.TotalDamagedAreaPx,
		ticket.Damage.PercentageDamage,
		areas,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

const enrichedSelect = `
        SELECT t.id, t.user_id, t.title, t.description, t.location, t.latitude, t.longitude,
               t.image_path, t.annotated_image_path, t.status, t.priority,
               t.total_detections, t.total_damaged_area_px, t.percentage_damage, t.individual_areas_px,
               t.admin_notes, t.created_at, t.updated_at,
               u.username, u.email, u.full_name, u.phone
        FROM tickets t
        LEFT JOIN users u ON u.id = t.user_id`

// GetByID returns the ticket enriched with a read-time snapshot of the
// owning user. The join is evaluated per read and never stored back.
func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := enrichedSelect + ` WHERE t.id=$1`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets, err := scanEnrichedTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, pgx.ErrNoRows
	}
	return &tickets[0], nil
}

func (r *ticketRepository) ListByUser(ctx context.Context, userID string) ([]domain.Ticket, error) {
	query := enrichedSelect + ` WHERE t.user_id=$1 ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnrichedTickets(rows)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := enrichedSelect + ` ORDER BY t.created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEnrichedTickets(rows)
}

// UpdateStatus sets the status and bumps updated_at. adminNotes is only
// overwritten when explicitly supplied; a nil pointer leaves the stored
// value untouched, which is distinct from storing an empty string.
func (r *ticketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus, adminNotes *string) error {
	const withNotes = `
        UPDATE tickets SET status=$1, admin_notes=$2, updated_at=NOW() WHERE id=$3`
	const withoutNotes = `
        UPDATE tickets SET status=$1, updated_at=NOW() WHERE id=$2`

	var cmd pgconn.CommandTag
	var err error
	if adminNotes != nil {
		cmd, err = r.pool.Exec(ctx, withNotes, status, *adminNotes, id)
	} else {
		cmd, err = r.pool.Exec(ctx, withoutNotes, status, id)
	}
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) CountByStatus(ctx context.Context, userID *string, status *domain.TicketStatus) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets WHERE 1=1`
	args := []any{}
	if userID != nil {
		args = append(args, *userID)
		query += ` AND user_id=$1`
	}
	if status != nil {
		args = append(args, *status)
		if len(args) == 1 {
			query += ` AND status=$1`
		} else {
			query += ` AND status=$2`
		}
	}
	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanEnrichedTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		var username, email, fullName *string
		var phone *string
		if err := rows.Scan(
			&ticket.ID,
			&ticket.UserID,
			&ticket.Title,
			&ticket.Description,
			&ticket.Location,
			&ticket.Latitude,
			&ticket.Longitude,
			&ticket.ImagePath,
			&ticket.AnnotatedImagePath,
			&ticket.Status,
			&ticket.Priority,
			&ticket.Damage.TotalDetections,
			&ticket.Damage.TotalDamagedAreaPx,
			&ticket.Damage.PercentageDamage,
			&ticket.Damage.IndividualAreasPx,
			&ticket.AdminNotes,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
			&username,
			&email,
			&fullName,
			&phone,
		); err != nil {
			return nil, err
		}
		if username != nil && email != nil && fullName != nil {
			ticket.Reporter = &domain.TicketReporter{
				Username: *username,
				Email:    *email,
				FullName: *fullName,
				Phone:    phone,
			}
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
