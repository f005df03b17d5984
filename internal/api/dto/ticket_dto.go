package dto

import (
	"time"

	"github.com/roadwatch/damage-service/internal/domain"
)

// UpdateTicketRequest payload for admin status transitions. AdminNotes is
// a pointer so an omitted field is distinguishable from an empty string:
// omitted leaves the stored notes untouched.
type UpdateTicketRequest struct {
	Status     string  `json:"status"`
	AdminNotes *string `json:"admin_notes,omitempty"`
}

// ReporterResponse is the read-time owner snapshot attached to enriched
// ticket reads.
type ReporterResponse struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	FullName string  `json:"full_name"`
	Phone    *string `json:"phone,omitempty"`
}

// TicketResponse is the full ticket representation.
type TicketResponse struct {
	ID                 string                  `json:"id"`
	UserID             string                  `json:"user_id"`
	Title              string                  `json:"title"`
	Description        string                  `json:"description"`
	Location           string                  `json:"location"`
	Latitude           *float64                `json:"latitude,omitempty"`
	Longitude          *float64                `json:"longitude,omitempty"`
	ImagePath          *string                 `json:"image_path,omitempty"`
	AnnotatedImagePath *string                 `json:"annotated_image_path,omitempty"`
	Status             domain.TicketStatus     `json:"status"`
	Priority           domain.Priority         `json:"priority"`
	Damage             domain.DamageAssessment `json:"damage"`
	AdminNotes         *string                 `json:"admin_notes,omitempty"`
	CreatedAt          time.Time               `json:"created_at"`
	UpdatedAt          time.Time               `json:"updated_at"`
	Reporter           *ReporterResponse       `json:"reporter,omitempty"`
}

// FromTicket maps the domain aggregate onto the wire shape.
func FromTicket(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:                 t.ID,
		UserID:             t.UserID,
		Title:              t.Title,
		Description:        t.Description,
		Location:           t.Location,
		Latitude:           t.Latitude,
		Longitude:          t.Longitude,
		ImagePath:          t.ImagePath,
		AnnotatedImagePath: t.AnnotatedImagePath,
		Status:             t.Status,
		Priority:           t.Priority,
		Damage:             t.Damage,
		AdminNotes:         t.AdminNotes,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
	if t.Reporter != nil {
		resp.Reporter = &ReporterResponse{
			Username: t.Reporter.Username,
			Email:    t.Reporter.Email,
			FullName: t.Reporter.FullName,
			Phone:    t.Reporter.Phone,
		}
	}
	return resp
}

// FromTickets maps a ticket slice onto the wire shape.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	items := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, FromTicket(&tickets[i]))
	}
	return items
}
