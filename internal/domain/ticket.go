package domain

import "time"

// TicketStatus enumerates lifecycle states for damage tickets.
// Transitions are admin-only and unordered: any status may move to any other.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
)

// ValidTicketStatus reports whether the value is a known status.
func ValidTicketStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusResolved:
		return true
	}
	return false
}

// Ticket is the aggregate for a reported damage event. The embedded
// DamageAssessment and the priority are fixed at creation; only status,
// admin notes and the updated timestamp change afterwards.
type Ticket struct {
	ID                 string
	UserID             string
	Title              string
	Description        string
	Location           string
	Latitude           *float64
	Longitude          *float64
	ImagePath          *string
	AnnotatedImagePath *string
	Status             TicketStatus
	Priority           Priority
	Damage             DamageAssessment
	AdminNotes         *string
	CreatedAt          time.Time
	UpdatedAt          time.Time

	// Reporter is a read-time projection of the owning user, populated by
	// repository joins on enriched reads. It is never stored.
	Reporter *TicketReporter
}

// TicketReporter carries the denormalized owner fields attached to
// enriched ticket reads.
type TicketReporter struct {
	Username string
	Email    string
	FullName string
	Phone    *string
}
