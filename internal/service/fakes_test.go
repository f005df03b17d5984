package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/roadwatch/damage-service/internal/domain"
	"github.com/roadwatch/damage-service/internal/events"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	next  int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("duplicate user")
		}
	}
	r.next++
	user.ID = fmt.Sprintf("user-%d", r.next)
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeUserRepo) CountByRole(_ context.Context, role domain.UserRole) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

// fakeSessionRepo is an in-memory SessionRepository keyed by token.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[string]*domain.Session)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *domain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.sessions[session.Token] = &clone
	return nil
}

func (r *fakeSessionRepo) GetByToken(_ context.Context, token string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[token]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeSessionRepo) DeleteExpired(_ context.Context, nowEpoch int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, s := range r.sessions {
		if s.ExpiresAt <= nowEpoch {
			delete(r.sessions, token)
			removed++
		}
	}
	return removed, nil
}

// fakeTicketRepo is an in-memory TicketRepository preserving insertion
// order; lists return newest first, mirroring the SQL ordering. Ids are
// real UUIDs, matching the column type of the backing store. lookupErr,
// when set, fails every GetByID the way a store-level cast error would.
type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   []*domain.Ticket
	lookupErr error
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{}
}

func (r *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = uuid.NewString()
	clone := *ticket
	r.tickets = append(r.tickets, &clone)
	return nil
}

func (r *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	for _, t := range r.tickets {
		if t.ID == id {
			clone := *t
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeTicketRepo) ListByUser(_ context.Context, userID string) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for i := len(r.tickets) - 1; i >= 0; i-- {
		if r.tickets[i].UserID == userID {
			out = append(out, *r.tickets[i])
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListAll(_ context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Ticket
	for i := len(r.tickets) - 1; i >= 0; i-- {
		out = append(out, *r.tickets[i])
	}
	return out, nil
}

func (r *fakeTicketRepo) UpdateStatus(_ context.Context, id string, status domain.TicketStatus, adminNotes *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tickets {
		if t.ID == id {
			t.Status = status
			if adminNotes != nil {
				notes := *adminNotes
				t.AdminNotes = &notes
			}
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (r *fakeTicketRepo) CountByStatus(_ context.Context, userID *string, status *domain.TicketStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tickets {
		if userID != nil && t.UserID != *userID {
			continue
		}
		if status != nil && t.Status != *status {
			continue
		}
		n++
	}
	return n, nil
}

// recordingDispatcher captures published events.
type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) published() []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]events.Event{}, d.events...)
}
