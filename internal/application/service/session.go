package service

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pharmadesk/pharmacy-api/internal/domain/entity"
	"github.com/pharmadesk/pharmacy-api/pkg/apperror"
)

// BillingSession is one operator's in-progress sale: a cart plus identity.
// The cart is server-side state so a page reload or second device never
// loses an in-progress sale.
type BillingSession struct {
	ID        uuid.UUID   `json:"session_id"`
	Cart      entity.Cart `json:"cart"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// snapshot returns a copy safe to hand out after the lock is released.
func (s *BillingSession) snapshot() BillingSession {
	copied := *s
	copied.Cart.Lines = append([]entity.CartLine(nil), s.Cart.Lines...)
	return copied
}

// sessionSlot pairs a session with its own lock, so a slow operation on one
// session never blocks another operator's cart.
type sessionSlot struct {
	mu      sync.Mutex
	session BillingSession
}

// SessionManager owns all live billing sessions. All cart mutation goes
// through WithSession so two requests against the same session serialize,
// while distinct sessions proceed independently.
type SessionManager struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*sessionSlot
}

// NewSessionManager creates an empty session manager
func NewSessionManager() *SessionManager {
	return &SessionManager{
		slots: make(map[uuid.UUID]*sessionSlot),
	}
}

func (m *SessionManager) slot(id uuid.UUID) (*sessionSlot, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot, ok := m.slots[id]
	return slot, ok
}

// Create starts a new billing session with an empty cart.
func (m *SessionManager) Create() BillingSession {
	now := time.Now()
	slot := &sessionSlot{session: BillingSession{
		ID:        uuid.New(),
		Cart:      entity.NewCart(),
		CreatedAt: now,
		UpdatedAt: now,
	}}

	snap := slot.session.snapshot()
	m.mu.Lock()
	m.slots[slot.session.ID] = slot
	m.mu.Unlock()
	return snap
}

// Get returns a snapshot of the session.
func (m *SessionManager) Get(id uuid.UUID) (BillingSession, error) {
	slot, ok := m.slot(id)
	if !ok {
		return BillingSession{}, apperror.NewNotFoundError("Billing session")
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return slot.session.snapshot(), nil
}

// WithSession runs fn against the live session under that session's lock and
// returns a snapshot of the session afterwards. If fn returns an error the
// session keeps whatever state fn left it in; fn is responsible for not
// mutating on failure. Only this session is locked while fn runs, so a
// checkout doing repository I/O never stalls other sessions.
func (m *SessionManager) WithSession(id uuid.UUID, fn func(*BillingSession) error) (BillingSession, error) {
	slot, ok := m.slot(id)
	if !ok {
		return BillingSession{}, apperror.NewNotFoundError("Billing session")
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()

	// The session may have been closed between the map lookup and taking
	// the slot lock
	if _, live := m.slot(id); !live {
		return BillingSession{}, apperror.NewNotFoundError("Billing session")
	}

	if err := fn(&slot.session); err != nil {
		return BillingSession{}, err
	}
	slot.session.UpdatedAt = time.Now()
	return slot.session.snapshot(), nil
}

// Delete removes a session; no-op if absent.
func (m *SessionManager) Delete(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, id)
}
