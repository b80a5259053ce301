package booking

// In-memory implementations of the store interfaces, backed by a
// shared mutex-guarded state struct. An inert database/sql driver
// supplies real but no-op *sql.Tx values so the engine's transaction
// plumbing runs unchanged; the fakes mirror the SQL semantics of the
// real repositories, including value-copy results and sql.ErrNoRows.

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mayflower/covid19-teststation-termine/internal/model"
)

type inertDriver struct{}

func (inertDriver) Open(string) (driver.Conn, error) { return inertConn{}, nil }

type inertConn struct{}

func (inertConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("no statements") }
func (inertConn) Close() error                        { return nil }
func (inertConn) Begin() (driver.Tx, error)           { return inertTx{}, nil }

type inertTx struct{}

func (inertTx) Commit() error   { return nil }
func (inertTx) Rollback() error { return nil }

func init() { sql.Register("inert", inertDriver{}) }

type memState struct {
	mu       sync.Mutex
	nextID   uint64
	slots    map[uint64]*model.TimeSlot
	appts    map[uint64]*model.Appointment
	bookings map[uint64]*model.Booking
	users    map[string]*model.User
}

func newMemState() *memState {
	return &memState{
		slots:    map[uint64]*model.TimeSlot{},
		appts:    map[uint64]*model.Appointment{},
		bookings: map[uint64]*model.Booking{},
		users:    map[string]*model.User{},
	}
}

func (m *memState) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memState) addSlot(start time.Time, units int) *model.TimeSlot {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot := &model.TimeSlot{ID: m.id(), StartDateTime: start, LengthMin: 30}
	m.slots[slot.ID] = slot
	for i := 0; i < units; i++ {
		a := &model.Appointment{ID: m.id(), TimeSlotID: slot.ID}
		m.appts[a.ID] = a
	}
	return slot
}

func (m *memState) addUser(name, role string, coupons int) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &model.User{ID: m.id(), UserName: name, Role: role, Coupons: coupons}
	m.users[name] = u
	return u
}

func (m *memState) unitsOf(slotID uint64) []*model.Appointment {
	var units []*model.Appointment
	for _, a := range m.appts {
		if a.TimeSlotID == slotID {
			units = append(units, a)
		}
	}
	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}

func claimable(a *model.Appointment, cutoff time.Time) bool {
	if a.Booked {
		return false
	}
	return a.ClaimToken == nil || a.ClaimedAt.Before(cutoff)
}

type memSlots struct{ st *memState }

func (s *memSlots) CreateTx(ctx context.Context, tx *sql.Tx, slot *model.TimeSlot) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	slot.ID = s.st.id()
	cp := *slot
	s.st.slots[slot.ID] = &cp
	return nil
}

func (s *memSlots) FindByStartTx(ctx context.Context, tx *sql.Tx, start time.Time) (*model.TimeSlot, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, sl := range s.st.slots {
		if sl.StartDateTime.Equal(start) {
			cp := *sl
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memSlots) ListRangeTx(ctx context.Context, tx *sql.Tx, from, until time.Time, limit int) ([]model.TimeSlot, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.TimeSlot
	for _, sl := range s.st.slots {
		if !sl.StartDateTime.Before(from) && sl.StartDateTime.Before(until) {
			out = append(out, *sl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memSlots) DeleteByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, id := range ids {
		delete(s.st.slots, id)
	}
	return nil
}

func (s *memSlots) FreeSlotsBetween(ctx context.Context, start, end, cutoff time.Time) ([]model.FreeSlot, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.FreeSlot
	for _, sl := range s.st.slots {
		if sl.StartDateTime.Before(start) || sl.StartDateTime.After(end) {
			continue
		}
		free := 0
		for _, a := range s.st.unitsOf(sl.ID) {
			if claimable(a, cutoff) {
				free++
			}
		}
		if free > 0 {
			out = append(out, model.FreeSlot{StartDateTime: sl.StartDateTime, FreeAppointments: free})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDateTime.Before(out[j].StartDateTime) })
	return out, nil
}

type memAppts struct{ st *memState }

func (s *memAppts) CreateBatchTx(ctx context.Context, tx *sql.Tx, slotID uint64, n int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for i := 0; i < n; i++ {
		a := &model.Appointment{ID: s.st.id(), TimeSlotID: slotID}
		s.st.appts[a.ID] = a
	}
	return nil
}

func (s *memAppts) ClaimTx(ctx context.Context, tx *sql.Tx, slotID uint64, token string, now, cutoff time.Time) (bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, a := range s.st.unitsOf(slotID) {
		if claimable(a, cutoff) {
			tok, at := token, now
			a.ClaimToken = &tok
			a.ClaimedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (s *memAppts) FindByClaimTokenTx(ctx context.Context, tx *sql.Tx, token string) (*model.Appointment, time.Time, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, a := range s.st.appts {
		if a.ClaimToken != nil && *a.ClaimToken == token {
			cp := *a
			return &cp, s.st.slots[a.TimeSlotID].StartDateTime, nil
		}
	}
	return nil, time.Time{}, sql.ErrNoRows
}

func (s *memAppts) BookTx(ctx context.Context, tx *sql.Tx, id uint64, token string) (bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	a, ok := s.st.appts[id]
	if !ok || a.Booked || a.ClaimToken == nil || *a.ClaimToken != token {
		return false, nil
	}
	a.Booked = true
	a.ClaimToken = nil
	a.ClaimedAt = nil
	return true, nil
}

func (s *memAppts) UnbookTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	a, ok := s.st.appts[id]
	if !ok {
		return sql.ErrNoRows
	}
	a.Booked = false
	a.ClaimToken = nil
	a.ClaimedAt = nil
	return nil
}

func (s *memAppts) ReleaseByToken(ctx context.Context, token string) (bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, a := range s.st.appts {
		if !a.Booked && a.ClaimToken != nil && *a.ClaimToken == token {
			a.ClaimToken = nil
			a.ClaimedAt = nil
			return true, nil
		}
	}
	return false, nil
}

func (s *memAppts) ListBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) ([]model.Appointment, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.Appointment
	for _, id := range slotIDs {
		for _, a := range s.st.unitsOf(id) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAppts) DeleteBySlotIDsTx(ctx context.Context, tx *sql.Tx, slotIDs []uint64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, slotID := range slotIDs {
		for _, a := range s.st.unitsOf(slotID) {
			delete(s.st.appts, a.ID)
		}
	}
	return nil
}

type memBookings struct{ st *memState }

func (s *memBookings) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	b.ID = s.st.id()
	cp := *b
	s.st.bookings[b.ID] = &cp
	return nil
}

func (s *memBookings) FindBySecretAndStartTx(ctx context.Context, tx *sql.Tx, secret string, start time.Time) (*model.Booking, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, b := range s.st.bookings {
		if b.Secret == secret && b.StartDateTime.Equal(start) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *memBookings) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	if _, ok := s.st.bookings[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.st.bookings, id)
	return nil
}

func (s *memBookings) HasBookedBy(ctx context.Context, userName string) (bool, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	for _, b := range s.st.bookings {
		if b.BookedBy == userName {
			return true, nil
		}
	}
	return false, nil
}

func (s *memBookings) CreatedBetween(ctx context.Context, from, until time.Time) ([]model.Booking, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.Booking
	for _, b := range s.st.bookings {
		if !b.BookedAt.Before(from) && b.BookedAt.Before(until) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BookedAt.Before(out[j].BookedAt) })
	return out, nil
}

func (s *memBookings) CreatedAtInstant(ctx context.Context, at time.Time) ([]model.Booking, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.Booking
	for _, b := range s.st.bookings {
		if b.BookedAt.Equal(at) {
			out = append(out, *b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memUsers struct{ st *memState }

func (s *memUsers) GetByName(ctx context.Context, name string) (*model.User, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[name]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (s *memUsers) GetByNameTx(ctx context.Context, tx *sql.Tx, name string) (*model.User, error) {
	return s.GetByName(ctx, name)
}

func (s *memUsers) CreateTx(ctx context.Context, tx *sql.Tx, u *model.User) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u.ID = s.st.id()
	cp := *u
	s.st.users[u.UserName] = &cp
	return nil
}

func (s *memUsers) GetOrCreateTx(ctx context.Context, tx *sql.Tx, name, role string) (*model.User, error) {
	if u, err := s.GetByName(ctx, name); err == nil {
		return u, nil
	}
	u := &model.User{UserName: name, Role: role, Coupons: model.DefaultCoupons}
	if err := s.CreateTx(ctx, tx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *memUsers) AddCouponsTx(ctx context.Context, tx *sql.Tx, name string, delta int) error {
	return s.AddCoupons(ctx, name, delta)
}

func (s *memUsers) AddCoupons(ctx context.Context, name string, delta int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[name]
	if !ok {
		return sql.ErrNoRows
	}
	u.Coupons += delta
	return nil
}

func (s *memUsers) SetCoupons(ctx context.Context, name string, value int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[name]
	if !ok {
		return sql.ErrNoRows
	}
	u.Coupons = value
	return nil
}

func (s *memUsers) UpdateRoleAndCoupons(ctx context.Context, name, role string, coupons int) error {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	u, ok := s.st.users[name]
	if !ok {
		return sql.ErrNoRows
	}
	u.Role = role
	u.Coupons = coupons
	return nil
}

func (s *memUsers) ListSummaries(ctx context.Context) ([]model.UserSummary, error) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	var out []model.UserSummary
	for _, u := range s.st.users {
		if u.Role == model.RoleAnon {
			continue
		}
		total := 0
		for _, b := range s.st.bookings {
			if b.BookedBy == u.UserName {
				total++
			}
		}
		out = append(out, model.UserSummary{
			UserName:      u.UserName,
			IsAdmin:       u.Role == model.RoleAdmin,
			TotalBookings: total,
			Coupons:       u.Coupons,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

// newTestEngine builds a Service over fresh in-memory stores and the
// inert driver, with a caller-controlled clock.
func newTestEngine(t *testing.T, clock func() time.Time) (*Service, *memState) {
	t.Helper()
	db, err := sql.Open("inert", "")
	if err != nil {
		t.Fatalf("open inert db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	st := newMemState()
	svc := New(db, &memSlots{st}, &memAppts{st}, &memBookings{st}, &memUsers{st}, Options{Clock: clock})
	return svc, st
}
