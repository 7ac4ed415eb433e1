//go:build unit || e2e

// Package memstore is an in-memory shared.UnitOfWork. Transactions are serialized and applied
// copy-on-write, so a failing fn leaves no trace.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"parcel-booking/internal/domain/booking"
	"parcel-booking/internal/infra"
	"parcel-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

type JobRecord struct {
	shared.NotificationJob
	Status    string
	LastError string
}

type state struct {
	staged   map[string]*booking.StagedBooking
	bookings map[string]*booking.Booking
	jobs     map[uuid.UUID]*JobRecord
	seq      int
}

func (s *state) clone() *state {
	c := &state{
		staged:   make(map[string]*booking.StagedBooking, len(s.staged)),
		bookings: make(map[string]*booking.Booking, len(s.bookings)),
		jobs:     make(map[uuid.UUID]*JobRecord, len(s.jobs)),
		seq:      s.seq,
	}
	for k, v := range s.staged {
		c.staged[k] = cloneStaged(v)
	}
	for k, v := range s.bookings {
		c.bookings[k] = cloneBooking(v)
	}
	for k, v := range s.jobs {
		j := *v
		c.jobs[k] = &j
	}
	return c
}

type Store struct {
	mu    sync.RWMutex
	state *state

	failUpdateState int
	commits         int
}

var _ shared.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{state: &state{
		staged:   map[string]*booking.StagedBooking{},
		bookings: map[string]*booking.Booking{},
		jobs:     map[uuid.UUID]*JobRecord{},
	}}
}

func (s *Store) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(ctx, &memTx{store: s, st: work}); err != nil {
		return err
	}
	s.state = work
	s.commits++
	return nil
}

func (s *Store) CommandReads() shared.CommandReads {
	return &reads{store: s}
}

// FailNextUpdates makes the next n booking state updates fail, simulating a crash after materialization.
func (s *Store) FailNextUpdates(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failUpdateState = n
}

// Seeding and inspection

func (s *Store) PutStaged(st *booking.StagedBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.staged[st.Reference().String()] = cloneStaged(st)
}

// PutBooking stores b under id, replacing whatever id b carries.
func (s *Store) PutBooking(id string, b *booking.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.bookings[id] = withID(id, b)
}

func (s *Store) Staged(ref string) (*booking.StagedBooking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.state.staged[ref]
	if !ok {
		return nil, false
	}
	return cloneStaged(st), true
}

func (s *Store) Booking(id string) (*booking.Booking, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.state.bookings[id]
	if !ok {
		return nil, false
	}
	return cloneBooking(b), true
}

// Bookings returns all bookings ordered by id.
func (s *Store) Bookings() []*booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*booking.Booking, 0, len(s.state.bookings))
	for _, b := range s.state.bookings {
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

func (s *Store) BookingsBySource(ref string) []*booking.Booking {
	var out []*booking.Booking
	for _, b := range s.Bookings() {
		if src := b.SourceReference(); src != nil && *src == ref {
			out = append(out, b)
		}
	}
	return out
}

func (s *Store) Jobs() []JobRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]JobRecord, 0, len(s.state.jobs))
	for _, j := range s.state.jobs {
		out = append(out, *j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RunAt.Before(out[j].RunAt) })
	return out
}

// InTransaction reports whether a Within callback is currently running.
func (s *Store) InTransaction() bool {
	if s.mu.TryLock() {
		s.mu.Unlock()
		return false
	}
	return true
}

func (s *Store) Commits() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.commits
}

type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) Staging() shared.StagingRepository            { return &stagingRepo{st: t.st} }
func (t *memTx) Bookings() shared.BookingRepository           { return &bookingRepo{tx: t} }
func (t *memTx) Notifications() shared.NotificationRepository { return &notificationRepo{st: t.st} }

type stagingRepo struct {
	st *state
}

func (r *stagingRepo) Create(_ context.Context, staged *booking.StagedBooking) error {
	key := staged.Reference().String()
	if _, ok := r.st.staged[key]; ok {
		return infra.NewRepoErr(infra.KindDuplicateKey, "staged booking exists")
	}
	r.st.staged[key] = cloneStaged(staged)
	return nil
}

func (r *stagingRepo) GetForUpdate(_ context.Context, ref booking.Reference) (*booking.StagedBooking, error) {
	st, ok := r.st.staged[ref.String()]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "staged booking not found")
	}
	return cloneStaged(st), nil
}

func (r *stagingRepo) Resolve(_ context.Context, ref booking.Reference, bookingID string, purgeAfter time.Time) error {
	st, ok := r.st.staged[ref.String()]
	if !ok || st.IsResolved() {
		return infra.NewRepoErr(infra.KindConflict, "staged booking already resolved")
	}
	c := cloneStaged(st)
	c.Resolve(bookingID, purgeAfter)
	r.st.staged[ref.String()] = c
	return nil
}

func (r *stagingRepo) DeleteUnresolved(_ context.Context, ref booking.Reference) (bool, error) {
	st, ok := r.st.staged[ref.String()]
	if !ok || st.IsResolved() {
		return false, nil
	}
	delete(r.st.staged, ref.String())
	return true, nil
}

func (r *stagingRepo) PurgeResolved(_ context.Context, ref string, now time.Time) (bool, error) {
	st, ok := r.st.staged[ref]
	if !ok || !purgeable(st, now) {
		return false, nil
	}
	delete(r.st.staged, ref)
	return true, nil
}

func (r *stagingRepo) PurgeDue(_ context.Context, now time.Time, limit int) (int64, error) {
	var n int64
	for key, st := range r.st.staged {
		if int(n) >= limit {
			break
		}
		if purgeable(st, now) {
			delete(r.st.staged, key)
			n++
		}
	}
	return n, nil
}

func purgeable(st *booking.StagedBooking, now time.Time) bool {
	return st.IsResolved() && st.PurgeAfter() != nil && !st.PurgeAfter().After(now)
}

type bookingRepo struct {
	tx *memTx
}

func (r *bookingRepo) Create(_ context.Context, b *booking.Booking) (string, error) {
	st := r.tx.st
	if src := b.SourceReference(); src != nil {
		for _, existing := range st.bookings {
			if es := existing.SourceReference(); es != nil && *es == *src {
				return "", infra.NewRepoErr(infra.KindDuplicateKey, "source reference already used")
			}
		}
	}
	st.seq++
	id := fmt.Sprintf("b%d", st.seq)
	st.bookings[id] = withID(id, b)
	return id, nil
}

func (r *bookingRepo) GetForUpdate(_ context.Context, id string) (*booking.Booking, error) {
	b, ok := r.tx.st.bookings[id]
	if !ok {
		return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
	}
	return cloneBooking(b), nil
}

func (r *bookingRepo) FindByProvenanceForUpdate(_ context.Context, p shared.Provenance) (*booking.Booking, error) {
	if b := findByProvenance(r.tx.st, p); b != nil {
		return b, nil
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
}

func (r *bookingRepo) UpdateState(_ context.Context, b *booking.Booking, prev shared.BookingState) error {
	if r.tx.store.failUpdateState > 0 {
		r.tx.store.failUpdateState--
		return infra.NewRepoErr(infra.KindDBFailure, "injected update failure")
	}
	current, ok := r.tx.st.bookings[b.ID()]
	if !ok || shared.StateOf(current) != prev {
		return infra.NewRepoErr(infra.KindConflict, "booking state changed concurrently")
	}
	r.tx.st.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func findByProvenance(st *state, p shared.Provenance) *booking.Booking {
	for _, b := range st.bookings {
		src := b.SourceReference()
		if src == nil || *src != p.Reference {
			continue
		}
		if (p.UserID == "" || b.UserID() == p.UserID) && b.Fare().Equal(p.Fare) && b.PaymentMethod() == booking.MethodOnline {
			return cloneBooking(b)
		}
	}
	return nil
}

type notificationRepo struct {
	st *state
}

func (r *notificationRepo) CreateJob(_ context.Context, kind, topic string, payload []byte, runAt time.Time) error {
	id := uuid.New()
	r.st.jobs[id] = &JobRecord{
		NotificationJob: shared.NotificationJob{ID: id, Kind: kind, Topic: topic, Payload: payload, RunAt: runAt},
		Status:          shared.JobStatusQueued,
	}
	return nil
}

func (r *notificationRepo) ClaimDue(_ context.Context, now, leaseUntil time.Time, limit int) ([]shared.NotificationJob, error) {
	var due []*JobRecord
	for _, j := range r.st.jobs {
		if j.Status == shared.JobStatusQueued && !j.RunAt.After(now) {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(i, k int) bool { return due[i].RunAt.Before(due[k].RunAt) })
	if len(due) > limit {
		due = due[:limit]
	}
	out := make([]shared.NotificationJob, 0, len(due))
	for _, j := range due {
		j.RunAt = leaseUntil
		out = append(out, j.NotificationJob)
	}
	return out, nil
}

func (r *notificationRepo) MarkSent(_ context.Context, id uuid.UUID, _ time.Time) error {
	j, ok := r.st.jobs[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	j.Status = shared.JobStatusSent
	j.Attempts++
	return nil
}

func (r *notificationRepo) MarkRetry(_ context.Context, id uuid.UUID, attempts int, nextRunAt time.Time, lastError string) error {
	j, ok := r.st.jobs[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	j.Attempts = attempts
	j.RunAt = nextRunAt
	j.LastError = lastError
	return nil
}

func (r *notificationRepo) MarkFailed(_ context.Context, id uuid.UUID, attempts int, lastError string) error {
	j, ok := r.st.jobs[id]
	if !ok {
		return infra.NewRepoErr(infra.KindNotFound, "job not found")
	}
	j.Status = shared.JobStatusFailed
	j.Attempts = attempts
	j.LastError = lastError
	return nil
}

type reads struct {
	store *Store
}

func (r *reads) StagedByReference(_ context.Context, ref booking.Reference) (*booking.StagedBooking, error) {
	if st, ok := r.store.Staged(ref.String()); ok {
		return st, nil
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "staged booking not found")
}

func (r *reads) BookingByID(_ context.Context, id string) (*booking.Booking, error) {
	if b, ok := r.store.Booking(id); ok {
		return b, nil
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
}

func (r *reads) BookingByProvenance(_ context.Context, p shared.Provenance) (*booking.Booking, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	if b := findByProvenance(r.store.state, p); b != nil {
		return b, nil
	}
	return nil, infra.NewRepoErr(infra.KindNotFound, "booking not found")
}

func cloneStaged(s *booking.StagedBooking) *booking.StagedBooking {
	var resolved *string
	if id := s.ResolvedBookingID(); id != nil {
		v := *id
		resolved = &v
	}
	var purge *time.Time
	if p := s.PurgeAfter(); p != nil {
		v := *p
		purge = &v
	}
	return booking.ReconstructStagedBooking(s.Reference(), s.UserID(), s.Details(), resolved, purge, s.CreatedAt())
}

func cloneBooking(b *booking.Booking) *booking.Booking {
	return withID(b.ID(), b)
}

func withID(id string, b *booking.Booking) *booking.Booking {
	var src *string
	if s := b.SourceReference(); s != nil {
		v := *s
		src = &v
	}
	return booking.ReconstructBooking(id, b.UserID(), b.Details(), b.Status(), b.PaymentStatus(),
		b.PaymentMethod(), b.TrackingNumber(), src, b.CreatedAt(), b.UpdatedAt())
}
