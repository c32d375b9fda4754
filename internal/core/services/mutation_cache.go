package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/custodia-labs/stockline/internal/core/domain"
	"github.com/custodia-labs/stockline/internal/logger"
)

// MutationHandler sends a queued mutation record to the server and settles
// the cache. It is registered per mutation key so records restored from
// durable storage can be resumed after a restart.
type MutationHandler func(ctx context.Context, rec domain.MutationRecord) error

// MutationCache tracks write operations from invocation until they settle.
// Invocations sharing a mutation key are serialised.
type MutationCache struct {
	now func() time.Time

	mu        sync.Mutex
	records   []*domain.MutationRecord
	keyLocks  map[domain.MutationKey]*sync.Mutex
	defaults  map[domain.MutationKey]MutationHandler
	rollbacks map[string]func()
	settled   map[string]bool
	listeners map[int]func()
	nextSub   int

	resumeMu sync.Mutex
}

// NewMutationCache creates an empty mutation cache.
func NewMutationCache() *MutationCache {
	return &MutationCache{
		now:       time.Now,
		keyLocks:  make(map[domain.MutationKey]*sync.Mutex),
		defaults:  make(map[domain.MutationKey]MutationHandler),
		rollbacks: make(map[string]func()),
		settled:   make(map[string]bool),
		listeners: make(map[int]func()),
	}
}

// Subscribe registers fn to be called after every record change.
func (m *MutationCache) Subscribe(fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.listeners[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

func (m *MutationCache) notify() {
	m.mu.Lock()
	fns := make([]func(), 0, len(m.listeners))
	for _, fn := range m.listeners {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (m *MutationCache) lock(key domain.MutationKey) func() {
	m.mu.Lock()
	l, ok := m.keyLocks[key]
	if !ok {
		l = &sync.Mutex{}
		m.keyLocks[key] = l
	}
	m.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// SetMutationDefaults registers the handler used to resume records of key.
func (m *MutationCache) SetMutationDefaults(key domain.MutationKey, h MutationHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults[key] = h
}

// checkDuplicate rejects a write whose idempotency key is still outstanding
// or already succeeded.
func (m *MutationCache) checkDuplicate(key domain.MutationKey, idem string) error {
	if idem == "" {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.settled[idem] {
		return fmt.Errorf("%w: %s %s already applied", domain.ErrDuplicateMutation, key, idem)
	}
	for _, r := range m.records {
		if r.IdempotencyKey == idem && r.Status.IsOutstanding() {
			return fmt.Errorf("%w: %s %s is queued", domain.ErrDuplicateMutation, key, idem)
		}
	}
	return nil
}

// begin records a new pending invocation.
func (m *MutationCache) begin(key domain.MutationKey, input any, subject int64, idem string) (domain.MutationRecord, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return domain.MutationRecord{}, fmt.Errorf("encode %s input: %w", key, err)
	}
	now := m.now()
	rec := &domain.MutationRecord{
		ID:             uuid.NewString(),
		Key:            key,
		Status:         domain.MutationPending,
		Input:          raw,
		Subject:        subject,
		IdempotencyKey: idem,
		CreatedAt:      now,
		SubmittedAt:    now,
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	m.notify()
	return *rec, nil
}

func (m *MutationCache) findLocked(id string) (int, *domain.MutationRecord) {
	for i, r := range m.records {
		if r.ID == id {
			return i, r
		}
	}
	return -1, nil
}

// pause parks a record until reconnect. rollback undoes its optimistic patch
// if the write later fails in this process.
func (m *MutationCache) pause(id string, rollback func()) {
	m.mu.Lock()
	if _, r := m.findLocked(id); r != nil {
		r.Status = domain.MutationPaused
		if rollback != nil {
			m.rollbacks[id] = rollback
		}
	}
	m.mu.Unlock()
	m.notify()
}

// succeed removes a settled record.
func (m *MutationCache) succeed(id string) {
	m.mu.Lock()
	if i, r := m.findLocked(id); r != nil {
		if r.IdempotencyKey != "" {
			m.settled[r.IdempotencyKey] = true
		}
		m.records = append(m.records[:i], m.records[i+1:]...)
		delete(m.rollbacks, id)
	}
	m.mu.Unlock()
	m.notify()
}

// fail keeps the record in error state until acknowledged.
func (m *MutationCache) fail(id string, err error) {
	m.mu.Lock()
	if _, r := m.findLocked(id); r != nil {
		r.Status = domain.MutationError
		r.Error = err.Error()
		delete(m.rollbacks, id)
	}
	m.mu.Unlock()
	m.notify()
}

func (m *MutationCache) takeRollback(id string) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn := m.rollbacks[id]
	delete(m.rollbacks, id)
	return fn
}

// Records returns copies of every tracked record in invocation order.
func (m *MutationCache) Records() []domain.MutationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MutationRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out
}

// PendingCount is the number of records that have not reached the server.
func (m *MutationCache) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.records {
		if r.Status.IsOutstanding() {
			n++
		}
	}
	return n
}

// HasError reports whether any record failed and was not acknowledged.
func (m *MutationCache) HasError() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.Status == domain.MutationError {
			return true
		}
	}
	return false
}

// Ack removes a failed record.
func (m *MutationCache) Ack(id string) error {
	m.mu.Lock()
	i, r := m.findLocked(id)
	if r == nil || r.Status != domain.MutationError {
		m.mu.Unlock()
		return fmt.Errorf("mutation %s: %w", id, domain.ErrNotFound)
	}
	m.records = append(m.records[:i], m.records[i+1:]...)
	m.mu.Unlock()
	m.notify()
	return nil
}

// AckAll removes every failed record and returns how many were removed.
func (m *MutationCache) AckAll() int {
	m.mu.Lock()
	kept := m.records[:0]
	n := 0
	for _, r := range m.records {
		if r.Status == domain.MutationError {
			n++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	m.mu.Unlock()
	if n > 0 {
		m.notify()
	}
	return n
}

// discardPaused drops paused records of key targeting subject without
// sending them. It reports whether any record was dropped.
func (m *MutationCache) discardPaused(key domain.MutationKey, subject int64) bool {
	m.mu.Lock()
	kept := m.records[:0]
	dropped := false
	for _, r := range m.records {
		if r.Key == key && r.Subject == subject && r.Status == domain.MutationPaused {
			delete(m.rollbacks, r.ID)
			dropped = true
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	m.mu.Unlock()
	if dropped {
		m.notify()
	}
	return dropped
}

// replacePausedInput rewrites the input of the paused record of key
// targeting subject. It reports whether a record was found.
func (m *MutationCache) replacePausedInput(key domain.MutationKey, subject int64, input any) (bool, error) {
	raw, err := json.Marshal(input)
	if err != nil {
		return false, fmt.Errorf("encode %s input: %w", key, err)
	}
	m.mu.Lock()
	found := false
	for _, r := range m.records {
		if r.Key == key && r.Subject == subject && r.Status == domain.MutationPaused {
			r.Input = raw
			found = true
		}
	}
	m.mu.Unlock()
	if found {
		m.notify()
	}
	return found, nil
}

// Load adds records restored from durable storage. Records that were in
// flight when the previous process stopped are paused again; records
// already tracked are skipped.
func (m *MutationCache) Load(recs []domain.MutationRecord) int {
	m.mu.Lock()
	n := 0
	for _, r := range recs {
		if _, existing := m.findLocked(r.ID); existing != nil {
			continue
		}
		if r.Status == domain.MutationPending || r.Status == domain.MutationIdle {
			r.Status = domain.MutationPaused
		}
		if r.Status != domain.MutationPaused && r.Status != domain.MutationError {
			continue
		}
		rec := r
		m.records = append(m.records, &rec)
		n++
	}
	m.mu.Unlock()
	if n > 0 {
		m.notify()
	}
	return n
}

// ResumePaused sends every paused record in invocation order using the
// handlers registered with SetMutationDefaults. Failed records move to the
// error state; the failures are returned joined.
func (m *MutationCache) ResumePaused(ctx context.Context) error {
	m.resumeMu.Lock()
	defer m.resumeMu.Unlock()

	var errs []error
	for _, rec := range m.Records() {
		if rec.Status != domain.MutationPaused {
			continue
		}
		m.mu.Lock()
		h := m.defaults[rec.Key]
		if _, r := m.findLocked(rec.ID); r != nil {
			r.Status = domain.MutationPending
			r.SubmittedAt = m.now()
		}
		m.mu.Unlock()
		m.notify()

		if h == nil {
			err := fmt.Errorf("%w: %s", domain.ErrNoMutationDefaults, rec.Key)
			m.fail(rec.ID, err)
			errs = append(errs, err)
			continue
		}
		if err := h(ctx, rec); err != nil {
			if errors.Is(err, context.Canceled) {
				m.pause(rec.ID, nil)
				return errors.Join(append(errs, err)...)
			}
			m.fail(rec.ID, err)
			errs = append(errs, fmt.Errorf("resume %s %s: %w", rec.Key, rec.ID, err))
			continue
		}
		logger.Info("mutations: resumed %s %s", rec.Key, rec.ID)
		m.succeed(rec.ID)
	}
	return errors.Join(errs...)
}
