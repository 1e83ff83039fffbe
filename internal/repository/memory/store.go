// Package memory implements the repository interfaces on in-process maps.
// Writes that carry outbox events append them to the same store under one
// lock, mirroring the transactional behaviour of the postgres repositories.
package memory

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
)

type Store struct {
	mu          sync.Mutex
	persons     map[uuid.UUID]*model.Person
	doctors     map[uuid.UUID]*model.Doctor
	clinics     map[uuid.UUID]*model.Clinic
	credentials map[uuid.UUID]*model.Credential
	outbox      []*model.OutboxEvent

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		persons:     make(map[uuid.UUID]*model.Person),
		doctors:     make(map[uuid.UUID]*model.Doctor),
		clinics:     make(map[uuid.UUID]*model.Clinic),
		credentials: make(map[uuid.UUID]*model.Credential),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Persons() repository.PersonRepository         { return &personRepository{s} }
func (s *Store) Doctors() repository.DoctorRepository         { return &doctorRepository{s} }
func (s *Store) Clinics() repository.ClinicRepository         { return &clinicRepository{s} }
func (s *Store) Credentials() repository.CredentialRepository { return &credentialRepository{s} }
func (s *Store) Outbox() repository.OutboxRepository          { return &outboxRepository{s} }

// Events returns a copy of every outbox event written so far.
func (s *Store) Events() []model.OutboxEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, *e)
	}
	return out
}

// appendEvents must be called with s.mu held.
func (s *Store) appendEvents(events []*model.OutboxEvent) {
	now := s.now()
	for _, evt := range events {
		if evt == nil {
			continue
		}
		cp := *evt
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		cp.Status = model.OutboxStatusPending
		cp.CreatedAt = now
		cp.UpdatedAt = now
		s.outbox = append(s.outbox, &cp)
	}
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// matchesAllWords reports whether every word of search occurs in text.
func matchesAllWords(text, search string) bool {
	for _, word := range strings.Fields(search) {
		if !containsFold(text, word) {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, p model.Pagination) []T {
	if p.PageSize <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func sortBy[T any](items []T, less func(a, b T) bool) {
	sort.SliceStable(items, func(i, j int) bool { return less(items[i], items[j]) })
}
