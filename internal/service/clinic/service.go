// Package clinic manages the facility records doctors practice in.
package clinic

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/internal/service/dedupe"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
)

const (
	// resolveCandidates bounds the prefix query made while resolving a name.
	resolveCandidates = 5
	minSuggestTerm    = 2
	maxSuggestions    = 8

	snapshotKey = "clinics"
	snapshotTTL = 5 * time.Minute
)

type Service struct {
	repo  repository.ClinicRepository
	cache *cache.Cache
	log   *logger.Logger
}

func NewService(repo repository.ClinicRepository, log *logger.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(snapshotTTL, 2*snapshotTTL),
		log:   log,
	}
}

// Resolve returns the clinic a doctor form entry refers to. An entry with a
// clinic id is kept as-is. Otherwise the normalized name is looked up and a
// new clinic is created when nothing matches.
func (s *Service) Resolve(ctx context.Context, in model.DoctorClinicInput) (*model.Clinic, error) {
	if in.ClinicID != "" {
		id, err := uuid.Parse(in.ClinicID)
		if err != nil {
			return nil, errors.Validation("clinic_id", "clinic_id is not a valid id")
		}
		clinic, err := s.repo.Get(ctx, id)
		if err != nil {
			if stderrors.Is(err, repository.ErrNotFound) {
				return nil, errors.NotFound("clinic", err)
			}
			return nil, errors.Storage("load clinic", err)
		}
		return clinic, nil
	}

	name := dedupe.TitleCase(in.Name)
	key := dedupe.Normalize(name)
	if key == "" {
		return nil, errors.Validation("clinics", "clinic name is required")
	}

	candidates, err := s.repo.ListByKeyPrefix(ctx, key, resolveCandidates)
	if err != nil {
		return nil, errors.Storage("look up clinic", err)
	}
	for _, c := range candidates {
		if c.NameKey == key {
			return c, nil
		}
	}

	clinic := &model.Clinic{
		Base:           model.Base{ID: uuid.New()},
		Name:           name,
		NameKey:        key,
		BuildingStreet: dedupe.TitleCase(in.BuildingStreet),
		City:           orDefault(dedupe.TitleCase(in.City), model.DefaultCity),
		Province:       orDefault(dedupe.TitleCase(in.Province), model.DefaultProvince),
		Contact:        strings.TrimSpace(in.Contact),
		Type:           model.FacilityType(orDefault(in.Type, string(model.FacilityClinic))),
	}
	evt, err := model.NewOutboxEvent(model.EventClinicCreated, model.ClinicCreatedPayload{ClinicID: clinic.ID, Name: clinic.Name})
	if err != nil {
		return nil, errors.Internal(err)
	}

	// A concurrent creation of the same key returns the winner's row.
	stored, created, err := s.repo.FindOrCreate(ctx, clinic, evt)
	if err != nil {
		return nil, errors.Storage("create clinic", err)
	}
	if created {
		s.invalidate()
		s.log.Info("Clinic created", "clinic_id", stored.ID.String(), "name", stored.Name)
	}
	return stored, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("clinic", err)
		}
		return nil, errors.Storage("load clinic", err)
	}
	return clinic, nil
}

func (s *Service) List(ctx context.Context, filter *model.ClinicFilter) ([]*model.Clinic, int, error) {
	if filter == nil {
		filter = &model.ClinicFilter{}
	}
	clinics, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("list clinics", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("count clinics", err)
	}
	return clinics, total, nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx, nil)
	if err != nil {
		return 0, errors.Storage("count clinics", err)
	}
	return n, nil
}

// Update applies the changed fields. A rename re-derives the name key and
// fails with a duplicate error when another clinic already holds it.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateClinicRequest) (*model.Clinic, error) {
	clinic, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		key := dedupe.Normalize(name)
		if key == "" {
			return nil, errors.Validation("name", "name is required")
		}
		if key != clinic.NameKey {
			if conflictID, err := s.findConflict(ctx, name, id); err != nil {
				return nil, err
			} else if conflictID != "" {
				return nil, errors.Duplicate("a clinic with this name already exists", conflictID)
			}
		}
		clinic.Name = name
		clinic.NameKey = key
	}
	if req.BuildingStreet != nil {
		clinic.BuildingStreet = strings.TrimSpace(*req.BuildingStreet)
	}
	if req.City != nil {
		clinic.City = orDefault(*req.City, model.DefaultCity)
	}
	if req.Province != nil {
		clinic.Province = orDefault(*req.Province, model.DefaultProvince)
	}
	if req.Contact != nil {
		clinic.Contact = strings.TrimSpace(*req.Contact)
	}
	if req.Type != nil {
		t := model.FacilityType(*req.Type)
		if !t.Valid() {
			return nil, errors.Validation("type", "type must be one of clinic, laboratory, hospital")
		}
		clinic.Type = t
	}

	if err := s.repo.Update(ctx, clinic); err != nil {
		if stderrors.Is(err, repository.ErrDuplicate) {
			return nil, errors.Duplicate("a clinic with this name already exists", "")
		}
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("clinic", err)
		}
		return nil, errors.Storage("update clinic", err)
	}
	s.invalidate()
	return clinic, nil
}

func (s *Service) findConflict(ctx context.Context, name string, ignoreID uuid.UUID) (string, error) {
	candidates, err := s.repo.ListByKeyPrefix(ctx, dedupe.Normalize(name), resolveCandidates)
	if err != nil {
		return "", errors.Storage("look up clinic", err)
	}
	existing := make([]dedupe.NamedEntity, 0, len(candidates))
	for _, c := range candidates {
		existing = append(existing, dedupe.NamedEntity{ID: c.ID.String(), Name: c.Name})
	}
	id, _ := dedupe.FindClinicConflict(name, existing, ignoreID.String())
	return id, nil
}

type snapshotEntry struct {
	key        string
	suggestion model.ClinicSuggestion
}

func (s *Service) snapshot(ctx context.Context) ([]snapshotEntry, error) {
	if v, ok := s.cache.Get(snapshotKey); ok {
		return v.([]snapshotEntry), nil
	}

	clinics, err := s.repo.List(ctx, &model.ClinicFilter{})
	if err != nil {
		return nil, errors.Storage("list clinics", err)
	}
	entries := make([]snapshotEntry, 0, len(clinics))
	for _, c := range clinics {
		entries = append(entries, snapshotEntry{
			key: dedupe.Normalize(c.Name),
			suggestion: model.ClinicSuggestion{
				ID:             c.ID.String(),
				Name:           c.Name,
				BuildingStreet: c.BuildingStreet,
				City:           orDefault(c.City, model.DefaultCity),
				Province:       orDefault(c.Province, model.DefaultProvince),
				Contact:        c.Contact,
				Type:           c.Type,
			},
		})
	}
	s.cache.Set(snapshotKey, entries, cache.DefaultExpiration)
	return entries, nil
}

func (s *Service) invalidate() {
	s.cache.Delete(snapshotKey)
}

// Suggest matches the normalized term anywhere in clinic names. Terms shorter
// than two characters return nothing.
func (s *Service) Suggest(ctx context.Context, term string) ([]model.ClinicSuggestion, error) {
	t := dedupe.Normalize(term)
	if len([]rune(t)) < minSuggestTerm {
		return []model.ClinicSuggestion{}, nil
	}

	entries, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.ClinicSuggestion, 0, maxSuggestions)
	for _, e := range entries {
		if strings.Contains(e.key, t) {
			out = append(out, e.suggestion)
			if len(out) == maxSuggestions {
				break
			}
		}
	}
	return out, nil
}
