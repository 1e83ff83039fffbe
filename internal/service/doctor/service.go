// Package doctor runs the doctor directory: public self-registration, admin
// maintenance, verification and the uploaded documents.
package doctor

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/internal/service/dedupe"
	"github.com/HealthLane-PH/healthlane-web/internal/storage"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
	"github.com/HealthLane-PH/healthlane-web/pkg/logger"
)

// ClinicResolver is satisfied by clinic.Service.
type ClinicResolver interface {
	Resolve(ctx context.Context, in model.DoctorClinicInput) (*model.Clinic, error)
}

// File is an uploaded document or picture.
type File struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type Config struct {
	SignedURLTTL time.Duration
}

type Service struct {
	repo    repository.DoctorRepository
	clinics ClinicResolver
	store   storage.Storage
	cfg     Config
	log     *logger.Logger
	now     func() time.Time
}

func NewService(repo repository.DoctorRepository, clinics ClinicResolver, store storage.Storage, cfg Config, log *logger.Logger) *Service {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = 15 * time.Minute
	}
	return &Service{
		repo:    repo,
		clinics: clinics,
		store:   store,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
	}
}

// form is a cleaned doctor request.
type form struct {
	model.DoctorRequest
	specializations []string
	clinics         []model.DoctorClinicInput
}

func clean(req *model.DoctorRequest) *form {
	f := &form{DoctorRequest: *req}
	f.FirstName = dedupe.TitleCase(req.FirstName)
	f.MiddleName = dedupe.TitleCase(req.MiddleName)
	f.LastName = dedupe.TitleCase(req.LastName)
	f.NameSuffix = strings.TrimSpace(req.NameSuffix)
	f.Titles = strings.TrimSpace(req.Titles)
	f.Phone = strings.TrimSpace(req.Phone)
	f.Email = model.NormalizeEmail(req.Email)
	f.CredentialExpiry = strings.TrimSpace(req.CredentialExpiry)

	for _, s := range req.Specializations {
		if s = strings.TrimSpace(s); s != "" {
			f.specializations = append(f.specializations, s)
		}
	}
	for _, c := range req.Clinics {
		c.Name = strings.TrimSpace(c.Name)
		c.Contact = strings.TrimSpace(c.Contact)
		if c.Name == "" && c.ClinicID == "" {
			continue
		}
		f.clinics = append(f.clinics, c)
	}
	return f
}

func (f *form) hasContact() bool {
	if f.Phone != "" || f.Email != "" {
		return true
	}
	for _, c := range f.clinics {
		if c.Contact != "" {
			return true
		}
	}
	return false
}

// validate checks the form without touching storage. A clinic entered twice
// is reported as a duplicate.
func (f *form) validate() error {
	switch {
	case f.FirstName == "" || f.LastName == "":
		return errors.Validation("first_name", "first and last name are required")
	case len(f.specializations) == 0:
		return errors.Validation("specializations", "at least one specialization is required")
	case len(f.clinics) == 0:
		return errors.Validation("clinics", "at least one clinic is required")
	case !f.hasContact():
		return errors.Validation("phone", "a phone number, email or clinic contact is required")
	}
	if f.Status != "" && !validStatus(model.DoctorStatus(f.Status)) {
		return errors.Validation("status", "status must be one of pending, active, suspended")
	}

	entries := make([]dedupe.NamedEntity, len(f.clinics))
	for i, c := range f.clinics {
		entries[i] = dedupe.NamedEntity{ID: c.ClinicID, Name: c.Name}
	}
	if _, _, found := dedupe.FindRepeatedClinic(entries); found {
		return errors.Duplicate("the same clinic is listed more than once", "")
	}
	return nil
}

func validStatus(s model.DoctorStatus) bool {
	switch s {
	case model.DoctorStatusPending, model.DoctorStatusActive, model.DoctorStatusSuspended:
		return true
	}
	return false
}

// checkDuplicate rejects a doctor whose name matches an existing one. The
// doctor with ignoreID is skipped.
func (s *Service) checkDuplicate(ctx context.Context, f *form, ignoreID uuid.UUID) error {
	existing, err := s.repo.List(ctx, nil)
	if err != nil {
		return errors.Storage("list doctors", err)
	}
	names := make([]dedupe.PersonName, 0, len(existing))
	for _, d := range existing {
		names = append(names, dedupe.PersonName{ID: d.ID.String(), First: d.FirstName, Middle: d.MiddleName, Last: d.LastName})
	}
	ignore := ""
	if ignoreID != uuid.Nil {
		ignore = ignoreID.String()
	}
	candidate := dedupe.PersonName{First: f.FirstName, Middle: f.MiddleName, Last: f.LastName}
	if id, found := dedupe.FindPersonConflict(candidate, names, ignore); found {
		return errors.Duplicate("a doctor with this name already exists", id)
	}
	return nil
}

func (s *Service) resolveClinics(ctx context.Context, inputs []model.DoctorClinicInput) (model.DoctorClinics, error) {
	out := make(model.DoctorClinics, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		c, err := s.clinics.Resolve(ctx, in)
		if err != nil {
			return nil, err
		}
		// An id and a name can still land on the same clinic.
		if _, dup := seen[c.ID]; dup {
			return nil, errors.Duplicate("the same clinic is listed more than once", "")
		}
		seen[c.ID] = struct{}{}
		out = append(out, model.DoctorClinic{ClinicID: c.ID, Name: c.Name, Contact: in.Contact})
	}
	return out, nil
}

// prepare runs every check and clinic resolution shared by create and update.
func (s *Service) prepare(ctx context.Context, req *model.DoctorRequest, ignoreID uuid.UUID) (*form, model.DoctorClinics, error) {
	f := clean(req)
	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	if err := s.checkDuplicate(ctx, f, ignoreID); err != nil {
		return nil, nil, err
	}
	refs, err := s.resolveClinics(ctx, f.clinics)
	if err != nil {
		return nil, nil, err
	}
	return f, refs, nil
}

func (f *form) apply(d *model.Doctor, refs model.DoctorClinics) {
	d.FirstName = f.FirstName
	d.MiddleName = f.MiddleName
	d.LastName = f.LastName
	d.NameSuffix = f.NameSuffix
	d.Titles = f.Titles
	d.Specializations = f.specializations
	d.Phone = f.Phone
	d.Email = f.Email
	d.Clinics = refs
	if f.Tier != "" {
		d.Tier = model.DoctorTier(f.Tier)
	}
	if f.CredentialExpiry != "" {
		expiry := f.CredentialExpiry
		d.CredentialExpiry = &expiry
	}
}

func statusEvent(d *model.Doctor, before model.DoctorStatus) (*model.OutboxEvent, error) {
	evt, err := model.NewOutboxEvent(model.EventDoctorStatusChanged, model.DoctorStatusChangedPayload{
		DoctorID: d.ID,
		Before:   before,
		After:    d.Status,
	})
	if err != nil {
		return nil, errors.Internal(err)
	}
	return evt, nil
}

func (s *Service) create(ctx context.Context, d *model.Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.Tier == "" {
		d.Tier = model.DoctorTierRegular
	}
	evt, err := statusEvent(d, "")
	if err != nil {
		return err
	}
	if err := s.repo.Create(ctx, d, evt); err != nil {
		return errors.Storage("create doctor", err)
	}
	return nil
}

// Register is public self-registration. The doctor starts pending and must
// consent and attach a photo of their PRC ID.
func (s *Service) Register(ctx context.Context, req *model.RegisterDoctorRequest, credential *File) (*model.Doctor, error) {
	if !req.Consent {
		return nil, errors.Validation("consent", "you must agree to the consent form before submitting")
	}
	if credential == nil || credential.Content == nil {
		return nil, errors.Validation("prc_file", "a photo of your PRC ID is required")
	}
	if model.NormalizeEmail(req.Email) == "" {
		return nil, errors.Validation("email", "email is required")
	}

	dreq := req.DoctorRequest
	dreq.Status = ""
	f, refs, err := s.prepare(ctx, &dreq, uuid.Nil)
	if err != nil {
		return nil, err
	}

	key, err := s.upload(ctx, storage.CredentialPrefix, credential)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d := &model.Doctor{
		Status:               model.DoctorStatusPending,
		CredentialPath:       &key,
		CredentialUploadedAt: &now,
		Consent:              true,
	}
	f.apply(d, refs)
	d.SetCreated(model.SystemActor)

	if err := s.create(ctx, d); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error(delErr, "Failed to remove orphaned credential", "key", key)
		}
		return nil, err
	}
	s.log.Info("Doctor registered", "doctor_id", d.ID.String())
	return d, nil
}

// Create is the admin entry form. Status defaults to active.
func (s *Service) Create(ctx context.Context, req *model.DoctorRequest, actor model.Actor) (*model.Doctor, error) {
	f, refs, err := s.prepare(ctx, req, uuid.Nil)
	if err != nil {
		return nil, err
	}

	d := &model.Doctor{Status: model.DoctorStatusActive}
	if f.Status != "" {
		d.Status = model.DoctorStatus(f.Status)
	}
	f.apply(d, refs)
	d.SetCreated(actor)

	if err := s.create(ctx, d); err != nil {
		return nil, err
	}
	s.log.Info("Doctor created", "doctor_id", d.ID.String(), "by", actor.Name)
	return d, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("doctor", err)
		}
		return nil, errors.Storage("load doctor", err)
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, filter *model.DoctorFilter) ([]*model.Doctor, int, error) {
	if filter == nil {
		filter = &model.DoctorFilter{}
	}
	doctors, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("list doctors", err)
	}
	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, errors.Storage("count doctors", err)
	}
	return doctors, total, nil
}

func (s *Service) Count(ctx context.Context, filter *model.DoctorFilter) (int, error) {
	n, err := s.repo.Count(ctx, filter)
	if err != nil {
		return 0, errors.Storage("count doctors", err)
	}
	return n, nil
}

func (s *Service) save(ctx context.Context, d *model.Doctor, before model.DoctorStatus) error {
	var events []*model.OutboxEvent
	if d.Status != before {
		evt, err := statusEvent(d, before)
		if err != nil {
			return err
		}
		events = append(events, evt)
	}
	if err := s.repo.Update(ctx, d, events...); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("doctor", err)
		}
		return errors.Storage("update doctor", err)
	}
	return nil
}

// Update replaces the form fields of a doctor. The doctor itself is ignored
// by the duplicate check.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.DoctorRequest, actor model.Actor) (*model.Doctor, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	f, refs, err := s.prepare(ctx, req, id)
	if err != nil {
		return nil, err
	}

	before := d.Status
	f.apply(d, refs)
	if f.Status != "" {
		d.Status = model.DoctorStatus(f.Status)
	}
	d.SetUpdated(actor)

	if err := s.save(ctx, d, before); err != nil {
		return nil, err
	}
	return d, nil
}

// UpdateStatus moves a doctor between pending, active and suspended.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, status model.DoctorStatus, actor model.Actor) (*model.Doctor, error) {
	if !validStatus(status) {
		return nil, errors.Validation("status", "status must be one of pending, active, suspended")
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Status == status {
		return d, nil
	}

	before := d.Status
	d.Status = status
	d.SetUpdated(actor)
	if err := s.save(ctx, d, before); err != nil {
		return nil, err
	}
	s.log.Info("Doctor status changed", "doctor_id", id.String(), "before", before, "after", status)
	return d, nil
}

// Delete removes the doctor and, best effort, their uploads.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	d, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("doctor", err)
		}
		return errors.Storage("delete doctor", err)
	}
	for _, p := range []*string{d.CredentialPath, d.ProfilePicPath} {
		if p == nil {
			continue
		}
		if err := s.store.Delete(ctx, *p); err != nil {
			s.log.Warn("Failed to delete doctor upload", "doctor_id", id.String(), "key", *p, "error", err.Error())
		}
	}
	return nil
}

func (s *Service) upload(ctx context.Context, prefix string, f *File) (string, error) {
	key := storage.ObjectKey(prefix, f.Filename, s.now())
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if err := s.store.Put(ctx, key, f.Content, contentType); err != nil {
		return "", errors.Storage("upload file", err)
	}
	return key, nil
}

// CredentialURL returns a short-lived link to the stored PRC ID.
func (s *Service) CredentialURL(ctx context.Context, id uuid.UUID) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if d.CredentialPath == nil {
		return "", errors.NotFound("credential document", nil)
	}
	url, err := s.store.SignedURL(ctx, *d.CredentialPath, s.cfg.SignedURLTTL)
	if err != nil {
		return "", errors.Storage("sign credential url", err)
	}
	return url, nil
}

// RemoveCredential deletes the stored document and clears the path. A blob
// that is already gone is not an error.
func (s *Service) RemoveCredential(ctx context.Context, id uuid.UUID, actor model.Actor) (*model.Doctor, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.CredentialPath != nil {
		if err := s.store.Delete(ctx, *d.CredentialPath); err != nil {
			return nil, errors.Storage("delete credential document", err)
		}
	}
	d.CredentialPath = nil
	d.CredentialUploadedAt = nil
	d.SetUpdated(actor)
	if err := s.save(ctx, d, d.Status); err != nil {
		return nil, err
	}
	return d, nil
}

// SetProfilePicture stores a new picture and removes the one it replaces.
func (s *Service) SetProfilePicture(ctx context.Context, id uuid.UUID, pic *File, actor model.Actor) (*model.Doctor, error) {
	if pic == nil || pic.Content == nil {
		return nil, errors.Validation("file", "a picture is required")
	}
	d, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	key, err := s.upload(ctx, storage.ProfilePicPrefix, pic)
	if err != nil {
		return nil, err
	}
	old := d.ProfilePicPath
	now := s.now().UTC()
	d.ProfilePicPath = &key
	d.ProfilePicUploadedAt = &now
	d.SetUpdated(actor)

	if err := s.save(ctx, d, d.Status); err != nil {
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			s.log.Error(delErr, "Failed to remove orphaned picture", "key", key)
		}
		return nil, err
	}
	if old != nil {
		if err := s.store.Delete(ctx, *old); err != nil {
			s.log.Warn("Failed to delete replaced picture", "doctor_id", id.String(), "error", err.Error())
		}
	}
	return d, nil
}
