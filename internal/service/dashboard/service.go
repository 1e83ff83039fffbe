// Package dashboard computes the staff dashboard counters.
package dashboard

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/HealthLane-PH/healthlane-web/internal/model"
	"github.com/HealthLane-PH/healthlane-web/internal/repository"
	"github.com/HealthLane-PH/healthlane-web/pkg/errors"
)

type Service struct {
	clinics repository.ClinicRepository
	doctors repository.DoctorRepository
	persons repository.PersonRepository
}

func NewService(clinics repository.ClinicRepository, doctors repository.DoctorRepository, persons repository.PersonRepository) *Service {
	return &Service{clinics: clinics, doctors: doctors, persons: persons}
}

func (s *Service) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	var sum model.DashboardSummary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		sum.Clinics, err = s.clinics.Count(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		sum.Doctors, err = s.doctors.Count(ctx, nil)
		return err
	})
	g.Go(func() (err error) {
		sum.PendingDoctors, err = s.doctors.Count(ctx, &model.DoctorFilter{
			BaseFilter: model.BaseFilter{Status: string(model.DoctorStatusPending)},
		})
		return err
	})
	g.Go(func() (err error) {
		sum.Staff, err = s.persons.Count(ctx, nil)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, errors.Storage("load dashboard counts", err)
	}
	return &sum, nil
}
