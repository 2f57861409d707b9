package service

import (
	"context"
	"strings"

	"github.com/radake/polihub/shared/domain"
	"github.com/radake/polihub/shared/errors"
	"github.com/radake/polihub/shared/logger"
)

type PoliticianService interface {
	Create(ctx context.Context, p domain.Politician) (domain.Politician, error)
	Update(ctx context.Context, p domain.Politician) (domain.Politician, error)
	Delete(ctx context.Context, id domain.PoliticianId) error
	List(ctx context.Context) ([]domain.Politician, error)
}

type PoliticianStorage interface {
	SavePolitician(ctx context.Context, p domain.Politician) (domain.Politician, error)
	UpdatePolitician(ctx context.Context, p domain.Politician) (domain.Politician, error)
	DeletePolitician(ctx context.Context, id domain.PoliticianId) error
	Politicians(ctx context.Context) ([]domain.Politician, error)
}

type Politician struct {
	storage PoliticianStorage
}

func NewPolitician(storage PoliticianStorage) *Politician {
	return &Politician{storage: storage}
}

func (s *Politician) Create(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	if err := validatePolitician(&p); err != nil {
		return domain.Politician{}, err
	}
	saved, err := s.storage.SavePolitician(ctx, p)
	if err != nil {
		return domain.Politician{}, err
	}
	logger.Log.Info("politician created", "politician_id", saved.Id)
	return saved, nil
}

func (s *Politician) Update(ctx context.Context, p domain.Politician) (domain.Politician, error) {
	if err := validatePolitician(&p); err != nil {
		return domain.Politician{}, err
	}
	return s.storage.UpdatePolitician(ctx, p)
}

func (s *Politician) Delete(ctx context.Context, id domain.PoliticianId) error {
	if err := s.storage.DeletePolitician(ctx, id); err != nil {
		return err
	}
	logger.Log.Info("politician deleted", "politician_id", id)
	return nil
}

func (s *Politician) List(ctx context.Context) ([]domain.Politician, error) {
	return s.storage.Politicians(ctx)
}

func validatePolitician(p *domain.Politician) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Position = strings.TrimSpace(p.Position)
	if p.Name == "" || p.Position == "" {
		return errors.Validation("Name and position are required")
	}
	if p.County != "" && !validCounty(p.County) {
		return errors.Validation("Unknown county")
	}
	return nil
}
