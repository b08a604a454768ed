package service

import (
	"context"

	"github.com/crmline/intakebot/internal/domain"
)

type referenceStore interface {
	ListRequesterKinds(ctx context.Context) ([]domain.Option, error)
	ListCategories(ctx context.Context) ([]domain.Option, error)
	ListSubcategories(ctx context.Context, categoryID int64) ([]domain.Option, error)
	ListContactChannels(ctx context.Context) ([]domain.Option, error)
	ListConvenientTimes(ctx context.Context) ([]domain.Option, error)
}

// ReferenceService exposes the finite enumerations offered at choice steps.
// It satisfies workflow.ReferenceSource.
type ReferenceService struct {
	store referenceStore
}

func NewReferenceService(store referenceStore) *ReferenceService {
	return &ReferenceService{store: store}
}

func (s *ReferenceService) RequesterKinds(ctx context.Context) ([]domain.Option, error) {
	return s.store.ListRequesterKinds(ctx)
}

func (s *ReferenceService) Categories(ctx context.Context) ([]domain.Option, error) {
	return s.store.ListCategories(ctx)
}

func (s *ReferenceService) Subcategories(ctx context.Context, categoryID int64) ([]domain.Option, error) {
	return s.store.ListSubcategories(ctx, categoryID)
}

func (s *ReferenceService) ContactChannels(ctx context.Context) ([]domain.Option, error) {
	return s.store.ListContactChannels(ctx)
}

func (s *ReferenceService) ConvenientTimes(ctx context.Context) ([]domain.Option, error) {
	return s.store.ListConvenientTimes(ctx)
}
