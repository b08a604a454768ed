package service

import (
	"context"
	"fmt"

	"github.com/crmline/intakebot/internal/domain"
)

type queryStore interface {
	ListIntakeSummaries(ctx context.Context) ([]domain.IntakeSummary, error)
	ListIntakeSummariesByRequester(ctx context.Context, telegramID int64) ([]domain.IntakeSummary, error)
	GetIntakeDetails(ctx context.Context, id int64) (*domain.IntakeDetails, error)
	ListAttachments(ctx context.Context, intakeID int64) ([]domain.Attachment, error)
}

// QueryService is the read-only surface over committed intakes.
type QueryService struct {
	store queryStore
}

func NewQueryService(store queryStore) *QueryService {
	return &QueryService{store: store}
}

// ListStatuses returns every intake for an elevated reader and only the
// caller's own intakes otherwise, newest first.
func (s *QueryService) ListStatuses(ctx context.Context, telegramID int64, profile domain.Profile) ([]domain.IntakeSummary, error) {
	if profile.Elevated && profile.CanRead {
		return s.store.ListIntakeSummaries(ctx)
	}
	return s.store.ListIntakeSummariesByRequester(ctx, telegramID)
}

// GetFullRecord returns the denormalized record plus its ordered attachments.
// Elevated read access only.
func (s *QueryService) GetFullRecord(ctx context.Context, profile domain.Profile, recordID int64) (*domain.IntakeDetails, []domain.Attachment, error) {
	if !profile.Elevated || !profile.CanRead {
		return nil, nil, fmt.Errorf("get full record: %w", domain.ErrForbidden)
	}

	details, err := s.store.GetIntakeDetails(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}

	atts, err := s.store.ListAttachments(ctx, recordID)
	if err != nil {
		return nil, nil, err
	}
	return details, atts, nil
}
