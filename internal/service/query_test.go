package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crmline/intakebot/internal/domain"
)

type fakeQueryStore struct {
	summaries   []domain.IntakeSummary
	byRequester map[int64][]domain.IntakeSummary
	details     map[int64]domain.IntakeDetails
	attachments map[int64][]domain.Attachment
}

func (f *fakeQueryStore) ListIntakeSummaries(context.Context) ([]domain.IntakeSummary, error) {
	return f.summaries, nil
}

func (f *fakeQueryStore) ListIntakeSummariesByRequester(_ context.Context, telegramID int64) ([]domain.IntakeSummary, error) {
	return f.byRequester[telegramID], nil
}

func (f *fakeQueryStore) GetIntakeDetails(_ context.Context, id int64) (*domain.IntakeDetails, error) {
	d, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("get intake details: %w", domain.ErrNotFound)
	}
	return &d, nil
}

func (f *fakeQueryStore) ListAttachments(_ context.Context, intakeID int64) ([]domain.Attachment, error) {
	return f.attachments[intakeID], nil
}

func elevatedReader() domain.Profile {
	return domain.Profile{Elevated: true, FullName: "Оператор", CanRead: true}
}

func TestListStatusesAnonymousOnlyOwnRecords(t *testing.T) {
	store := &fakeQueryStore{
		summaries: []domain.IntakeSummary{{ID: 1}, {ID: 2}, {ID: 3}},
		byRequester: map[int64][]domain.IntakeSummary{
			100: {{ID: 2, ClientName: "Ivan", Status: "Новая"}},
		},
	}
	svc := NewQueryService(store)

	got, err := svc.ListStatuses(context.Background(), 100, domain.Anonymous)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestListStatusesElevatedSeesAll(t *testing.T) {
	store := &fakeQueryStore{
		summaries: []domain.IntakeSummary{{ID: 3}, {ID: 2}, {ID: 1}},
	}
	svc := NewQueryService(store)

	got, err := svc.ListStatuses(context.Background(), 100, elevatedReader())
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestGetFullRecord(t *testing.T) {
	store := &fakeQueryStore{
		details: map[int64]domain.IntakeDetails{
			5: {ID: 5, ClientName: "Ivan", Status: "Новая", CreatedAt: time.Now()},
		},
		attachments: map[int64][]domain.Attachment{
			5: {{ID: 1, IntakeID: 5, OriginalName: "a.pdf"}},
		},
	}
	svc := NewQueryService(store)

	details, atts, err := svc.GetFullRecord(context.Background(), elevatedReader(), 5)
	require.NoError(t, err)
	assert.Equal(t, "Ivan", details.ClientName)
	require.Len(t, atts, 1)
	assert.Equal(t, "a.pdf", atts[0].OriginalName)
}

func TestGetFullRecordNotFound(t *testing.T) {
	svc := NewQueryService(&fakeQueryStore{details: map[int64]domain.IntakeDetails{}})

	details, atts, err := svc.GetFullRecord(context.Background(), elevatedReader(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, details, "no partial render on a missing record")
	assert.Nil(t, atts)
}

func TestGetFullRecordForbiddenForAnonymous(t *testing.T) {
	svc := NewQueryService(&fakeQueryStore{
		details: map[int64]domain.IntakeDetails{5: {ID: 5}},
	})

	_, _, err := svc.GetFullRecord(context.Background(), domain.Anonymous, 5)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
