package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/crmline/intakebot/internal/domain"
)

type fakeOperatorStore struct {
	operators map[int64]domain.Operator
	levels    map[int64]domain.AccessLevel
	err       error
}

func (f *fakeOperatorStore) GetOperator(_ context.Context, telegramID int64) (*domain.Operator, error) {
	if f.err != nil {
		return nil, f.err
	}
	op, ok := f.operators[telegramID]
	if !ok {
		return nil, fmt.Errorf("get operator: %w", domain.ErrNotFound)
	}
	return &op, nil
}

func (f *fakeOperatorStore) GetAccessLevel(_ context.Context, id int64) (*domain.AccessLevel, error) {
	if f.err != nil {
		return nil, f.err
	}
	lvl, ok := f.levels[id]
	if !ok {
		return nil, fmt.Errorf("get access level: %w", domain.ErrNotFound)
	}
	return &lvl, nil
}

func TestResolveElevated(t *testing.T) {
	store := &fakeOperatorStore{
		operators: map[int64]domain.Operator{
			10: {TelegramID: 10, FullName: "Анна Иванова", Active: true, AccessID: 1},
		},
		levels: map[int64]domain.AccessLevel{
			1: {ID: 1, Name: "Администратор", CanRead: true, CanWrite: true, CanDelete: true},
		},
	}
	svc := NewAccessService(store)

	profile := svc.Resolve(context.Background(), 10)
	assert.True(t, profile.Elevated)
	assert.Equal(t, "Анна Иванова", profile.FullName)
	assert.Equal(t, "Администратор", profile.Level)
	assert.True(t, profile.CanRead)
	assert.True(t, profile.CanDelete)
}

func TestResolveFailsClosed(t *testing.T) {
	tests := map[string]*fakeOperatorStore{
		"unknown identity": {
			operators: map[int64]domain.Operator{},
		},
		"inactive operator": {
			operators: map[int64]domain.Operator{
				10: {TelegramID: 10, Active: false, AccessID: 1},
			},
			levels: map[int64]domain.AccessLevel{1: {ID: 1, CanRead: true}},
		},
		"missing access level": {
			operators: map[int64]domain.Operator{
				10: {TelegramID: 10, Active: true, AccessID: 99},
			},
		},
		"lookup error": {
			err: domain.ErrTimeout,
		},
	}

	for name, store := range tests {
		t.Run(name, func(t *testing.T) {
			profile := NewAccessService(store).Resolve(context.Background(), 10)
			assert.Equal(t, domain.Anonymous, profile)
		})
	}
}
