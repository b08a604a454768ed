package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/crmline/intakebot/internal/domain"
)

type operatorStore interface {
	GetOperator(ctx context.Context, telegramID int64) (*domain.Operator, error)
	GetAccessLevel(ctx context.Context, id int64) (*domain.AccessLevel, error)
}

// AccessService maps an identity to its authorization profile. It must be
// consulted fresh on every top-level interaction: an operator's level may
// change between turns and stale elevation must never be returned.
type AccessService struct {
	store operatorStore
}

func NewAccessService(store operatorStore) *AccessService {
	return &AccessService{store: store}
}

// Resolve fails closed: any lookup error, a missing row or an inactive
// operator yields the anonymous profile.
func (s *AccessService) Resolve(ctx context.Context, telegramID int64) domain.Profile {
	op, err := s.store.GetOperator(ctx, telegramID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Warn("operator lookup failed, resolving anonymous", "error", err, "telegram_id", telegramID)
		}
		return domain.Anonymous
	}
	if !op.Active {
		return domain.Anonymous
	}

	lvl, err := s.store.GetAccessLevel(ctx, op.AccessID)
	if err != nil {
		slog.Warn("access level lookup failed, resolving anonymous", "error", err, "telegram_id", telegramID)
		return domain.Anonymous
	}

	return domain.Profile{
		Elevated:  true,
		FullName:  op.FullName,
		Level:     lvl.Name,
		CanRead:   lvl.CanRead,
		CanWrite:  lvl.CanWrite,
		CanDelete: lvl.CanDelete,
	}
}
